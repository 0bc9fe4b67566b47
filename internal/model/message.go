package model

import "time"

// RedactedAuthor は非メンバーに表示する著者のプレースホルダー。
const RedactedAuthor = "******** (********)"

// Message は掲示板の投稿を表す。
// Username / FirstName / LastName はusersテーブルとのJOINで得た著者情報。
type Message struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	CreatedAt time.Time

	Username  string
	FirstName string
	LastName  string
}

// NewMessage はメッセージ作成の入力。
type NewMessage struct {
	UserID  int64
	Title   string
	Content string
}

// MessageView は閲覧者のメンバー資格に応じて射影したメッセージ。
// Authorは射影済みのため、ゲスト用の値に実名が含まれることはない。
type MessageView struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	Author       string    `json:"author"`
	RelativeTime string    `json:"relativeTime"`
}

// AuthorFor は閲覧者のメンバー資格に応じた著者表示を返す。
func (m *Message) AuthorFor(isMember bool) string {
	if !isMember {
		return RedactedAuthor
	}
	return m.FirstName + " " + m.LastName + " (" + m.Username + ")"
}

// View は閲覧者向けの射影を返す。RelativeTimeは呼び出し側で設定する。
func (m *Message) View(isMember bool) MessageView {
	return MessageView{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Author:    m.AuthorFor(isMember),
	}
}
