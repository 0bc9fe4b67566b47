// Package model はドメインモデルを定義する。
package model

import "time"

// User は掲示板の利用者を表す。
// Passwordはbcryptハッシュであり、HTTPレスポンスには決して含めない。
// JSONタグはユーザーサービス内部のキャッシュエントリ用。
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Password  string    `json:"password"`
	IsMember  bool      `json:"isMember"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// SafeUser はパスワードを除いたユーザーの射影。
// ハンドラーや共有キャッシュに渡すのはこの型のみ。
type SafeUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	IsMember  bool      `json:"isMember"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Safe はパスワードを取り除いたSafeUserを返す。
func (u *User) Safe() *SafeUser {
	return &SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsMember:  u.IsMember,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

// FullName は "First Last" 形式の表示名を返す。
func (u *SafeUser) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Registration は新規ユーザー登録の入力。Passwordは平文で、永続化時にハッシュ化される。
type Registration struct {
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// UserUpdate はユーザーの部分更新。nilのフィールドは「変更なし」を意味する。
type UserUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	Password  *string // 平文。永続化時にハッシュ化される
	IsMember  *bool
	IsAdmin   *bool
}

// IsEmpty は変更対象のフィールドが1つもない場合にtrueを返す。
func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil &&
		u.FirstName == nil &&
		u.LastName == nil &&
		u.Password == nil &&
		u.IsMember == nil &&
		u.IsAdmin == nil
}

// ChangesAuthorName はメッセージの著者表示に影響する変更を含むかを返す。
func (u UserUpdate) ChangesAuthorName() bool {
	return u.Username != nil || u.FirstName != nil || u.LastName != nil
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
