package cache

import "strconv"

// キー空間名。メトリクスのラベルとして使う。
const (
	SpaceUserByUsername = "user:byUsername"
	SpaceUser           = "user"
	SpaceUserSafe       = "user:safe"
	SpaceUsersSafeAll   = "users:safe:all"
	SpaceMessagesList   = "messages:list"
	SpaceMessagesByUser = "messages:byUser"
)

// UserByUsernameKey はユーザー名で引くユーザー（パスワードハッシュ込み）のキーを返す。
func UserByUsernameKey(username string) string {
	return "user:byUsername:" + username
}

// UserKey はIDで引くユーザー（パスワードハッシュ込み）のキーを返す。
func UserKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

// UserSafeKey はIDで引く公開用ユーザーのキーを返す。
func UserSafeKey(id int64) string {
	return "user:safe:" + strconv.FormatInt(id, 10)
}

// UsersSafeAllKey は公開用ユーザー一覧のキーを返す。
func UsersSafeAllKey() string {
	return "users:safe:all"
}

// MessagesListKey は閲覧者のメンバー資格ごとのメッセージ一覧キーを返す。
// メンバー用とゲスト用で著者表示が異なるため、キーを分ける。
func MessagesListKey(isMember bool) string {
	return "messages:list:" + audience(isMember)
}

// MessagesByUserKey は指定ユーザーのメッセージ一覧キーを閲覧者のメンバー資格ごとに返す。
func MessagesByUserKey(userID int64, isMember bool) string {
	return "messages:byUser:" + strconv.FormatInt(userID, 10) + ":" + audience(isMember)
}

// MessageListKeys はメッセージ一覧の両バリアントのキーを返す。
func MessageListKeys() []string {
	return []string{MessagesListKey(true), MessagesListKey(false)}
}

// MessagesByUserKeys は指定ユーザーのメッセージ一覧の両バリアントのキーを返す。
func MessagesByUserKeys(userID int64) []string {
	return []string{MessagesByUserKey(userID, true), MessagesByUserKey(userID, false)}
}

func audience(isMember bool) string {
	if isMember {
		return "member"
	}
	return "guest"
}
