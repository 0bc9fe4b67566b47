// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/clubboard/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// ListSafe はパスワードを除いた全ユーザーをユーザー名順に返す。
	ListSafe(ctx context.Context) ([]model.SafeUser, error)

	// Create はパスワードをハッシュ化してユーザーを作成する。
	// ユーザー名が重複する場合はmodel.ErrDuplicateEntityを返す。
	Create(ctx context.Context, reg model.Registration) (*model.User, error)

	// Update は指定されたフィールドのみを更新し、更新後のユーザーを返す。
	// 更新項目が空の場合はmodel.ErrNoFieldsProvidedを返す。
	// パスワードが指定された場合はハッシュ化してから書き込む。
	// 対象が存在しない場合はnilを返す。
	Update(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。存在しない場合もエラーにしない。
	// messages、sessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// MessageRepository はメッセージデータの永続化インターフェース。
// 取得系はすべて著者情報をJOINし、新しい順に返す。
type MessageRepository interface {
	ListAll(ctx context.Context) ([]model.Message, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Message, error)
	// FindByID は指定IDのメッセージを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Message, error)
	Create(ctx context.Context, msg model.NewMessage) (*model.Message, error)
	// DeleteByID は指定IDのメッセージを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id int64) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteOthersByUserID は指定ユーザーのkeepID以外のセッションを削除し、削除件数を返す。
	DeleteOthersByUserID(ctx context.Context, userID int64, keepID string) (int64, error)
}

// PasswordHasher は平文パスワードをハッシュ化する。
// security.BcryptHasherが実装する。
type PasswordHasher interface {
	Hash(password string) (string, error)
}
