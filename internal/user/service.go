// Package user はユーザー管理のドメインロジックを提供する。
// 読み取りはキャッシュを経由し、書き込みのたびに古くなり得るキーを無効化する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/clubboard/internal/cache"
	"github.com/hitoshi/clubboard/internal/config"
	"github.com/hitoshi/clubboard/internal/model"
	"github.com/hitoshi/clubboard/internal/repository"
)

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	rt       *cache.ReadThrough
	ttl      config.TTLConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, rt *cache.ReadThrough, ttl config.TTLConfig) *Service {
	return &Service{
		userRepo: userRepo,
		rt:       rt,
		ttl:      ttl,
	}
}

// GetUserByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
// 返り値はパスワードハッシュを含むため、ログイン照合以外でHTTPレスポンスに渡してはならない。
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, _, err := cache.Fetch(ctx, s.rt, cache.Entry{
		Key:   cache.UserByUsernameKey(username),
		Space: cache.SpaceUserByUsername,
		TTL:   s.ttl.User,
	}, func(ctx context.Context) (*model.User, bool, error) {
		u, err := s.userRepo.FindByUsername(ctx, username)
		return u, u != nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}

// GetUserByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (s *Service) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, _, err := cache.Fetch(ctx, s.rt, cache.Entry{
		Key:   cache.UserKey(id),
		Space: cache.SpaceUser,
		TTL:   s.ttl.User,
	}, func(ctx context.Context) (*model.User, bool, error) {
		u, err := s.userRepo.FindByID(ctx, id)
		return u, u != nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}

// GetSafeUserByID はパスワードを除いたユーザーを取得する。見つからない場合はnilを返す。
func (s *Service) GetSafeUserByID(ctx context.Context, id int64) (*model.SafeUser, error) {
	u, _, err := cache.Fetch(ctx, s.rt, cache.Entry{
		Key:   cache.UserSafeKey(id),
		Space: cache.SpaceUserSafe,
		TTL:   s.ttl.UserSafe,
	}, func(ctx context.Context) (*model.SafeUser, bool, error) {
		u, err := s.userRepo.FindByID(ctx, id)
		if err != nil || u == nil {
			return nil, false, err
		}
		return u.Safe(), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}

// GetSafeUsers は全ユーザーをユーザー名順に返す。空の一覧もキャッシュする。
func (s *Service) GetSafeUsers(ctx context.Context) ([]model.SafeUser, error) {
	users, _, err := cache.Fetch(ctx, s.rt, cache.Entry{
		Key:   cache.UsersSafeAllKey(),
		Space: cache.SpaceUsersSafeAll,
		TTL:   s.ttl.UsersSafeAll,
	}, func(ctx context.Context) ([]model.SafeUser, bool, error) {
		users, err := s.userRepo.ListSafe(ctx)
		if err != nil {
			return nil, false, err
		}
		if users == nil {
			users = []model.SafeUser{}
		}
		return users, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// CreateUser はユーザーを登録する。ユーザー名が使用済みの場合はmodel.ErrDuplicateEntityを返す。
func (s *Service) CreateUser(ctx context.Context, reg model.Registration) (*model.User, error) {
	existing, err := s.GetUserByUsername(ctx, reg.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.ErrDuplicateEntity
	}

	// 事前確認と挿入の間に同名登録が割り込んだ場合は一意制約違反として返る
	u, err := s.userRepo.Create(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	s.rt.Invalidate(ctx,
		cache.UserByUsernameKey(u.Username),
		cache.UsersSafeAllKey(),
	)

	slog.Info("ユーザーを作成しました",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
	)

	return u, nil
}

// UpdateUser は指定されたフィールドのみを更新する。
// 更新項目が空の場合はmodel.ErrNoFieldsProvidedを返す。対象が存在しない場合はnilを返す。
func (s *Service) UpdateUser(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error) {
	if upd.IsEmpty() {
		return nil, model.ErrNoFieldsProvided
	}

	// 旧ユーザー名のキーを無効化するため、キャッシュを経由せずに現在値を読む
	before, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if before == nil {
		return nil, nil
	}

	after, err := s.userRepo.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	if after == nil {
		// 読み取りと更新の間に削除された
		s.rt.Invalidate(ctx, s.userKeys(id, before.Username)...)
		return nil, nil
	}

	keys := s.userKeys(id, before.Username, after.Username)
	if upd.ChangesAuthorName() {
		keys = append(keys, cache.MessageListKeys()...)
		keys = append(keys, cache.MessagesByUserKeys(id)...)
	}
	s.rt.Invalidate(ctx, keys...)

	slog.Info("ユーザーを更新しました", slog.Int64("user_id", id))

	return after, nil
}

// DeleteUser はユーザーを削除する。存在しない場合もエラーにしない。
// メッセージとセッションはCASCADE削除されるため、メッセージ一覧のキーも無効化する。
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	before, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	var usernames []string
	if before != nil {
		usernames = append(usernames, before.Username)
	}
	keys := s.userKeys(id, usernames...)
	keys = append(keys, cache.MessageListKeys()...)
	keys = append(keys, cache.MessagesByUserKeys(id)...)
	s.rt.Invalidate(ctx, keys...)

	slog.Info("ユーザーを削除しました", slog.Int64("user_id", id))

	return nil
}

// userKeys はユーザー1件の変更で古くなり得るユーザー系キーを返す。
func (s *Service) userKeys(id int64, usernames ...string) []string {
	keys := []string{
		cache.UserKey(id),
		cache.UserSafeKey(id),
		cache.UsersSafeAllKey(),
	}
	for _, name := range usernames {
		keys = append(keys, cache.UserByUsernameKey(name))
	}
	return keys
}
