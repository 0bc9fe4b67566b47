// Package message はメッセージ投稿のドメインロジックを提供する。
package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/clubboard/internal/cache"
	"github.com/hitoshi/clubboard/internal/config"
	"github.com/hitoshi/clubboard/internal/model"
	"github.com/hitoshi/clubboard/internal/repository"
)

// Service はメッセージのサービス層。
// 一覧は閲覧者のメンバー資格ごとに著者表示を射影した状態でキャッシュする。
type Service struct {
	messageRepo repository.MessageRepository
	rt          *cache.ReadThrough
	ttl         config.TTLConfig
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(messageRepo repository.MessageRepository, rt *cache.ReadThrough, ttl config.TTLConfig) *Service {
	return &Service{
		messageRepo: messageRepo,
		rt:          rt,
		ttl:         ttl,
		now:         time.Now,
	}
}

// GetMessages は全メッセージを新しい順に返す。
func (s *Service) GetMessages(ctx context.Context, isMember bool) ([]model.MessageView, error) {
	views, _, err := cache.Fetch(ctx, s.rt, cache.Entry{
		Key:   cache.MessagesListKey(isMember),
		Space: cache.SpaceMessagesList,
		TTL:   s.ttl.MessagesList,
	}, func(ctx context.Context) ([]model.MessageView, bool, error) {
		msgs, err := s.messageRepo.ListAll(ctx)
		if err != nil {
			return nil, false, err
		}
		return project(msgs, isMember), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("メッセージ一覧の取得に失敗しました: %w", err)
	}
	return s.withRelativeTime(views), nil
}

// GetMessagesByUserID は指定ユーザーのメッセージを新しい順に返す。
func (s *Service) GetMessagesByUserID(ctx context.Context, userID int64, isMember bool) ([]model.MessageView, error) {
	views, _, err := cache.Fetch(ctx, s.rt, cache.Entry{
		Key:   cache.MessagesByUserKey(userID, isMember),
		Space: cache.SpaceMessagesByUser,
		TTL:   s.ttl.MessagesByUser,
	}, func(ctx context.Context) ([]model.MessageView, bool, error) {
		msgs, err := s.messageRepo.ListByUserID(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		return project(msgs, isMember), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ユーザーのメッセージ取得に失敗しました: %w", err)
	}
	return s.withRelativeTime(views), nil
}

// GetMessageByID は指定IDのメッセージを返す。キャッシュしない。見つからない場合はnilを返す。
func (s *Service) GetMessageByID(ctx context.Context, id int64) (*model.Message, error) {
	msg, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("メッセージの取得に失敗しました: %w", err)
	}
	return msg, nil
}

// CreateMessage はメッセージを投稿し、一覧と投稿者別一覧のキャッシュを無効化する。
func (s *Service) CreateMessage(ctx context.Context, msg model.NewMessage) (*model.Message, error) {
	created, err := s.messageRepo.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("メッセージの作成に失敗しました: %w", err)
	}

	s.rt.Invalidate(ctx, affectedKeys(created.UserID)...)

	slog.Info("メッセージを投稿しました",
		slog.Int64("message_id", created.ID),
		slog.Int64("user_id", created.UserID),
	)

	return created, nil
}

// DeleteMessage はメッセージを削除する。存在しない場合もエラーにしない。
func (s *Service) DeleteMessage(ctx context.Context, id int64) error {
	existing, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("メッセージの取得に失敗しました: %w", err)
	}

	if err := s.messageRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("メッセージの削除に失敗しました: %w", err)
	}

	if existing == nil {
		s.rt.Invalidate(ctx, cache.MessageListKeys()...)
		return nil
	}

	s.rt.Invalidate(ctx, affectedKeys(existing.UserID)...)

	slog.Info("メッセージを削除しました",
		slog.Int64("message_id", id),
		slog.Int64("user_id", existing.UserID),
	)

	return nil
}

func affectedKeys(authorID int64) []string {
	return append(cache.MessageListKeys(), cache.MessagesByUserKeys(authorID)...)
}

// project は閲覧者のメンバー資格に応じて著者表示を射影する。
// ゲスト用のキャッシュ値に実名が入らないよう、キャッシュ書き込み前に適用する。
func project(msgs []model.Message, isMember bool) []model.MessageView {
	views := make([]model.MessageView, 0, len(msgs))
	for i := range msgs {
		views = append(views, msgs[i].View(isMember))
	}
	return views
}

// withRelativeTime は読み取り時点の相対時刻を設定したコピーを返す。
// singleflightで共有されたスライスは書き換えない。
func (s *Service) withRelativeTime(views []model.MessageView) []model.MessageView {
	now := s.now()
	out := make([]model.MessageView, len(views))
	for i, v := range views {
		v.RelativeTime = RelativeTime(v.CreatedAt, now)
		out[i] = v
	}
	return out
}
