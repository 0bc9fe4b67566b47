// Package auth はユーザー登録・ログイン・セッション管理・メンバー昇格を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/clubboard/internal/model"
	"github.com/hitoshi/clubboard/internal/repository"
)

// UserService は認証に必要なユーザー操作。user.Serviceが実装する。
type UserService interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetSafeUserByID(ctx context.Context, id int64) (*model.SafeUser, error)
	CreateUser(ctx context.Context, reg model.Registration) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error)
}

// PasswordVerifier はハッシュと平文パスワードを照合する。security.BcryptHasherが実装する。
type PasswordVerifier interface {
	Verify(hashed, password string) (bool, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int    // セッション有効期間（秒）
	UpgradeAnswer string // メンバー昇格の合言葉
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users       UserService
	sessionRepo repository.SessionRepository
	verifier    PasswordVerifier
	signer      *CookieSigner
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	users UserService,
	sessionRepo repository.SessionRepository,
	verifier PasswordVerifier,
	signer *CookieSigner,
	config ServiceConfig,
) *Service {
	return &Service{
		users:       users,
		sessionRepo: sessionRepo,
		verifier:    verifier,
		signer:      signer,
		config:      config,
	}
}

// Register はユーザーを登録し、そのままログイン状態のセッションを発行する。
// ユーザー名が使用済みの場合はmodel.ErrDuplicateEntityを返す。
func (s *Service) Register(ctx context.Context, reg model.Registration) (*model.SafeUser, string, error) {
	user, err := s.users.CreateUser(ctx, reg)
	if err != nil {
		return nil, "", err
	}

	cookie, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user.Safe(), cookie, nil
}

// Login はユーザー名とパスワードを照合し、セッションを発行する。
// どちらが誤っていてもmodel.NewInvalidCredentialsErrorを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.SafeUser, string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		slog.Warn("login failed", slog.String("username", username), slog.String("reason", "unknown user"))
		return nil, "", model.NewInvalidCredentialsError()
	}

	ok, err := s.verifier.Verify(user.Password, password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		slog.Warn("login failed", slog.String("username", username), slog.String("reason", "password mismatch"))
		return nil, "", model.NewInvalidCredentialsError()
	}

	cookie, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return user.Safe(), cookie, nil
}

// Logout はCookie値が指すセッションを破棄する。署名が不正なCookieは無視する。
func (s *Service) Logout(ctx context.Context, cookieValue string) error {
	sessionID, ok := s.signer.Verify(cookieValue)
	if !ok {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// Authenticate はCookie値からセッションを検証し、現在のユーザーを返す。
// 署名不正・期限切れ・ユーザー削除済みの場合はnil, nilを返す。
func (s *Service) Authenticate(ctx context.Context, cookieValue string) (*model.SafeUser, error) {
	sessionID, ok := s.signer.Verify(cookieValue)
	if !ok {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.users.GetSafeUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Upgrade は合言葉が一致した場合にユーザーをメンバーに昇格させる。
// 回答は前後の空白と大文字小文字を無視して比較する。
func (s *Service) Upgrade(ctx context.Context, userID int64, answer string) (*model.SafeUser, error) {
	current, err := s.users.GetSafeUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.NewUserNotFoundError()
	}
	if current.IsMember {
		return nil, model.NewAlreadyMemberError()
	}

	if !strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(s.config.UpgradeAnswer)) {
		slog.Warn("upgrade failed", slog.Int64("user_id", userID), slog.String("reason", "invalid answer"))
		return nil, model.NewInvalidAnswerError()
	}

	isMember := true
	updated, err := s.users.UpdateUser(ctx, userID, model.UserUpdate{IsMember: &isMember})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("user upgraded to member", slog.Int64("user_id", userID))
	return updated.Safe(), nil
}

// VerifyPassword は指定ユーザーのパスワードが一致するかを返す。
// パスワード変更・アカウント削除の本人確認に使う。
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) (bool, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	ok, err := s.verifier.Verify(user.Password, password)
	if err != nil {
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return ok, nil
}

// RevokeOtherSessions はCookie値が指すセッション以外の、ユーザーの全セッションを破棄する。
// パスワード変更後に他の端末のログイン状態を解除するために使う。
func (s *Service) RevokeOtherSessions(ctx context.Context, userID int64, cookieValue string) error {
	keepID, _ := s.signer.Verify(cookieValue)

	n, err := s.sessionRepo.DeleteOthersByUserID(ctx, userID, keepID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	slog.Info("other sessions revoked", slog.Int64("user_id", userID), slog.Int64("revoked_count", n))
	return nil
}

// startSession はセッションを作成し、署名済みのCookie値を返す。
func (s *Service) startSession(ctx context.Context, userID int64) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return s.signer.Sign(sessionID), nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
