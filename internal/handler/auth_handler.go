package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/clubboard/internal/middleware"
	"github.com/hitoshi/clubboard/internal/model"
	"github.com/hitoshi/clubboard/internal/security"
	"github.com/hitoshi/clubboard/internal/validation"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, reg model.Registration) (*model.SafeUser, string, error)
	Login(ctx context.Context, username, password string) (*model.SafeUser, string, error)
	Logout(ctx context.Context, cookieValue string) error
	Upgrade(ctx context.Context, userID int64, answer string) (*model.SafeUser, error)
}

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は登録・ログイン・メンバー昇格のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	sanitizer security.TextSanitizer
	cookie    CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, sanitizer security.TextSanitizer, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		sanitizer: sanitizer,
		cookie:    cookie,
	}
}

// Register はユーザーを登録し、ログイン状態にする。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req validation.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	req.FirstName = h.sanitizer.Sanitize(req.FirstName)
	req.LastName = h.sanitizer.Sanitize(req.LastName)
	if !validate(w, req) {
		return
	}

	user, cookie, err := h.service.Register(r.Context(), model.Registration{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEntity) {
			writeAPIErrorResponse(w, http.StatusConflict, model.NewDuplicateUsernameError(req.Username))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, cookie)
	writeJSON(w, http.StatusCreated, user)
}

// Login はユーザー名とパスワードで認証し、セッションCookieを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if !validate(w, req) {
		return
	}

	user, cookie, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, cookie)
	writeJSON(w, http.StatusOK, user)
}

// Logout はセッションを破棄し、Cookieを削除する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			// Cookieは削除するため、セッション削除の失敗はログのみ
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Upgrade は合言葉を照合し、ユーザーをメンバーに昇格させる。
// POST /auth/upgrade
func (h *AuthHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req validation.UpgradeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validate(w, req) {
		return
	}

	updated, err := h.service.Upgrade(r.Context(), user.ID, req.Answer)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// setSessionCookie は署名済みセッションIDをHttpOnly Cookieに設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string) {
	setSessionCookie(w, h.cookie, value)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	clearSessionCookie(w, h.cookie)
}

func setSessionCookie(w http.ResponseWriter, config CookieConfig, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   config.MaxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
