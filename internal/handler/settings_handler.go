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

// AccountUserService はアカウント設定に必要なユーザー操作。user.Serviceが実装する。
type AccountUserService interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CredentialService は本人確認用のパスワード照合とセッション破棄。auth.Serviceが実装する。
type CredentialService interface {
	VerifyPassword(ctx context.Context, userID int64, password string) (bool, error)
	RevokeOtherSessions(ctx context.Context, userID int64, cookieValue string) error
}

// SettingsHandler はアカウントページと設定変更のHTTPハンドラー。
type SettingsHandler struct {
	users     AccountUserService
	messages  UserMessageLister
	passwords CredentialService
	sanitizer security.TextSanitizer
	cookie    CookieConfig
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(
	users AccountUserService,
	messages UserMessageLister,
	passwords CredentialService,
	sanitizer security.TextSanitizer,
	cookie CookieConfig,
) *SettingsHandler {
	return &SettingsHandler{
		users:     users,
		messages:  messages,
		passwords: passwords,
		sanitizer: sanitizer,
		cookie:    cookie,
	}
}

// Account は自分のユーザー情報と投稿一覧を返す。
// GET /api/account
func (h *SettingsHandler) Account(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	views, err := h.messages.GetMessagesByUserID(r.Context(), user.ID, user.IsMember)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userDetailResponse{
		User:     user,
		Messages: toMessageResponses(views, user),
	})
}

// UpdateProfile はユーザー名・氏名を変更する。現在値と異なる項目のみ更新する。
// PUT /api/settings/profile
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req validation.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	req.FirstName = h.sanitizer.Sanitize(req.FirstName)
	req.LastName = h.sanitizer.Sanitize(req.LastName)
	if !validate(w, req) {
		return
	}

	var upd model.UserUpdate
	if req.Username != user.Username {
		upd.Username = &req.Username
	}
	if req.FirstName != user.FirstName {
		upd.FirstName = &req.FirstName
	}
	if req.LastName != user.LastName {
		upd.LastName = &req.LastName
	}
	if upd.IsEmpty() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewNoChangesError())
		return
	}

	if upd.Username != nil {
		existing, err := h.users.GetUserByUsername(r.Context(), req.Username)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		if existing != nil && existing.ID != user.ID {
			writeAPIErrorResponse(w, http.StatusConflict, model.NewDuplicateUsernameError(req.Username))
			return
		}
	}

	updated, err := h.users.UpdateUser(r.Context(), user.ID, upd)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEntity) {
			writeAPIErrorResponse(w, http.StatusConflict, model.NewDuplicateUsernameError(req.Username))
			return
		}
		handleServiceError(w, r, err)
		return
	}
	if updated == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, updated.Safe())
}

// ChangePassword は現在のパスワードを確認してから新しいパスワードに変更する。
// PUT /api/settings/password
func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req validation.PasswordChangeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validate(w, req) {
		return
	}

	matched, err := h.passwords.VerifyPassword(r.Context(), user.ID, req.CurrentPassword)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !matched {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError([]string{"Current password is incorrect"}))
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), user.ID, model.UserUpdate{Password: &req.Password})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if updated == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	// 変更したリクエスト自身のセッションは残す
	var cookieValue string
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil {
		cookieValue = c.Value
	}
	if err := h.passwords.RevokeOtherSessions(r.Context(), user.ID, cookieValue); err != nil {
		handleServiceError(w, r, err)
		return
	}

	slog.Info("password changed", slog.Int64("user_id", user.ID))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount はユーザー名とパスワードの確認後にアカウントを削除する。
// DELETE /api/settings/account
// セッションはusersの削除にカスケードして消えるため、Cookieのみ削除する。
func (h *SettingsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req validation.DeleteAccountInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validate(w, req) {
		return
	}

	if req.ConfirmUsername != user.Username {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewConfirmationMismatchError())
		return
	}
	matched, err := h.passwords.VerifyPassword(r.Context(), user.ID, req.ConfirmPassword)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !matched {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewConfirmationMismatchError())
		return
	}

	if err := h.users.DeleteUser(r.Context(), user.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	slog.Info("account deleted", slog.Int64("user_id", user.ID))
	clearSessionCookie(w, h.cookie)
	w.WriteHeader(http.StatusNoContent)
}
