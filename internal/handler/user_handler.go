package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/clubboard/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetSafeUsers(ctx context.Context) ([]model.SafeUser, error)
	GetSafeUserByID(ctx context.Context, id int64) (*model.SafeUser, error)
}

// UserMessageLister はユーザーごとのメッセージ一覧を返す。message.Serviceが実装する。
type UserMessageLister interface {
	GetMessagesByUserID(ctx context.Context, userID int64, isMember bool) ([]model.MessageView, error)
}

// UserHandler はメンバー向けユーザー一覧・詳細のHTTPハンドラー。
type UserHandler struct {
	users    UserServiceInterface
	messages UserMessageLister
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(users UserServiceInterface, messages UserMessageLister) *UserHandler {
	return &UserHandler{
		users:    users,
		messages: messages,
	}
}

// userDetailResponse はユーザー詳細のレスポンス。
type userDetailResponse struct {
	User     *model.SafeUser   `json:"user"`
	Messages []messageResponse `json:"messages"`
}

// ListUsers は全ユーザーを登録順に返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetSafeUsers(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []model.SafeUser{}
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser はユーザーとその投稿一覧を返す。
// GET /api/users/{id}
// ルートはメンバー専用のため、投稿の著者名は常にメンバー向けに射影する。
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetSafeUserByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	views, err := h.messages.GetMessagesByUserID(r.Context(), id, true)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userDetailResponse{
		User:     user,
		Messages: toMessageResponses(views, viewer),
	})
}
