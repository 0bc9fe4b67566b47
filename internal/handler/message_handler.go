package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/clubboard/internal/message"
	"github.com/hitoshi/clubboard/internal/middleware"
	"github.com/hitoshi/clubboard/internal/model"
	"github.com/hitoshi/clubboard/internal/security"
	"github.com/hitoshi/clubboard/internal/validation"
)

// MessageServiceInterface はメッセージハンドラーが必要とするサービスインターフェース。
type MessageServiceInterface interface {
	GetMessages(ctx context.Context, isMember bool) ([]model.MessageView, error)
	GetMessageByID(ctx context.Context, id int64) (*model.Message, error)
	CreateMessage(ctx context.Context, msg model.NewMessage) (*model.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
}

// MessageHandler はメッセージ関連のHTTPハンドラー。
type MessageHandler struct {
	service   MessageServiceInterface
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewMessageHandler はMessageHandlerを生成する。
func NewMessageHandler(service MessageServiceInterface, sanitizer security.TextSanitizer) *MessageHandler {
	return &MessageHandler{
		service:   service,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// messageResponse はメッセージ一覧の1件分のレスポンス。
type messageResponse struct {
	model.MessageView
	CanDelete bool `json:"canDelete"`
}

// ListMessages はメッセージ一覧を返す。
// GET /api/messages
// 著者名は閲覧者がメンバーの場合のみ表示される。
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	viewer, _ := middleware.UserFromContext(r.Context())
	isMember := viewer != nil && viewer.IsMember

	views, err := h.service.GetMessages(r.Context(), isMember)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponses(views, viewer))
}

// CreateMessage はメッセージを投稿する。
// POST /api/messages
func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req validation.MessageInput
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = h.sanitizer.Sanitize(req.Title)
	req.Content = h.sanitizer.Sanitize(req.Content)
	if !validate(w, req) {
		return
	}

	msg, err := h.service.CreateMessage(r.Context(), model.NewMessage{
		UserID:  user.ID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	view := msg.View(true)
	view.RelativeTime = message.RelativeTime(msg.CreatedAt, h.now())
	writeJSON(w, http.StatusCreated, messageResponse{MessageView: view, CanDelete: true})
}

// GetMessage はメッセージ詳細を返す。メンバー専用。
// GET /api/messages/{id}
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	msg, err := h.service.GetMessageByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if msg == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewMessageNotFoundError(id))
		return
	}

	view := msg.View(viewer.IsMember)
	view.RelativeTime = message.RelativeTime(msg.CreatedAt, h.now())
	writeJSON(w, http.StatusOK, messageResponse{MessageView: view, CanDelete: canDelete(viewer, msg.UserID)})
}

// DeleteMessage はメッセージを削除する。投稿者本人または管理者のみ実行できる。
// DELETE /api/messages/{id}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	msg, err := h.service.GetMessageByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if msg == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewMessageNotFoundError(id))
		return
	}
	if !canDelete(user, msg.UserID) {
		slog.Warn("message delete forbidden",
			slog.Int64("user_id", user.ID),
			slog.Int64("message_id", id),
		)
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError("このメッセージを削除する権限がありません。"))
		return
	}

	if err := h.service.DeleteMessage(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// canDelete は閲覧者がメッセージを削除できるか（投稿者本人または管理者）を返す。
func canDelete(viewer *model.SafeUser, authorID int64) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin || viewer.ID == authorID
}

func toMessageResponses(views []model.MessageView, viewer *model.SafeUser) []messageResponse {
	results := make([]messageResponse, len(views))
	for i, v := range views {
		results[i] = messageResponse{MessageView: v, CanDelete: canDelete(viewer, v.UserID)}
	}
	return results
}
