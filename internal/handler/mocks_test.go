package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/clubboard/internal/middleware"
	"github.com/hitoshi/clubboard/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, reg model.Registration) (*model.SafeUser, string, error)
	loginFn    func(ctx context.Context, username, password string) (*model.SafeUser, string, error)
	logoutFn   func(ctx context.Context, cookieValue string) error
	upgradeFn  func(ctx context.Context, userID int64, answer string) (*model.SafeUser, error)
}

func (m *mockAuthService) Register(ctx context.Context, reg model.Registration) (*model.SafeUser, string, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, reg)
	}
	return nil, "", nil
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*model.SafeUser, string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, "", nil
}

func (m *mockAuthService) Logout(ctx context.Context, cookieValue string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, cookieValue)
	}
	return nil
}

func (m *mockAuthService) Upgrade(ctx context.Context, userID int64, answer string) (*model.SafeUser, error) {
	if m.upgradeFn != nil {
		return m.upgradeFn(ctx, userID, answer)
	}
	return nil, nil
}

type mockMessageService struct {
	getMessagesFn         func(ctx context.Context, isMember bool) ([]model.MessageView, error)
	getMessagesByUserIDFn func(ctx context.Context, userID int64, isMember bool) ([]model.MessageView, error)
	getMessageByIDFn      func(ctx context.Context, id int64) (*model.Message, error)
	createMessageFn       func(ctx context.Context, msg model.NewMessage) (*model.Message, error)
	deleteMessageFn       func(ctx context.Context, id int64) error
}

func (m *mockMessageService) GetMessages(ctx context.Context, isMember bool) ([]model.MessageView, error) {
	if m.getMessagesFn != nil {
		return m.getMessagesFn(ctx, isMember)
	}
	return nil, nil
}

func (m *mockMessageService) GetMessagesByUserID(ctx context.Context, userID int64, isMember bool) ([]model.MessageView, error) {
	if m.getMessagesByUserIDFn != nil {
		return m.getMessagesByUserIDFn(ctx, userID, isMember)
	}
	return nil, nil
}

func (m *mockMessageService) GetMessageByID(ctx context.Context, id int64) (*model.Message, error) {
	if m.getMessageByIDFn != nil {
		return m.getMessageByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMessageService) CreateMessage(ctx context.Context, msg model.NewMessage) (*model.Message, error) {
	if m.createMessageFn != nil {
		return m.createMessageFn(ctx, msg)
	}
	return nil, nil
}

func (m *mockMessageService) DeleteMessage(ctx context.Context, id int64) error {
	if m.deleteMessageFn != nil {
		return m.deleteMessageFn(ctx, id)
	}
	return nil
}

type mockUserService struct {
	getSafeUsersFn      func(ctx context.Context) ([]model.SafeUser, error)
	getSafeUserByIDFn   func(ctx context.Context, id int64) (*model.SafeUser, error)
	getUserByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	updateUserFn        func(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error)
	deleteUserFn        func(ctx context.Context, id int64) error
}

func (m *mockUserService) GetSafeUsers(ctx context.Context) ([]model.SafeUser, error) {
	if m.getSafeUsersFn != nil {
		return m.getSafeUsersFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) GetSafeUserByID(ctx context.Context, id int64) (*model.SafeUser, error) {
	if m.getSafeUserByIDFn != nil {
		return m.getSafeUserByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getUserByUsernameFn != nil {
		return m.getUserByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserService) UpdateUser(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(ctx, id, upd)
	}
	return nil, nil
}

func (m *mockUserService) DeleteUser(ctx context.Context, id int64) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, id)
	}
	return nil
}

type mockCredentialService struct {
	verifyPasswordFn func(ctx context.Context, userID int64, password string) (bool, error)
	revokeFn         func(ctx context.Context, userID int64, cookieValue string) error
}

func (m *mockCredentialService) VerifyPassword(ctx context.Context, userID int64, password string) (bool, error) {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(ctx, userID, password)
	}
	return false, nil
}

func (m *mockCredentialService) RevokeOtherSessions(ctx context.Context, userID int64, cookieValue string) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, userID, cookieValue)
	}
	return nil
}

// passthroughSanitizer は入力をそのまま返す。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return raw }

// --- ヘルパー ---

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

func withUser(req *http.Request, user *model.SafeUser) *http.Request {
	return req.WithContext(middleware.ContextWithUser(req.Context(), user))
}

// withChiURLParam はchiのURLパラメータをリクエストコンテキストに設定する。
func withChiURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func memberUser() *model.SafeUser {
	return &model.SafeUser{ID: 1, Username: "alice", FirstName: "Alice", LastName: "Lastname", IsMember: true}
}

func guestUser() *model.SafeUser {
	return &model.SafeUser{ID: 2, Username: "bobby", FirstName: "Bob", LastName: "Guest"}
}
