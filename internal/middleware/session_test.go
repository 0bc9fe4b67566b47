package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/clubboard/internal/model"
)

// --- モック定義 ---

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, cookieValue string) (*model.SafeUser, error)
	calls          int
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, cookieValue string) (*model.SafeUser, error) {
	m.calls++
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, cookieValue)
	}
	return nil, nil
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- セッションミドルウェア ---

func TestSessionMiddleware_ValidCookie_InjectsUser(t *testing.T) {
	auth := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, cookieValue string) (*model.SafeUser, error) {
			if cookieValue == "sid.sig" {
				return &model.SafeUser{ID: 42, Username: "alice"}, nil
			}
			return nil, nil
		},
	}

	var gotID int64
	handler := NewSessionMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected user in context, got %v", err)
		}
		gotID = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sid.sig"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotID != 42 {
		t.Errorf("userID = %d, want 42", gotID)
	}
}

func TestSessionMiddleware_NoCookie_PassesAsGuest(t *testing.T) {
	auth := &mockAuthenticator{}

	called := false
	handler := NewSessionMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := UserFromContext(r.Context()); ok {
			t.Error("guest request should not carry a user")
		}
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	if !called {
		t.Fatal("next handler was not called")
	}
	if auth.calls != 0 {
		t.Errorf("Authenticate called %d times, want 0", auth.calls)
	}
}

func TestSessionMiddleware_InvalidOrFailingSession_PassesAsGuest(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, cookieValue string) (*model.SafeUser, error)
	}{
		{
			name: "無効なセッション",
			fn: func(ctx context.Context, cookieValue string) (*model.SafeUser, error) {
				return nil, nil
			},
		},
		{
			name: "解決時のエラー",
			fn: func(ctx context.Context, cookieValue string) (*model.SafeUser, error) {
				return nil, errors.New("db down")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &mockAuthenticator{authenticateFn: tt.fn}
			called := false
			handler := NewSessionMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if _, ok := UserFromContext(r.Context()); ok {
					t.Error("user should not be injected")
				}
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tampered"})
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if !called {
				t.Error("next handler was not called")
			}
		})
	}
}

// --- ガード ---

func TestGuards(t *testing.T) {
	member := &model.SafeUser{ID: 1, Username: "m", IsMember: true}
	plain := &model.SafeUser{ID: 2, Username: "p"}

	tests := []struct {
		name       string
		guard      func(http.Handler) http.Handler
		user       *model.SafeUser
		wantStatus int
		wantCode   string
	}{
		{"RequireAuth 未ログイン", RequireAuth, nil, http.StatusUnauthorized, model.ErrCodeUnauthorized},
		{"RequireAuth ログイン済み", RequireAuth, plain, http.StatusOK, ""},
		{"RequireMember 未ログイン", RequireMember, nil, http.StatusUnauthorized, model.ErrCodeUnauthorized},
		{"RequireMember 非メンバー", RequireMember, plain, http.StatusForbidden, model.ErrCodeMembershipRequired},
		{"RequireMember メンバー", RequireMember, member, http.StatusOK, ""},
		{"RequireGuest 未ログイン", RequireGuest, nil, http.StatusOK, ""},
		{"RequireGuest ログイン済み", RequireGuest, plain, http.StatusConflict, model.ErrCodeAlreadyAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(ContextWithUser(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if body := decodeErrorBody(t, w); body.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
}

func TestUserFromContext_NilUser(t *testing.T) {
	ctx := ContextWithUser(context.Background(), nil)
	if _, ok := UserFromContext(ctx); ok {
		t.Error("nil user should not be reported as present")
	}
}
