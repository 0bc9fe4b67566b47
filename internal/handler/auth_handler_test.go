package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/clubboard/internal/middleware"
	"github.com/hitoshi/clubboard/internal/model"
)

var testCookieConfig = CookieConfig{Domain: "board.example.com", Secure: true, MaxAge: 3600}

func validRegisterBody() map[string]string {
	return map[string]string{
		"username":        "alice_1",
		"firstName":       "Alice",
		"lastName":        "Lastname",
		"password":        "Passw0rdX",
		"confirmPassword": "Passw0rdX",
	}
}

func TestRegister_Success_SetsCookie(t *testing.T) {
	var got model.Registration
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, reg model.Registration) (*model.SafeUser, string, error) {
			got = reg
			return &model.SafeUser{ID: 10, Username: reg.Username}, "sid.sig", nil
		},
	}
	h := NewAuthHandler(svc, passthroughSanitizer{}, testCookieConfig)

	body := validRegisterBody()
	body["username"] = "  alice_1  "
	req := httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, body))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if got.Username != "alice_1" {
		t.Errorf("username = %q, want trimmed alice_1", got.Username)
	}
	if got.Password != "Passw0rdX" {
		t.Errorf("password was not passed through")
	}

	c := findCookie(w.Result().Cookies(), middleware.SessionCookieName)
	if c == nil {
		t.Fatal("session cookie was not set")
	}
	if c.Value != "sid.sig" || !c.HttpOnly || !c.Secure || c.MaxAge != 3600 {
		t.Errorf("unexpected cookie %+v", c)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}

	var user model.SafeUser
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.ID != 10 {
		t.Errorf("user.ID = %d, want 10", user.ID)
	}
}

func TestRegister_ValidationError(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, reg model.Registration) (*model.SafeUser, string, error) {
			t.Fatal("Register should not be called")
			return nil, "", nil
		},
	}
	h := NewAuthHandler(svc, passthroughSanitizer{}, testCookieConfig)

	body := validRegisterBody()
	body["confirmPassword"] = "different1A"
	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, body)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, w)
	if resp.Code != model.ErrCodeValidationFailed {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeValidationFailed)
	}
	if len(resp.Details) == 0 {
		t.Error("details should describe the failed fields")
	}
}

func TestRegister_Duplicate_Returns409(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, reg model.Registration) (*model.SafeUser, string, error) {
			return nil, "", model.ErrDuplicateEntity
		},
	}
	h := NewAuthHandler(svc, passthroughSanitizer{}, testCookieConfig)

	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, validRegisterBody())))

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if resp := decodeError(t, w); resp.Code != model.ErrCodeDuplicateEntity {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeDuplicateEntity)
	}
}

func TestRegister_MalformedJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, passthroughSanitizer{}, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, "not an object"))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		loginErr   error
		wantStatus int
		wantCookie bool
	}{
		{"成功", nil, http.StatusOK, true},
		{"認証失敗", model.NewInvalidCredentialsError(), http.StatusUnauthorized, false},
		{"内部エラー", errors.New("db down"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(ctx context.Context, username, password string) (*model.SafeUser, string, error) {
					if tt.loginErr != nil {
						return nil, "", tt.loginErr
					}
					return &model.SafeUser{ID: 1, Username: username}, "sid.sig", nil
				},
			}
			h := NewAuthHandler(svc, passthroughSanitizer{}, testCookieConfig)

			body := map[string]string{"username": "alice", "password": "whatever"}
			w := httptest.NewRecorder()
			h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(t, body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			hasCookie := findCookie(w.Result().Cookies(), middleware.SessionCookieName) != nil
			if hasCookie != tt.wantCookie {
				t.Errorf("cookie set = %v, want %v", hasCookie, tt.wantCookie)
			}
		})
	}
}

func TestLogin_EmptyPassword_ValidationError(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, passthroughSanitizer{}, testCookieConfig)

	body := map[string]string{"username": "alice", "password": ""}
	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(t, body)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	var gotCookie string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, cookieValue string) error {
			gotCookie = cookieValue
			return errors.New("ignored")
		},
	}
	h := NewAuthHandler(svc, passthroughSanitizer{}, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sid.sig"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if gotCookie != "sid.sig" {
		t.Errorf("Logout cookie = %q, want sid.sig", gotCookie)
	}
	c := findCookie(w.Result().Cookies(), middleware.SessionCookieName)
	if c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie should be cleared, got %+v", c)
	}
}

func TestMe(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, passthroughSanitizer{}, testCookieConfig)

	t.Run("ログイン済み", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Me(w, withUser(httptest.NewRequest(http.MethodGet, "/auth/me", nil), memberUser()))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var user model.SafeUser
		json.NewDecoder(w.Body).Decode(&user)
		if user.Username != "alice" {
			t.Errorf("username = %q, want alice", user.Username)
		}
	})

	t.Run("未ログイン", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestUpgrade(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"成功", nil, http.StatusOK},
		{"回答誤り", model.NewInvalidAnswerError(), http.StatusBadRequest},
		{"既にメンバー", model.NewAlreadyMemberError(), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAnswer string
			svc := &mockAuthService{
				upgradeFn: func(ctx context.Context, userID int64, answer string) (*model.SafeUser, error) {
					gotAnswer = answer
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.SafeUser{ID: userID, IsMember: true}, nil
				},
			}
			h := NewAuthHandler(svc, passthroughSanitizer{}, testCookieConfig)

			req := httptest.NewRequest(http.MethodPost, "/auth/upgrade", jsonBody(t, map[string]string{"answer": "Object"}))
			w := httptest.NewRecorder()
			h.Upgrade(w, withUser(req, guestUser()))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if gotAnswer != "Object" {
				t.Errorf("answer = %q, want Object", gotAnswer)
			}
		})
	}
}
