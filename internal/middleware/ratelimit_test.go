package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/clubboard/internal/model"
)

func newTestLimiter(t *testing.T, generalPerMin, authPerMin int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(NewRateLimiterConfig(generalPerMin, authPerMin))
	t.Cleanup(rl.Stop)
	return rl
}

func TestNewRateLimiterConfig_Defaults(t *testing.T) {
	cfg := NewRateLimiterConfig(0, -1)
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.AuthBurst != 10 {
		t.Errorf("AuthBurst = %d, want 10", cfg.AuthBurst)
	}
}

func TestRateLimiter_AuthMiddleware_BlocksAfterBurst(t *testing.T) {
	rl := newTestLimiter(t, 100, 2)
	handler := rl.AuthMiddleware()(okHandler())

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := send("10.0.0.1:5678")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header is missing")
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}

	if w := send("10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", w.Code)
	}
	if n := rl.AuthLimiterCount(); n != 2 {
		t.Errorf("AuthLimiterCount = %d, want 2", n)
	}
}

func TestRateLimiter_GeneralMiddleware_KeysByUser(t *testing.T) {
	rl := newTestLimiter(t, 1, 10)
	handler := rl.GeneralMiddleware()(okHandler())

	send := func(user *model.SafeUser) int {
		req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if user != nil {
			req = req.WithContext(ContextWithUser(req.Context(), user))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	alice := &model.SafeUser{ID: 1}
	bob := &model.SafeUser{ID: 2}

	if code := send(alice); code != http.StatusOK {
		t.Fatalf("alice first = %d, want 200", code)
	}
	if code := send(alice); code != http.StatusTooManyRequests {
		t.Errorf("alice second = %d, want 429", code)
	}
	// 同じIPでも別ユーザーは独立した枠を持つ
	if code := send(bob); code != http.StatusOK {
		t.Errorf("bob = %d, want 200", code)
	}
	if code := send(nil); code != http.StatusOK {
		t.Errorf("guest = %d, want 200", code)
	}
	if n := rl.GeneralLimiterCount(); n != 3 {
		t.Errorf("GeneralLimiterCount = %d, want 3", n)
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := newTestLimiter(t, 10, 10)
	now := time.Now()

	rl.general.allow("ip:stale", now.Add(-time.Hour))
	rl.general.allow("ip:fresh", now)
	rl.auth.allow("stale", now.Add(-time.Hour))

	rl.cleanup(now)

	if n := rl.GeneralLimiterCount(); n != 1 {
		t.Errorf("GeneralLimiterCount = %d, want 1", n)
	}
	if n := rl.AuthLimiterCount(); n != 0 {
		t.Errorf("AuthLimiterCount = %d, want 0", n)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(NewRateLimiterConfig(10, 10))
	rl.Stop()
	rl.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.168.1.1:8080", "192.168.1.1"},
		{"[::1]:8080", "::1"},
		{"no-port", "no-port"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
