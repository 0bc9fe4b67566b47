// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/clubboard/internal/model"
)

// SessionCookieName はセッションCookieの名前。値は署名付きセッションID。
const SessionCookieName = "clubboard_sid"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var userContextKey = contextKey("user")

// Authenticator はCookie値からログイン中のユーザーを解決する。auth.Serviceが実装する。
// 無効なセッションはnil, nilを返す。
type Authenticator interface {
	Authenticate(ctx context.Context, cookieValue string) (*model.SafeUser, error)
}

// NewSessionMiddleware はセッションCookieからユーザーを解決し、コンテキストに注入するミドルウェアを返す。
// 未ログイン・無効なセッションのリクエストはゲストとしてそのまま通す。
// アクセス制御はRequireAuth等のガードで行う。
func NewSessionMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireAuth はログイン済みでないリクエストに401を返すガード。
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMember はメンバーでないリクエストを拒否するガード。
// 未ログインは401、ログイン済みの非メンバーは403を返す。
func RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		if !user.IsMember {
			WriteErrorResponse(w, http.StatusForbidden, model.NewMembershipRequiredError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireGuest はログイン済みのリクエストに409を返すガード。登録・ログイン用。
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			WriteErrorResponse(w, http.StatusConflict, model.NewAlreadyAuthenticatedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext はリクエストコンテキストからログイン中のユーザーを取得する。
func UserFromContext(ctx context.Context) (*model.SafeUser, bool) {
	user, ok := ctx.Value(userContextKey).(*model.SafeUser)
	return user, ok && user != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアでユーザーが解決されたリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (int64, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return 0, fmt.Errorf("user not found in context")
	}
	return user.ID, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.SafeUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
