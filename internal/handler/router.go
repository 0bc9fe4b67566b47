package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/clubboard/internal/middleware"
	"github.com/hitoshi/clubboard/internal/security"
)

// RouterUserService はルーターに渡すユーザーサービス。user.Serviceが実装する。
type RouterUserService interface {
	UserServiceInterface
	AccountUserService
}

// RouterMessageService はルーターに渡すメッセージサービス。message.Serviceが実装する。
type RouterMessageService interface {
	MessageServiceInterface
	UserMessageLister
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	HSTS              bool
	CSRF              middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	HTTPMetrics       middleware.HTTPRecorder

	// 運用エンドポイント
	DB             Pinger
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	Passwords   CredentialService
	Cookie      CookieConfig

	// ユーザー・メッセージ
	UserService    RouterUserService
	MessageService RouterMessageService

	Sanitizer security.TextSanitizer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → SecurityHeaders → CORS
//	  → Session → Logging → Metrics → RateLimit(General) → CSRF
//
// /health と /metrics はセッション以降のチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	if deps.CORSAllowedOrigin != "" {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Sanitizer, deps.Cookie)
	messageHandler := NewMessageHandler(deps.MessageService, deps.Sanitizer)
	userHandler := NewUserHandler(deps.UserService, deps.MessageService)
	settingsHandler := NewSettingsHandler(deps.UserService, deps.MessageService, deps.Passwords, deps.Sanitizer, deps.Cookie)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- API ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Authenticator))
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		if deps.HTTPMetrics != nil {
			r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
		}
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

		// 認証
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.AuthMiddleware())
				r.Use(middleware.RequireGuest)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.Post("/logout", authHandler.Logout)
			r.With(middleware.RequireAuth).Get("/me", authHandler.Me)
			r.With(middleware.RequireAuth).Post("/upgrade", authHandler.Upgrade)
		})

		// メッセージ
		r.Route("/api/messages", func(r chi.Router) {
			// 一覧はゲストにも公開し、著者名のみ伏せる
			r.Get("/", messageHandler.ListMessages)
			r.With(middleware.RequireMember).Post("/", messageHandler.CreateMessage)

			r.Route("/{id}", func(r chi.Router) {
				r.With(middleware.RequireMember).Get("/", messageHandler.GetMessage)
				r.With(middleware.RequireAuth).Delete("/", messageHandler.DeleteMessage)
			})
		})

		// ユーザー（メンバー専用）
		r.Route("/api/users", func(r chi.Router) {
			r.Use(middleware.RequireMember)
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
		})

		// アカウント・設定
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/api/account", settingsHandler.Account)
			r.Route("/api/settings", func(r chi.Router) {
				r.Put("/profile", settingsHandler.UpdateProfile)
				r.Put("/password", settingsHandler.ChangePassword)
				r.Delete("/account", settingsHandler.DeleteAccount)
			})
		})
	})

	return r
}
