package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionSecret          string
	SessionMaxAge          int
	SessionCleanupInterval time.Duration

	// Cache
	Cache CacheConfig

	// Rate Limit
	RateLimitGeneral int
	RateLimitAuth    int

	// Membership
	UpgradeAnswer string

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// CacheConfig はキャッシュ層の設定を保持する。
// Enabledがfalseの場合、キャッシュは無効（常にミス）として扱われる。
type CacheConfig struct {
	Enabled  bool
	Driver   string // "redis" または "memory"
	URL      string
	Username string
	Password string
	TLS      bool

	// インメモリドライバの最大エントリ数
	MemoryCapacity int

	TTL TTLConfig
}

// TTLConfig はキー空間ごとのキャッシュTTLを保持する。
type TTLConfig struct {
	User           time.Duration
	UserSafe       time.Duration
	UsersSafeAll   time.Duration
	MessagesList   time.Duration
	MessagesByUser time.Duration
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", 24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.UpgradeAnswer = getEnvString("UPGRADE_ANSWER", "object")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "3000")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:3000")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")

	cfg.Cache = CacheConfig{
		Enabled:        getEnvBool("REDIS_ENABLED", false),
		Driver:         strings.ToLower(getEnvString("CACHE_DRIVER", "redis")),
		URL:            getEnvString("REDIS_URL", "redis://localhost:6379"),
		Username:       os.Getenv("REDIS_USERNAME"),
		Password:       os.Getenv("REDIS_PASSWORD"),
		TLS:            getEnvBool("REDIS_TLS", false),
		MemoryCapacity: getEnvInt("MEMORY_CACHE_CAPACITY", 10000),
		TTL: TTLConfig{
			User:           getEnvSeconds("REDIS_TTL_USER", 300),
			UserSafe:       getEnvSeconds("REDIS_TTL_USER_SAFE", 300),
			UsersSafeAll:   getEnvSeconds("REDIS_TTL_USERS_SAFE_ALL", 60),
			MessagesList:   getEnvSeconds("REDIS_TTL_MESSAGES_LIST", 30),
			MessagesByUser: getEnvSeconds("REDIS_TTL_MESSAGES_BY_USER", 30),
		},
	}

	if cfg.Cache.Driver != "redis" && cfg.Cache.Driver != "memory" {
		return nil, fmt.Errorf("unsupported CACHE_DRIVER: %q", cfg.Cache.Driver)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// getEnvBool は "true" / "1" などstrconv.ParseBoolが受け付ける値を真偽値として読み込む。
func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvSeconds は秒数の整数値をtime.Durationとして読み込む。
// 0以下の値はデフォルト値に置き換える。
func getEnvSeconds(key string, defaultSec int) time.Duration {
	sec := getEnvInt(key, defaultSec)
	if sec <= 0 {
		sec = defaultSec
	}
	return time.Duration(sec) * time.Second
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
