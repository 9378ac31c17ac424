package config

import (
	"errors"
	"time"
)

const devJWTSecret = "dev-only-secret"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	JWTSecret          string
	SessionTTL         time.Duration
	SessionCookieName  string
	StaticDir          string
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables. A
// production deployment must supply its own JWT secret; the development
// fallback is rejected outright.
func LoadAPIConfig() (APIConfig, error) {
	cfg := APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":4000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://freelanceflow:freelanceflow@db:5432/freelanceflow?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:          GetString("JWT_SECRET", devJWTSecret),
		SessionTTL:         time.Duration(GetInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
		SessionCookieName:  GetString("SESSION_COOKIE_NAME", "auth_token"),
		StaticDir:          GetString("STATIC_DIR", "web/dist"),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
	if cfg.Production() && cfg.JWTSecret == devJWTSecret {
		return APIConfig{}, errors.New("JWT_SECRET must be set in production")
	}
	if cfg.SessionTTL <= 0 {
		return APIConfig{}, errors.New("SESSION_TTL_SECONDS must be positive")
	}
	return cfg, nil
}

// Production reports whether the service runs with production hardening.
func (c APIConfig) Production() bool {
	return c.Environment == "production"
}

// CookieSecure reports whether session cookies must carry the Secure flag.
func (c APIConfig) CookieSecure() bool {
	return c.Production()
}
