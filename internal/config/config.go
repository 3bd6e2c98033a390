// config.go

// Environment variable loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// OAuthProviderConfig holds the credentials for a single OAuth provider.
// A provider with an empty ClientID is treated as not configured and its
// routes respond 404.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Config holds all env configuration vars for lenslog.
type Config struct {
	DatabaseURL string
	RedisURL    string
	Port        string
	LogLevel    slog.Level

	// AuthSecret signs session tokens. Required; no insecure default.
	AuthSecret string

	// AppBaseURL is the externally visible origin, used to build provider
	// redirect URLs and post-login redirects. Defaults to http://localhost:7865.
	AppBaseURL string

	// Production controls the Secure attribute on the session cookie.
	// Set ENV=production in deployed environments.
	Production bool

	// SessionTTL is the session token lifetime. Default 168h (7 days).
	SessionTTL time.Duration

	// UnsplashAccessKey authenticates against the Unsplash search API.
	UnsplashAccessKey string

	// OAuth provider credentials. Redirect URL defaults to
	// {AppBaseURL}/auth/{provider}/callback when unset.
	Google   OAuthProviderConfig
	Facebook OAuthProviderConfig
	GitHub   OAuthProviderConfig

	// TopSearchesCacheTTL bounds staleness of the public top-searches
	// endpoint served from Redis. Default 30s.
	TopSearchesCacheTTL time.Duration

	// Rate limit for the unauthenticated top-searches endpoint, requests
	// per second per client IP with a small burst. Defaults: 5 rps, burst 10.
	TopSearchesRate  float64
	TopSearchesBurst int
}

// LoadConfig reads environment variables and returns a validated Config.
// Returns an error if required variables (DATABASE_URL, REDIS_URL,
// AUTH_SECRET, UNSPLASH_ACCESS_KEY) are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	cfg.AuthSecret = os.Getenv("AUTH_SECRET")
	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required")
	}
	// 32 bytes of entropy minimum -- a short HMAC key makes every session forgeable.
	if len(cfg.AuthSecret) < 32 {
		return nil, fmt.Errorf("AUTH_SECRET must be at least 32 characters")
	}

	cfg.UnsplashAccessKey = os.Getenv("UNSPLASH_ACCESS_KEY")
	if cfg.UnsplashAccessKey == "" {
		return nil, fmt.Errorf("UNSPLASH_ACCESS_KEY is required")
	}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "7865"
	}

	cfg.AppBaseURL = strings.TrimSuffix(os.Getenv("APP_BASE_URL"), "/")
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:" + cfg.Port
	}

	cfg.Production = os.Getenv("ENV") == "production"

	// Parse log level, default to info
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	cfg.SessionTTL = envDuration("SESSION_TTL", 168*time.Hour)

	cfg.Google = loadProvider("GOOGLE", cfg.AppBaseURL+"/auth/google/callback")
	cfg.Facebook = loadProvider("FACEBOOK", cfg.AppBaseURL+"/auth/facebook/callback")
	cfg.GitHub = loadProvider("GITHUB", cfg.AppBaseURL+"/auth/github/callback")

	// A provider with an ID but no secret is a misconfiguration, not a
	// disabled provider -- fail loudly instead of 404ing at login time.
	for name, p := range map[string]OAuthProviderConfig{
		"GOOGLE": cfg.Google, "FACEBOOK": cfg.Facebook, "GITHUB": cfg.GitHub,
	} {
		if p.ClientID != "" && p.ClientSecret == "" {
			return nil, fmt.Errorf("%s_CLIENT_SECRET is required when %s_CLIENT_ID is set", name, name)
		}
	}

	cfg.TopSearchesCacheTTL = envDuration("TOP_SEARCHES_CACHE_TTL", 30*time.Second)
	cfg.TopSearchesRate = float64(envInt("TOP_SEARCHES_RATE", 5))
	cfg.TopSearchesBurst = envInt("TOP_SEARCHES_BURST", 10)

	return cfg, nil
}

// loadProvider reads {PREFIX}_CLIENT_ID / {PREFIX}_CLIENT_SECRET / {PREFIX}_REDIRECT_URL.
// Redirect URL falls back to the default callback path under APP_BASE_URL.
func loadProvider(prefix, defaultRedirect string) OAuthProviderConfig {
	p := OAuthProviderConfig{
		ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		RedirectURL:  os.Getenv(prefix + "_REDIRECT_URL"),
	}
	if p.RedirectURL == "" {
		p.RedirectURL = defaultRedirect
	}
	return p
}

// envInt reads an env var as int, returning def if missing or unparseable.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// envDuration reads an env var as time.Duration, returning def if missing or unparseable.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
