package config

import (
	"log/slog"
	"testing"
	"time"
)

// --- LoadConfig ---

func TestLoadConfig(t *testing.T) {
	// Helper sets the minimum required env vars for a valid config
	setRequired := func(t *testing.T) {
		t.Helper()
		t.Setenv("DATABASE_URL", "postgres://localhost/lenslog")
		t.Setenv("REDIS_URL", "redis://localhost:6379")
		t.Setenv("AUTH_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("UNSPLASH_ACCESS_KEY", "unsplash-key")
	}

	t.Run("returns valid config with all required vars", func(t *testing.T) {
		setRequired(t)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.DatabaseURL != "postgres://localhost/lenslog" {
			t.Errorf("DatabaseURL: expected %q, got %q", "postgres://localhost/lenslog", cfg.DatabaseURL)
		}
		if cfg.RedisURL != "redis://localhost:6379" {
			t.Errorf("RedisURL: expected %q, got %q", "redis://localhost:6379", cfg.RedisURL)
		}
		if cfg.UnsplashAccessKey != "unsplash-key" {
			t.Errorf("UnsplashAccessKey: expected %q, got %q", "unsplash-key", cfg.UnsplashAccessKey)
		}
	})

	t.Run("errors when DATABASE_URL is missing", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DATABASE_URL", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing DATABASE_URL, got nil")
		}
	})

	t.Run("errors when AUTH_SECRET is missing", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_SECRET", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing AUTH_SECRET, got nil")
		}
	})

	t.Run("errors when AUTH_SECRET is too short", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_SECRET", "short")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for short AUTH_SECRET, got nil")
		}
	})

	t.Run("errors when UNSPLASH_ACCESS_KEY is missing", func(t *testing.T) {
		setRequired(t)
		t.Setenv("UNSPLASH_ACCESS_KEY", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing UNSPLASH_ACCESS_KEY, got nil")
		}
	})

	t.Run("defaults PORT to 7865", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PORT", "")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Port != "7865" {
			t.Errorf("Port: expected %q, got %q", "7865", cfg.Port)
		}
	})

	t.Run("defaults session TTL to seven days", func(t *testing.T) {
		setRequired(t)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.SessionTTL != 168*time.Hour {
			t.Errorf("SessionTTL: expected 168h, got %v", cfg.SessionTTL)
		}
	})

	t.Run("parses LOG_LEVEL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.LogLevel != slog.LevelDebug {
			t.Errorf("LogLevel: expected debug, got %v", cfg.LogLevel)
		}
	})

	t.Run("ENV=production sets Production", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ENV", "production")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if !cfg.Production {
			t.Error("expected Production to be true")
		}
	})

	t.Run("provider redirect URL defaults under APP_BASE_URL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("APP_BASE_URL", "https://app.example.com/")
		t.Setenv("GITHUB_CLIENT_ID", "gh-id")
		t.Setenv("GITHUB_CLIENT_SECRET", "gh-secret")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		want := "https://app.example.com/auth/github/callback"
		if cfg.GitHub.RedirectURL != want {
			t.Errorf("GitHub.RedirectURL: expected %q, got %q", want, cfg.GitHub.RedirectURL)
		}
	})

	t.Run("errors on client ID without secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("GOOGLE_CLIENT_ID", "g-id")
		t.Setenv("GOOGLE_CLIENT_SECRET", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for GOOGLE_CLIENT_ID without secret, got nil")
		}
	})

	t.Run("unset provider stays unconfigured", func(t *testing.T) {
		setRequired(t)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Facebook.ClientID != "" {
			t.Errorf("Facebook.ClientID: expected empty, got %q", cfg.Facebook.ClientID)
		}
	})
}
