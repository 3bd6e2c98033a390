package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgrieco/lenslog/internal/config"
	"github.com/mgrieco/lenslog/internal/metrics"
	"github.com/mgrieco/lenslog/internal/oauth"
	"github.com/mgrieco/lenslog/internal/store"
	"github.com/mgrieco/lenslog/internal/token"
	"github.com/mgrieco/lenslog/internal/unsplash"
	"github.com/mgrieco/lenslog/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Embeds the migration files INTO the go bin

//go:embed migrations/*.sql
var migrationsDir embed.FS

func main() {
	// Load config first so we can set log level
	cfg, err := config.LoadConfig()
	if err != nil {
		// Fallback logger before config is available
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}

	// Include source location in log entries at debug level only.
	addSrc := cfg.LogLevel == slog.LevelDebug

	// Set up slog to output as json with configured level
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: addSrc,
	})))

	// Cancel ctx on SIGINT/SIGTERM; run() shuts down when ctx is done.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run() is a separate func so deferred closes (ps, rs) always execute before os.Exit.
	if err := run(ctx, cfg, nil); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// run holds all server logic and returns error instead of calling os.Exit,
// so deferred resource cleanup (ps.Close, rs.Close) always runs.
// Shuts down when ctx is cancelled (signal handling is the caller's concern).
// If ready is non-nil, the server's base URL is sent on it once the listener is bound.
func run(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	ps, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to set up postgres store: %w", err)
	}
	defer ps.Close()

	// Run database migrations
	migrationsFS, err := fs.Sub(migrationsDir, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access embedded migrations: %w", err)
	}
	if err := ps.Migrate(ctx, migrationsFS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	rs, err := store.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to set up redis store: %w", err)
	}
	defer rs.Close()

	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		slog.Warn("no oauth providers configured, login is unavailable")
	}

	h := &web.Handler{
		PS:          ps,
		TS:          rs,
		Codec:       token.NewCodec(cfg.AuthSecret, cfg.SessionTTL),
		IS:          unsplash.NewClient(cfg.UnsplashAccessKey),
		MX:          metrics.NewCollector(),
		Providers:   providers,
		SessionTTL:  cfg.SessionTTL,
		Secure:      cfg.Production,
		TopCacheTTL: cfg.TopSearchesCacheTTL,
	}
	rl := web.NewRateLimiter(cfg.TopSearchesRate, cfg.TopSearchesBurst)

	// Bind listener; ":0" picks a free port (useful in tests).
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{Handler: buildRouter(h, rl)}

	// Start server in a goroutine; run() continues past this.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("lenslog listening", "addr", ln.Addr().String())
		// Send error only if server stops for a reason other than explicit shutdown.
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Signal readiness to caller (used by tests; nil in production).
	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	// Wait for server error or shutdown signal from ctx.
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// buildProviders instantiates every provider with credentials in the config.
// Unconfigured providers are skipped; their routes will 404.
func buildProviders(ctx context.Context, cfg *config.Config) (map[string]oauth.Provider, error) {
	providers := make(map[string]oauth.Provider)

	if cfg.Google.ClientID != "" {
		// Google runs OIDC discovery at startup, hence the ctx and error.
		g, err := oauth.NewGoogleProvider(ctx, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
		if err != nil {
			return nil, fmt.Errorf("setting up google provider: %w", err)
		}
		providers[g.Name()] = g
	}
	if cfg.Facebook.ClientID != "" {
		f := oauth.NewFacebookProvider(cfg.Facebook.ClientID, cfg.Facebook.ClientSecret, cfg.Facebook.RedirectURL)
		providers[f.Name()] = f
	}
	if cfg.GitHub.ClientID != "" {
		gh := oauth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.RedirectURL)
		providers[gh.Name()] = gh
	}
	return providers, nil
}

// buildRouter wires all routes and middleware.
// Called from run() and router smoke tests.
func buildRouter(h *web.Handler, rl *web.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.CheckHealth)
	r.Method(http.MethodGet, "/metrics", h.MX.Handler())

	// OAuth round trip + logout. The callback is unauthenticated by nature.
	r.Get("/auth/{provider}", h.OAuthRedirect)
	r.Get("/auth/{provider}/callback", h.OAuthCallback)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)

	// Public aggregate endpoint -- rate limited, it has no session gate.
	r.With(rl.Middleware).Get("/top-searches", h.GetTopSearches)

	// Authentication required routes
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/auth/session", h.Session)
		r.Post("/search", h.Search)
		r.Get("/search", h.SearchPage)
		r.Get("/search/history", h.GetSearchHistory)
		r.Post("/search/selection", h.SaveSelection)
		r.Get("/search/{searchID}", h.GetSearch)
		r.Get("/history", h.GetHistory)
		r.Delete("/history", h.ClearHistory)
	})

	// Browser pages behind the session-aware guard.
	r.Group(func(r chi.Router) {
		r.Use(h.PageGuard)
		r.Get("/login", h.LoginPage)
		r.Get("/dashboard", h.DashboardPage)
		r.Get("/dashboard/*", h.DashboardPage)
	})

	return r
}
