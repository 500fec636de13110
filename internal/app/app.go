package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/config"
	"pet-adoption-portal/internal/database"
	"pet-adoption-portal/internal/event"
	"pet-adoption-portal/internal/handler"
	"pet-adoption-portal/internal/logger"
	"pet-adoption-portal/internal/middleware"
	"pet-adoption-portal/internal/repository"
	"pet-adoption-portal/internal/router"
	"pet-adoption-portal/internal/service"
	"pet-adoption-portal/internal/session"
)

const cleanupInterval = 10 * time.Minute

// tokenBackend is a session token store that can also expire idle sessions.
type tokenBackend interface {
	session.Backend
	CleanIdle(ctx context.Context, idle time.Duration) (int64, error)
}

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	var cleanupFuncs []func()
	var backend tokenBackend
	var ping func(ctx context.Context) error
	if cfg.DatabaseURL != "" {
		slog.Info("connecting to PostgreSQL")
		db, err := database.Open(context.Background(), database.PoolConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		backend = repository.NewTokenRepository(db.Pool)
		ping = db.Ping
		cleanupFuncs = append(cleanupFuncs, db.Close)
		slog.Info("session tokens stored in PostgreSQL")
	} else {
		backend = repository.NewMemoryTokenRepository()
		slog.Warn("DATABASE_URL not set; session tokens are kept in memory")
	}

	client, err := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout})
	if err != nil {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
		return nil, fmt.Errorf("failed to initialize api client: %w", err)
	}

	views, err := handler.NewRenderer()
	if err != nil {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	bus := event.NewBus()
	gate := service.NewAuthGate(cfg.RedirectDelay)
	workflows := service.NewWorkflowRegistry(service.WithEvents(bus))
	authService := service.NewAuthService(client)
	sessionMiddleware := middleware.NewSessionMiddleware(backend, cfg.SessionCookieName, cfg.SessionCookieSecure, cfg.SessionIdleTTL)

	appRouter := router.New(cfg, sessionMiddleware, views,
		handler.NewHealthHandler(ping),
		handler.NewHomeHandler(client, views),
		handler.NewAuthHandler(authService, workflows, views),
		handler.NewProfileHandler(gate, client, workflows, views),
		handler.NewAdminHandler(gate, client, workflows, views),
		handler.NewAnimalsHandler(client),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go startCleanupTicker(cleanupCtx, backend, workflows, cfg.SessionIdleTTL)
	go event.RunAuditLog(cleanupCtx, bus, slog.Default().With("component", "audit"))
	cleanupFuncs = append([]func(){cleanupCancel}, cleanupFuncs...)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

func startCleanupTicker(ctx context.Context, backend tokenBackend, workflows *service.WorkflowRegistry, idle time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := backend.CleanIdle(ctx, idle)
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
			}
			pruned := workflows.Prune(idle)
			if removed > 0 || pruned > 0 {
				slog.Info("idle sessions cleaned", "token_entries", removed, "workflows", pruned)
			}
		}
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
