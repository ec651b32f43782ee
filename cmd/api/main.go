package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatwidgets/internal/config"
	"chatwidgets/internal/handlers"
	"chatwidgets/internal/http"
	"chatwidgets/internal/service"
	"chatwidgets/internal/storage"
	"chatwidgets/internal/tokens"
	"chatwidgets/internal/widget"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API issues feedback tokens, serves the embedded feedback page and
// renders the user-defined widgets of chat messages.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Chat Widgets API
//   description: |
//     Backend for custom chat message rendering. Assistant messages may carry a
//     user-defined block; the feedback widget embeds a same-origin page
//     authorized by a short-lived token issued here.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	feedbackRepo := storage.NewFeedbackRepo(db)

	// Token issuer doubles as the in-process token source for server rendering
	issuer, err := tokens.NewIssuer(cfg.TokenSecret, cfg.TokenTTL, cfg.TokenIssuer)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	healthChecks := map[string]handlers.HealthCheck{
		"database": db.PingContext,
	}

	var guard service.ReplayGuard
	if cfg.RedisURL != "" {
		redisGuard, err := tokens.NewRedisGuard(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect replay guard: %v", err)
		}
		defer func() {
			_ = redisGuard.Close()
		}()
		guard = redisGuard
		healthChecks["replay_guard"] = redisGuard.Ping
		slog.Info("Replay guard using redis")
	} else {
		guard = tokens.NewMemoryGuard()
		slog.Warn("REDIS_URL not set; replay guard is per-process")
	}

	feedbackService := service.NewFeedbackService(issuer, guard, feedbackRepo)
	renderService := service.NewRenderService(
		widget.NewDispatcher(),
		widget.NewRenderer(issuer, cfg.RenderTimeout),
	)

	// Create router with dependencies
	deps := &http.Deps{
		FeedbackService: feedbackService,
		RenderService:   renderService,
		TokenIssuer:     issuer,
		TokenValidator:  issuer,
		HealthChecks:    healthChecks,
		AdminAPIKey:     cfg.AdminAPIKey,
	}
	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set; feedback listing is disabled")
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr, "token_ttl", cfg.TokenTTL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
