package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkierin/second-brain-web-interface/internal/api"
	"github.com/mkierin/second-brain-web-interface/internal/api/middleware"
	"github.com/mkierin/second-brain-web-interface/internal/auth"
	"github.com/mkierin/second-brain-web-interface/internal/config"
	"github.com/mkierin/second-brain-web-interface/internal/dispatch"
	"github.com/mkierin/second-brain-web-interface/internal/handlers"
	"github.com/mkierin/second-brain-web-interface/internal/routing"
	"github.com/mkierin/second-brain-web-interface/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize user store: PostgreSQL when configured, SQLite otherwise
	var users store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		users = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		users = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite user store")
	}
	defer users.Close()

	// Initialize Redis store (ledger, response channels, task queue)
	redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL, store.RedisOptions{
		TaskQueue:   cfg.TaskQueue,
		LedgerTTL:   cfg.LedgerTTL,
		ResponseTTL: cfg.ResponseTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisStore.Close()
	logger.Info().Str("queue", cfg.TaskQueue).Msg("connected to Redis")

	// Seed the initial user so the web client can log in on a fresh install
	seedAdmin(ctx, users, logger, cfg.AdminUsername, cfg.AdminPassword)

	// Wire dispatch
	classifier := routing.NewKeywordClassifier(cfg.DefaultAgent)
	engine := dispatch.NewEngine(redisStore, classifier, logger, dispatch.Options{
		ContextSize:  cfg.ContextSize,
		DefaultAgent: cfg.DefaultAgent,
	})

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.NewHandler(users, redisStore, engine, tokens, logger, cfg.StreamInterval)
	authmw := middleware.NewAuthMiddleware(users, tokens)

	// Create router
	router := api.NewRouter(logger, h, authmw, redisStore.Client())

	// Create server. WriteTimeout stays zero because the SSE endpoint holds
	// connections open indefinitely.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("default_agent", cfg.DefaultAgent).
			Msg("starting server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// seedAdmin creates the configured admin user if it does not exist yet.
// Skipped silently when no password is configured.
func seedAdmin(ctx context.Context, users store.DataStore, logger zerolog.Logger, username, password string) {
	if username == "" || password == "" {
		return
	}

	existing, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		logger.Fatal().Err(err).Msg("admin lookup failed")
	}
	if existing != nil {
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.Fatal().Err(err).Msg("admin password hash failed")
	}
	if _, err := users.CreateUser(ctx, username, hash); err != nil {
		logger.Fatal().Err(err).Msg("admin user creation failed")
	}

	logger.Info().Str("username", username).Msg("seeded initial user")
}
