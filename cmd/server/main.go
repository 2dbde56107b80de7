package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Eyoab11/kuriftu/internal/api"
	"github.com/Eyoab11/kuriftu/internal/config"
	"github.com/Eyoab11/kuriftu/internal/push"
	"github.com/Eyoab11/kuriftu/internal/session"
	"github.com/Eyoab11/kuriftu/internal/store"
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

	// Initialize the primary store: Postgres when configured, SQLite otherwise
	var dataStore store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		dataStore = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		dataStore = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	}
	defer dataStore.Close()

	// Initialize Redis: sessions, send limits and push fan-out
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Push broker and token store fall back to in-process implementations
	// when Redis is absent (single-instance development mode).
	var broker push.Broker
	var tokens store.TokenStore
	if redisStore != nil {
		broker = redisStore
		tokens = redisStore
	} else {
		broker = push.NewMemoryBroker()
		tokens = store.NewMemoryTokenStore()
		logger.Warn().Msg("redis not configured, using in-process broker and sessions")
	}

	sessions := session.NewManager(dataStore, broker)

	// Drop sessions abandoned without a logout. Their state is persisted;
	// the next authenticated request rebuilds them.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n := sessions.ReapIdle(30 * time.Minute); n > 0 {
				logger.Debug().Int("count", n).Msg("released idle sessions")
			}
		}
	}()

	// Create router
	router := api.NewRouter(cfg, logger, dataStore, tokens, broker, sessions, redisStore)

	// Create server. No WriteTimeout: /chat/events holds long-lived
	// websocket connections.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting feedback server")

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
