package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/jobsearch/internal/api"
	"github.com/eldtechnologies/jobsearch/internal/api/middleware"
	"github.com/eldtechnologies/jobsearch/internal/chat"
	"github.com/eldtechnologies/jobsearch/internal/config"
	"github.com/eldtechnologies/jobsearch/internal/handlers"
	"github.com/eldtechnologies/jobsearch/internal/realtime"
	"github.com/eldtechnologies/jobsearch/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize logger
	logger := newLogger(cfg, os.Stdout)

	ctx := context.Background()

	// Open the chat store
	dataStore, err := store.Open(ctx, store.Options{
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		DatabaseURL:   cfg.DatabaseURL,
		SQLitePath:    cfg.SQLitePath,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("store initialization failed")
	}
	defer dataStore.Close()

	// Initialize Redis store
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	hub := realtime.NewHub(logger)
	chatService := chat.NewService(dataStore, hub, cfg.StoreTimeout, logger)

	var origins []string
	if !cfg.IsDevelopment() {
		origins = []string{cfg.ClientURL}
	}

	gateway := realtime.NewGateway(hub, chatService, redisStore, realtime.Options{
		SendBuffer:      cfg.WSSendBuffer,
		PingInterval:    cfg.WSPingInterval,
		MaxMessageBytes: cfg.WSMaxMessage,
		AllowedOrigins:  origins,
		MessageLimit:    cfg.SocketMessageLimit,
	}, logger)

	h := handlers.NewHandler(dataStore, redisStore, chatService, hub)

	// Create router
	router := api.NewRouter(logger, h, gateway, redisStore, api.Options{
		AllowedOrigins: origins,
		RateLimit: middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		},
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("backend", dataStore.Backend()).
			Msg("starting jobsearch server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// newLogger writes human readable output in development and JSON otherwise.
func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(out).
		With().
		Timestamp().
		Logger()
}
