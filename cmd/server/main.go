package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/danschewy/townhall/internal/api"
	"github.com/danschewy/townhall/internal/api/middleware"
	"github.com/danschewy/townhall/internal/asr"
	"github.com/danschewy/townhall/internal/clock"
	"github.com/danschewy/townhall/internal/config"
	"github.com/danschewy/townhall/internal/handlers"
	"github.com/danschewy/townhall/internal/pipeline"
	"github.com/danschewy/townhall/internal/rooms"
	"github.com/danschewy/townhall/internal/store"
	"github.com/danschewy/townhall/internal/translate"
	"github.com/danschewy/townhall/internal/tts"
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
	clk := clock.System()

	// Initialize the room store: Redis when configured, in-memory otherwise
	// (single-instance development only).
	var roomStore store.RoomStore
	var limiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL, cfg.RoomTTL, cfg.BacklogLimit)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")

		roomStore = redisStore
		limiter = middleware.NewRateLimiter(redisStore.Client(), logger)
	} else {
		if !cfg.IsDevelopment() {
			logger.Fatal().Msg("REDIS_URL is required outside development")
		}
		logger.Warn().Msg("no REDIS_URL set, using in-memory store")
		roomStore = store.NewMemoryStore(clk, cfg.RoomTTL, cfg.BacklogLimit)
	}

	// Initialize the speech stack: real HTTP clients when URLs are
	// configured, deterministic stubs otherwise so the server runs without
	// the upstream deployment.
	var recognizer asr.Recognizer
	var translator translate.Translator
	var synthesizer tts.Synthesizer
	if cfg.STTURL != "" && cfg.TranslateURL != "" && cfg.TTSURL != "" {
		recognizer = asr.NewClient(cfg.STTURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout)
		translator = translate.NewClient(cfg.TranslateURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout)
		synthesizer = tts.NewClient(cfg.TTSURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout)
	} else {
		if !cfg.IsDevelopment() {
			logger.Fatal().Msg("speech service URLs are required outside development")
		}
		logger.Warn().Msg("speech service URLs not set, using stub speech stack")
		recognizer = &asr.Stub{Text: "stubbed transcription"}
		translator = &translate.Stub{}
		synthesizer = &tts.Stub{}
	}

	roomSvc := rooms.NewService(roomStore, clk)
	pipe := pipeline.New(roomSvc, recognizer, translator, synthesizer, clk, logger, cfg.MinAudioBytes)
	h := handlers.NewHandler(roomSvc, pipe, roomStore, logger)

	router := api.NewRouter(logger, h, limiter, api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxJSONBytes:   cfg.MaxJSONBytes,
		MaxAudioBytes:  cfg.MaxAudioBytes,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // utterances wait on three upstream calls
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting townhall server")

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
