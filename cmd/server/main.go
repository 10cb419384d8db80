package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dermaview-backend/internal/config"
	"dermaview-backend/internal/database"
	"dermaview-backend/internal/handlers"
	"dermaview-backend/internal/logging"
	"dermaview-backend/internal/middleware"
	"dermaview-backend/internal/router"
	"dermaview-backend/internal/services"
	"dermaview-backend/internal/telemetry"
	"dermaview-backend/internal/websocket"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("✗ DermaView backend stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	if _, err := logging.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogFile); err != nil {
		slog.Warn("log file unavailable, logging to stdout", "error", err)
	}
	slog.Info("🚀 Starting DermaView backend", "env", cfg.Env, "version", version)

	// ──── Step 2: Telemetry ────
	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(context.Background(), "dermaview-backend", version, cfg.TelemetryDir)
		if err != nil {
			return fmt.Errorf("telemetry initialization failed: %w", err)
		}
		defer shutdown()
		slog.Info("✓ Telemetry exporting", "dir", cfg.TelemetryDir)
	}

	// ──── Step 3: Initialize Gemini Client ────
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY is not set, chat requests will answer with an inline error")
	}
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, float32(cfg.GeminiTemperature))
	if err != nil {
		return fmt.Errorf("gemini client initialization failed: %w", err)
	}
	defer geminiService.Close()
	slog.Info("✓ Gemini client initialized", "model", cfg.GeminiModel)

	// ──── Step 4: Initialize Services ────
	chatService := services.NewChatService(geminiService, cfg.ChatTimeout)
	speechService := services.NewSpeechService(services.SpeechConfig{
		APIKey:       cfg.TTSAPIKey,
		BaseURL:      cfg.TTSBaseURL,
		VoiceID:      cfg.TTSVoiceID,
		ModelID:      cfg.TTSModelID,
		OutputFormat: cfg.TTSOutputFormat,
		Speed:        cfg.TTSSpeed,
		Timeout:      cfg.TTSTimeout,
	}, nil)
	if !speechService.Configured() {
		slog.Warn("ELEVENLABS_API_KEY is not set, /api/tts will answer 500")
	}

	// ──── Step 5: Middleware ────
	var jwtAuth *middleware.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth = middleware.NewJWTAuth(cfg.JWTSecret)
		slog.Info("✓ Bearer auth enabled")
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		if cfg.RedisURL != "" {
			redisClient, err := database.NewRedisClient(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("redis connection failed: %w", err)
			}
			defer redisClient.Close()
			limiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
			slog.Info("✓ Redis rate limiting", "per_minute", cfg.RateLimitPerMinute)
		} else {
			limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
			slog.Info("✓ In-memory rate limiting", "per_minute", cfg.RateLimitPerMinute)
		}
	}

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		handlers.NewChatHandler(chatService),
		handlers.NewTTSHandler(speechService),
		websocket.NewChatStream(chatService, cfg.FrontendURL),
		jwtAuth,
		limiter,
		cfg.FrontendURL,
	)

	writeTimeout := cfg.ChatTimeout
	if cfg.TTSTimeout > writeTimeout {
		writeTimeout = cfg.TTSTimeout
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	slog.Info("✓ DermaView backend ready", "addr", "http://localhost:"+cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	<-done
	return nil
}
