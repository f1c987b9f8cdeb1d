// Chatbot - Scripted Conversation Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/moyam/chatbot/internal/api"
	"github.com/moyam/chatbot/internal/catalog"
	"github.com/moyam/chatbot/internal/chat"
	"github.com/moyam/chatbot/internal/config"
	"github.com/moyam/chatbot/internal/engine"
	"github.com/moyam/chatbot/internal/middleware"
	"github.com/moyam/chatbot/internal/notify"
	"github.com/moyam/chatbot/internal/session"
	"github.com/moyam/chatbot/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	cat, err := catalog.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize scenario catalog", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := cat.Close(); closeErr != nil {
			slog.Error("Failed to close scenario catalog", "error", closeErr)
		}
	}()

	if err := cat.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := cat.Seed(context.Background()); err != nil {
		slog.Error("Failed to seed scenario catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Scenario catalog ready")

	// Initialize services.
	store := session.NewMemory()
	eng := engine.New(cat)
	mgr := chat.NewManager()

	transcripts, err := notify.NewTranscriptWriter(notify.TranscriptConfig{
		Enabled:   cfg.Transcript.Enabled,
		Dir:       cfg.Transcript.Dir,
		QueueSize: cfg.Transcript.QueueSize,
	})
	if err != nil {
		slog.Error("Failed to initialize transcript writer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcripts.Close(); closeErr != nil {
			slog.Error("Failed to close transcript writer", "error", closeErr)
		}
	}()

	// Initialize handlers.
	baseHandler := api.NewHandler(cat)
	gateway := chat.NewGateway(store, eng, mgr, transcripts, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	// API routes.
	r.Get("/api/scenarios", baseHandler.ListScenarios)

	// WebSocket endpoint.
	r.Get("/ws/chat", gateway.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server. WebSocket connections are long-lived, so no write
	// timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start TTL worker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartTTLWorker(ctx, store, cfg.SessionTTL, mgr.CloseSession)
	slog.Info("TTL worker started", "session_ttl", cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
