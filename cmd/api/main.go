package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/docchat/internal/api"
	"github.com/nikhilbhutani/docchat/internal/app"
	"github.com/nikhilbhutani/docchat/internal/chat"
	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/document"
	"github.com/nikhilbhutani/docchat/internal/queue"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	app.SetupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Warn("running in development mode", "reason", err)
	}

	ctx := context.Background()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	svc := api.Services{
		DB:       a.DB,
		Redis:    a.Redis,
		Pipeline: a.Pipeline,
		Chat:     chat.NewAssembler(a.Documents, a.Chats, a.Gateway, cfg.Chat),
		Gateway:  a.Gateway,
	}

	// Without Redis there is no queue; uploads stay in processing until an
	// explicit process call or the reprocess sweep.
	var enqueuer document.Enqueuer
	if a.Redis != nil {
		qc := queue.NewClient(cfg.Redis, cfg.Worker.TaskTimeout)
		defer qc.Close()
		enqueuer = qc
		svc.Queue = qc
	} else {
		slog.Warn("task queue disabled, documents must be processed on demand")
	}
	svc.Documents = document.NewService(a.Documents, a.Storage, enqueuer)

	router := api.NewRouter(cfg, svc)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
