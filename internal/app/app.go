// Package app wires the document pipeline for the API and worker binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/docchat/internal/analysis"
	"github.com/nikhilbhutani/docchat/internal/cache"
	"github.com/nikhilbhutani/docchat/internal/chat"
	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/database"
	"github.com/nikhilbhutani/docchat/internal/document"
	"github.com/nikhilbhutani/docchat/internal/ingest"
	"github.com/nikhilbhutani/docchat/internal/llm"
	"github.com/nikhilbhutani/docchat/internal/storage"
)

const lockPrefix = "docchat:run:"

// SetupLogger installs the default slog logger described by cfg.
func SetupLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// App holds the components shared by both binaries. DB and Redis are nil
// when the process runs without them.
type App struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Documents document.Store
	Chats     chat.Store
	Storage   storage.Storage
	Gateway   llm.Gateway
	Pipeline  *ingest.Orchestrator
}

// Build connects the backing services and assembles the pipeline. Without
// DATABASE_URL the stores live in memory; without Redis the run lock is
// skipped and concurrent runs are settled by the store's run token alone.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	if cfg.Database.URL != "" {
		db, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.DB = db
		a.Documents = document.NewPostgresStore(db)
		a.Chats = chat.NewPostgresStore(db)
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory stores")
		a.Documents = document.NewMemoryStore()
		a.Chats = chat.NewMemoryStore()
	}

	rdb, err := cache.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, running without run lock", "error", err)
	} else {
		a.Redis = rdb
	}

	objects, err := storage.New(cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.Storage = objects

	gw, err := llm.NewGateway(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init llm gateway: %w", err)
	}
	a.Gateway = gw

	var opts []ingest.Option
	if a.Redis != nil {
		opts = append(opts, ingest.WithLocker(cache.NewLocker(a.Redis, lockPrefix, cfg.Pipeline.LockTTL)))
	}
	a.Pipeline = ingest.NewOrchestrator(
		a.Documents,
		a.Storage,
		document.NewExtractor(cfg.Pipeline),
		analysis.NewRequester(gw, cfg.Pipeline),
		opts...,
	)

	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
