package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/docchat/internal/app"
	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/queue"
	"github.com/nikhilbhutani/docchat/internal/queue/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	app.SetupLogger(cfg.Log)

	if cfg.Database.URL == "" {
		slog.Warn("DATABASE_URL not set; the worker will not see documents stored by the API")
	}

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	redisOpt := queue.RedisOpt(cfg.Redis)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	documentWorker := workers.NewDocumentWorker(a.Pipeline)
	sweepWorker := workers.NewSweepWorker(a.Pipeline)

	registry.Register(queue.TypeDocumentProcess, asynq.HandlerFunc(documentWorker.ProcessTask))
	registry.Register(queue.TypeReprocessSweep, asynq.HandlerFunc(sweepWorker.ProcessTask))

	var scheduler *asynq.Scheduler
	if cfg.Worker.SweepSchedule != "" {
		scheduler = asynq.NewScheduler(redisOpt, nil)
		entryID, err := scheduler.Register(cfg.Worker.SweepSchedule, queue.NewReprocessSweepTask(), queue.SweepOptions()...)
		if err != nil {
			slog.Error("invalid sweep schedule", "schedule", cfg.Worker.SweepSchedule, "error", err)
			os.Exit(1)
		}
		if err := scheduler.Start(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
		slog.Info("reprocess sweep scheduled", "schedule", cfg.Worker.SweepSchedule, "entry_id", entryID)
	}

	slog.Info("starting worker", "concurrency", cfg.Worker.Concurrency)
	if err := srv.Start(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	if scheduler != nil {
		scheduler.Shutdown()
	}
	srv.Shutdown()
	slog.Info("worker stopped")
}
