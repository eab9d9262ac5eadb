package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/docchat/internal/config"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type Client struct {
	client  enqueuer
	timeout time.Duration
}

// RedisOpt converts the Redis settings into asynq connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig, taskTimeout time.Duration) *Client {
	return &Client{
		client:  asynq.NewClient(RedisOpt(cfg)),
		timeout: taskTimeout,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueProcess schedules one pipeline run. Runs are never retried by the
// queue; a document left in processing is picked up by the reprocess sweep.
func (c *Client) EnqueueProcess(ctx context.Context, id uuid.UUID) error {
	task, err := NewDocumentProcessTask(id)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.MaxRetry(0), asynq.Timeout(c.timeout))
}

// EnqueueSweep schedules a reprocess sweep over all processing documents.
// The sweep report is kept as the task result for a day.
func (c *Client) EnqueueSweep(ctx context.Context) error {
	return c.enqueue(ctx, NewReprocessSweepTask(), SweepOptions()...)
}

// SweepOptions are shared with the periodic scheduler.
func SweepOptions() []asynq.Option {
	return []asynq.Option{asynq.MaxRetry(0), asynq.Retention(24 * time.Hour)}
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	slog.DebugContext(ctx, "task enqueued", "type", task.Type(), "task_id", info.ID, "queue", info.Queue)
	return nil
}
