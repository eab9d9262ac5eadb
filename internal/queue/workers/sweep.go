package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/docchat/internal/ingest"
)

type Sweeper interface {
	ReprocessStuck(ctx context.Context) (*ingest.SweepReport, error)
}

// SweepWorker runs the reprocess sweep for scheduled or on-demand tasks.
// Per-document failures are recorded on the documents themselves, so only a
// sweep that could not run at all fails the task.
type SweepWorker struct {
	sweeper Sweeper
}

func NewSweepWorker(s Sweeper) *SweepWorker {
	return &SweepWorker{sweeper: s}
}

func (w *SweepWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	report, err := w.sweeper.ReprocessStuck(ctx)
	if err != nil {
		return fmt.Errorf("reprocess sweep: %w", err)
	}

	if rw := t.ResultWriter(); rw != nil {
		data, err := json.Marshal(report)
		if err == nil {
			_, err = rw.Write(data)
		}
		if err != nil {
			slog.WarnContext(ctx, "could not store sweep report", "error", err)
		}
	}
	return nil
}
