package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/docchat/internal/ingest"
	"github.com/nikhilbhutani/docchat/internal/models"
	"github.com/nikhilbhutani/docchat/internal/queue"
)

// Processor runs the ingestion pipeline for a document.
type Processor interface {
	Process(ctx context.Context, id uuid.UUID) (*ingest.Result, error)
}

type DocumentWorker struct {
	processor Processor
}

func NewDocumentWorker(p Processor) *DocumentWorker {
	return &DocumentWorker{processor: p}
}

func (w *DocumentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	docID, err := queue.ParseDocumentProcess(t)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	res, err := w.processor.Process(ctx, docID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrInProgress),
		errors.Is(err, models.ErrStaleRun):
		// Nothing left for this task to do.
		slog.InfoContext(ctx, "document task skipped", "document_id", docID, "reason", err)
		return nil
	}

	if !res.StatusRecorded {
		slog.ErrorContext(ctx, "document may be stuck in processing", "document_id", docID)
	}
	return fmt.Errorf("process document %s: %w: %w", docID, err, asynq.SkipRetry)
}
