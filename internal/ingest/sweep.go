package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/docchat/internal/metrics"
	"github.com/nikhilbhutani/docchat/internal/models"
)

// SweepReport summarises one ReprocessStuck pass. Failures is keyed by
// document id.
type SweepReport struct {
	Total     int               `json:"total"`
	Completed int               `json:"completed"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// ReprocessStuck runs Process for every document currently in processing,
// one at a time. A failing document never stops the sweep. Documents that
// another run is working on, or that vanished meanwhile, are counted as
// skipped.
func (o *Orchestrator) ReprocessStuck(ctx context.Context) (*SweepReport, error) {
	docs, err := o.store.ListByStatus(ctx, models.DocStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("list processing documents: %w", err)
	}
	metrics.SetStuckDocuments(len(docs))

	report := &SweepReport{Total: len(docs)}
	slog.InfoContext(ctx, "reprocess sweep started", "documents", len(docs))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		_, err := o.Process(ctx, doc.ID)
		switch {
		case err == nil:
			report.Completed++
		case errors.Is(err, models.ErrInProgress),
			errors.Is(err, models.ErrStaleRun),
			errors.Is(err, models.ErrNotFound):
			report.Skipped++
		default:
			report.Failed++
			if report.Failures == nil {
				report.Failures = make(map[string]string)
			}
			report.Failures[doc.ID.String()] = err.Error()
		}
	}

	slog.InfoContext(ctx, "reprocess sweep finished",
		"total", report.Total,
		"completed", report.Completed,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}
