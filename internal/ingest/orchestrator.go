package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/analysis"
	"github.com/nikhilbhutani/docchat/internal/document"
	"github.com/nikhilbhutani/docchat/internal/metrics"
	"github.com/nikhilbhutani/docchat/internal/models"
	"github.com/nikhilbhutani/docchat/internal/storage"
)

// Analyzer produces the analysis for extracted text.
type Analyzer interface {
	Analyze(ctx context.Context, text string, meta analysis.Metadata) (*analysis.Result, error)
}

// TextExtractor turns file bytes into text and never fails.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileType models.FileType, filename string) document.Extraction
}

// Locker is an optional guard against two runs working on one document.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Result reports how a run ended.
//
// StatusRecorded is false when the run failed and the error status could not
// be written either; the document is then left in processing until the
// reprocess sweep picks it up.
type Result struct {
	DocumentID     uuid.UUID
	Status         string
	Analysis       *models.Analysis
	Source         analysis.Source
	Extraction     string
	Placeholder    bool
	StatusRecorded bool
	Err            error
}

type Orchestrator struct {
	store     document.Store
	storage   storage.Storage
	extractor TextExtractor
	analyzer  Analyzer
	locker    Locker
}

type Option func(*Orchestrator)

// WithLocker enables the per-document run lock.
func WithLocker(l Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

func NewOrchestrator(store document.Store, objects storage.Storage, extractor TextExtractor, analyzer Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		storage:   objects,
		extractor: extractor,
		analyzer:  analyzer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs the full pipeline for one document: download, extract,
// analyze and persist. The returned error equals Result.Err.
//
// A missing document or a held run lock aborts before anything is written.
// Any later failure marks the document error on a best-effort basis. When a
// newer run has claimed the document in the meantime this run's writes are
// dropped and models.ErrStaleRun is returned.
func (o *Orchestrator) Process(ctx context.Context, id uuid.UUID) (*Result, error) {
	start := time.Now()
	res, err := o.process(ctx, id)
	res.Err = err

	outcome := res.Status
	switch {
	case errors.Is(err, models.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, models.ErrInProgress):
		outcome = "in_progress"
	case errors.Is(err, models.ErrStaleRun):
		outcome = "stale"
	case err != nil && !res.StatusRecorded:
		outcome = "stuck"
	}
	metrics.ObservePipelineRun(outcome, time.Since(start))

	return res, err
}

func (o *Orchestrator) process(ctx context.Context, id uuid.UUID) (*Result, error) {
	res := &Result{DocumentID: id}

	doc, err := o.store.Get(ctx, id)
	if err != nil {
		return res, err
	}
	res.Status = doc.Status
	res.StatusRecorded = true

	if o.locker != nil {
		release, ok, err := o.locker.TryLock(ctx, id.String())
		switch {
		case err != nil:
			slog.WarnContext(ctx, "run lock unavailable, continuing without it", "document_id", id, "error", err)
		case !ok:
			return res, fmt.Errorf("document %s: %w", id, models.ErrInProgress)
		default:
			defer release()
		}
	}

	run, err := o.store.BeginRun(ctx, id)
	if err != nil {
		return res, fmt.Errorf("begin run: %w", err)
	}
	res.Status = models.DocStatusProcessing

	slog.InfoContext(ctx, "processing document", "document_id", id, "file_type", doc.FileType)

	data, err := o.download(ctx, doc.FilePath)
	if err != nil {
		return o.fail(ctx, res, run, err)
	}

	extraction := o.extractor.Extract(ctx, data, doc.FileType, doc.OriginalFilename)
	res.Extraction = extraction.Method
	res.Placeholder = extraction.Placeholder
	metrics.IncExtraction(extraction.Method)
	if extraction.Placeholder {
		slog.WarnContext(ctx, "no usable text extracted, using placeholder", "document_id", id)
	}

	result, err := o.analyzer.Analyze(ctx, extraction.Text, analysis.Metadata{
		Title:    doc.Title,
		Filename: doc.OriginalFilename,
		FileType: doc.FileType,
	})
	if err != nil {
		return o.fail(ctx, res, run, err)
	}

	err = o.store.UpdateAnalysis(ctx, id, run, document.AnalysisUpdate{
		Status:     models.DocStatusCompleted,
		Text:       extraction.Text,
		Summary:    result.Summary,
		KeyPoints:  result.KeyPoints,
		LegalTerms: result.LegalTerms,
		Warnings:   result.Warnings,
	})
	if err != nil {
		if !errors.Is(err, models.ErrStaleRun) && !errors.Is(err, models.ErrNotFound) {
			err = fmt.Errorf("%w: %w", models.ErrPersistence, err)
		}
		return o.fail(ctx, res, run, err)
	}

	analysisCopy := result.Analysis
	res.Status = models.DocStatusCompleted
	res.Analysis = &analysisCopy
	res.Source = result.Source

	slog.InfoContext(ctx, "document processed",
		"document_id", id,
		"extraction", extraction.Method,
		"analysis_source", result.Source,
	)
	return res, nil
}

func (o *Orchestrator) download(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	data, err := o.storage.Download(ctx, path)
	metrics.CaptureDependency("storage_download", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDownload, err)
	}
	return data, nil
}

// fail records the error status for a run that is still current.
func (o *Orchestrator) fail(ctx context.Context, res *Result, run uuid.UUID, cause error) (*Result, error) {
	if errors.Is(cause, models.ErrStaleRun) || errors.Is(cause, models.ErrNotFound) {
		slog.WarnContext(ctx, "document changed during processing, result dropped", "document_id", res.DocumentID, "error", cause)
		res.StatusRecorded = false
		return res, cause
	}

	slog.ErrorContext(ctx, "document processing failed", "document_id", res.DocumentID, "error", cause)

	// The caller's context may be the reason for the failure.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err := o.store.UpdateStatus(wctx, res.DocumentID, run, models.DocStatusError, cause.Error())
	switch {
	case err == nil:
		res.Status = models.DocStatusError
		res.StatusRecorded = true
	case errors.Is(err, models.ErrStaleRun):
		slog.WarnContext(ctx, "newer run owns document, error status not written", "document_id", res.DocumentID)
		res.StatusRecorded = false
	default:
		slog.ErrorContext(ctx, "could not mark document as error, it may stay in processing",
			"document_id", res.DocumentID, "error", err)
		res.Status = models.DocStatusProcessing
		res.StatusRecorded = false
	}
	return res, cause
}
