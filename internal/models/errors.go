package models

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrDownload        = errors.New("download failed")
	ErrAnalysisService = errors.New("analysis service failed")
	ErrPersistence     = errors.New("persistence failed")
	ErrStaleRun        = errors.New("document claimed by a newer processing run")
	ErrInProgress      = errors.New("document is already being processed")
)
