package document

import (
	"context"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/models"
)

// Store persists document records.
//
// Writes that end a processing run are conditional on the run token handed
// out by BeginRun. When another run has claimed the document since, they fail
// with models.ErrStaleRun and leave the row untouched.
type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Document, error)
	ListByStatus(ctx context.Context, status string) ([]models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// BeginRun moves the document to processing, clears its analysis and
	// returns a fresh run token.
	BeginRun(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	// UpdateStatus sets a non-completed status. Setting error records
	// lastError and keeps the analysis fields cleared.
	UpdateStatus(ctx context.Context, id, run uuid.UUID, status, lastError string) error
	// UpdateAnalysis writes the status together with the extracted text and
	// the four analysis fields.
	UpdateAnalysis(ctx context.Context, id, run uuid.UUID, u AnalysisUpdate) error
}

type AnalysisUpdate struct {
	Status     string
	Text       string
	Summary    string
	KeyPoints  []string
	LegalTerms []models.LegalTerm
	Warnings   []string
}

func (u AnalysisUpdate) validate() error {
	if u.Status != models.DocStatusCompleted {
		return errInvalidAnalysisStatus(u.Status)
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case models.DocStatusPending, models.DocStatusProcessing, models.DocStatusCompleted, models.DocStatusError:
		return true
	}
	return false
}
