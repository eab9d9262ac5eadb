package document

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/models"
)

// MemoryStore keeps documents in process memory. It backs dev mode when no
// database is configured, and the package tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*record
	seq  int64
	now  func() time.Time
}

type record struct {
	doc models.Document
	run uuid.UUID
	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[uuid.UUID]*record),
		now:  time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("insert document: duplicate id %s", doc.ID)
	}
	now := s.now()
	doc.CreatedAt, doc.UpdatedAt = now, now
	s.seq++
	s.docs[doc.ID] = &record{doc: cloneDocument(*doc), seq: s.seq}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	d := cloneDocument(r.doc)
	return &d, nil
}

func (s *MemoryStore) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Document, error) {
	docs := s.filter(func(d *models.Document) bool { return d.UserID == userID })
	// newest first; filter already yields insertion order
	for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
		docs[i], docs[j] = docs[j], docs[i]
	}

	if offset >= len(docs) {
		return nil, nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, status string) ([]models.Document, error) {
	docs := s.filter(func(d *models.Document) bool { return d.Status == status })
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	return docs, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) BeginRun(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.docs[id]
	if !ok {
		return uuid.Nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	r.run = uuid.New()
	r.doc.RunID = r.run
	r.doc.Status = models.DocStatusProcessing
	r.doc.LastError = ""
	r.doc.ClearAnalysis()
	r.doc.UpdatedAt = s.now()
	return r.run, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id, run uuid.UUID, status, lastError string) error {
	if !validStatus(status) || status == models.DocStatusCompleted {
		return errInvalidStatus(status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.owned(id, run)
	if err != nil {
		return err
	}
	r.doc.Status = status
	r.doc.LastError = lastError
	r.doc.ClearAnalysis()
	r.doc.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) UpdateAnalysis(_ context.Context, id, run uuid.UUID, u AnalysisUpdate) error {
	if err := u.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.owned(id, run)
	if err != nil {
		return err
	}
	r.doc.Status = u.Status
	r.doc.OriginalText = models.TruncateRunes(u.Text, models.MaxOriginalTextChars)
	r.doc.SimplifiedSummary = u.Summary
	r.doc.KeyPoints = append([]string{}, u.KeyPoints...)
	r.doc.LegalTerms = append([]models.LegalTerm{}, u.LegalTerms...)
	r.doc.Warnings = append([]string{}, u.Warnings...)
	r.doc.LastError = ""
	r.doc.UpdatedAt = s.now()
	return nil
}

// owned must be called with the write lock held.
func (s *MemoryStore) owned(id, run uuid.UUID) (*record, error) {
	r, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if r.run != run {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrStaleRun)
	}
	return r, nil
}

// filter returns matching documents in insertion order.
func (s *MemoryStore) filter(keep func(*models.Document) bool) []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*record
	for _, r := range s.docs {
		if keep(&r.doc) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]models.Document, 0, len(matched))
	for _, r := range matched {
		out = append(out, cloneDocument(r.doc))
	}
	return out
}

func cloneDocument(d models.Document) models.Document {
	if d.KeyPoints != nil {
		d.KeyPoints = append([]string{}, d.KeyPoints...)
	}
	if d.LegalTerms != nil {
		d.LegalTerms = append([]models.LegalTerm{}, d.LegalTerms...)
	}
	if d.Warnings != nil {
		d.Warnings = append([]string{}, d.Warnings...)
	}
	return d
}
