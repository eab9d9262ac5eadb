package document

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/models"
	"github.com/nikhilbhutani/docchat/internal/storage"
)

// Enqueuer schedules a document for background processing.
type Enqueuer interface {
	EnqueueProcess(ctx context.Context, documentID uuid.UUID) error
}

type Service struct {
	store    Store
	storage  storage.Storage
	enqueuer Enqueuer
}

func NewService(store Store, objects storage.Storage, enqueuer Enqueuer) *Service {
	return &Service{
		store:    store,
		storage:  objects,
		enqueuer: enqueuer,
	}
}

type UploadRequest struct {
	UserID      uuid.UUID
	Title       string
	Filename    string
	ContentType string
	Data        []byte
}

// Upload stores the file, records the document as processing and queues the
// analysis run. A failed enqueue is logged only; the reprocess sweep picks the
// document up later.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	filename := cleanFilename(req.Filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: filename required", models.ErrInvalidInput)
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", models.ErrInvalidInput)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSuffix(filename, path.Ext(filename))
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	docID := uuid.New()
	key := fmt.Sprintf("%s/%s/%s", req.UserID, docID, filename)

	filePath, err := s.storage.Upload(ctx, key, req.Data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &models.Document{
		ID:               docID,
		UserID:           req.UserID,
		Title:            title,
		OriginalFilename: filename,
		FileType:         models.DetectFileType(filename, req.ContentType),
		FileSize:         int64(len(req.Data)),
		FilePath:         filePath,
		Status:           models.DocStatusProcessing,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		if rmErr := s.storage.Remove(ctx, []string{filePath}); rmErr != nil {
			slog.WarnContext(ctx, "remove orphaned upload", "path", filePath, "error", rmErr)
		}
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueProcess(ctx, doc.ID); err != nil {
			slog.ErrorContext(ctx, "enqueue document processing", "document_id", doc.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "document uploaded", "document_id", doc.ID, "file_type", doc.FileType, "size", doc.FileSize)
	return doc, nil
}

// Get returns the document if it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, userID, limit, offset)
}

// Delete removes the stored file and the record; chat rows go with it.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if doc.FilePath != "" {
		if err := s.storage.Remove(ctx, []string{doc.FilePath}); err != nil {
			slog.WarnContext(ctx, "remove stored file", "document_id", id, "error", err)
		}
	}

	return s.store.Delete(ctx, id)
}

// cleanFilename keeps only the base name so it is safe inside a storage key.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
