package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/docchat/internal/models"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const documentColumns = `id, user_id, title, original_filename, file_type, file_size, file_path,
	processing_status, COALESCE(original_text, ''), COALESCE(simplified_summary, ''),
	key_points, legal_terms, warnings, COALESCE(last_error, ''), run_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO documents (id, user_id, title, original_filename, file_type, file_size, file_path, processing_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		doc.ID, doc.UserID, doc.Title, doc.OriginalFilename, string(doc.FileType), doc.FileSize, doc.FilePath, doc.Status,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	row := s.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Document, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collectDocuments(rows)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status string) ([]models.Document, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE processing_status = $1 ORDER BY created_at ASC`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents by status: %w", err)
	}
	return collectDocuments(rows)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) BeginRun(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	run := uuid.New()
	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET processing_status = $2, run_id = $3,
		   simplified_summary = NULL, key_points = NULL, legal_terms = NULL, warnings = NULL,
		   last_error = NULL, updated_at = now()
		 WHERE id = $1`,
		id, models.DocStatusProcessing, run,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return run, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id, run uuid.UUID, status, lastError string) error {
	if !validStatus(status) || status == models.DocStatusCompleted {
		return errInvalidStatus(status)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET processing_status = $3, last_error = NULLIF($4, ''),
		   simplified_summary = NULL, key_points = NULL, legal_terms = NULL, warnings = NULL,
		   updated_at = now()
		 WHERE id = $1 AND run_id = $2`,
		id, run, status, lastError,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missedWrite(ctx, id)
	}
	return nil
}

func (s *PostgresStore) UpdateAnalysis(ctx context.Context, id, run uuid.UUID, u AnalysisUpdate) error {
	if err := u.validate(); err != nil {
		return err
	}

	keyPoints, err := json.Marshal(nonNil(u.KeyPoints))
	if err != nil {
		return fmt.Errorf("marshal key points: %w", err)
	}
	legalTerms, err := json.Marshal(nonNilTerms(u.LegalTerms))
	if err != nil {
		return fmt.Errorf("marshal legal terms: %w", err)
	}
	warnings, err := json.Marshal(nonNil(u.Warnings))
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET processing_status = $3, original_text = $4, simplified_summary = $5,
		   key_points = $6, legal_terms = $7, warnings = $8, last_error = NULL, updated_at = now()
		 WHERE id = $1 AND run_id = $2`,
		id, run, u.Status, models.TruncateRunes(u.Text, models.MaxOriginalTextChars), u.Summary,
		keyPoints, legalTerms, warnings,
	)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missedWrite(ctx, id)
	}
	return nil
}

// missedWrite explains a conditional update that matched no row.
func (s *PostgresStore) missedWrite(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("check document: %w", err)
	}
	if !exists {
		return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("document %s: %w", id, models.ErrStaleRun)
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var (
		d                               models.Document
		fileType                        string
		keyPoints, legalTerms, warnings []byte
		run                             *uuid.UUID
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.OriginalFilename, &fileType, &d.FileSize, &d.FilePath,
		&d.Status, &d.OriginalText, &d.SimplifiedSummary, &keyPoints, &legalTerms, &warnings,
		&d.LastError, &run, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.FileType = models.ParseFileType(fileType)
	if run != nil {
		d.RunID = *run
	}

	if err := unmarshalJSONB(keyPoints, &d.KeyPoints); err != nil {
		return nil, fmt.Errorf("decode key_points: %w", err)
	}
	if err := unmarshalJSONB(legalTerms, &d.LegalTerms); err != nil {
		return nil, fmt.Errorf("decode legal_terms: %w", err)
	}
	if err := unmarshalJSONB(warnings, &d.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	return &d, nil
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilTerms(s []models.LegalTerm) []models.LegalTerm {
	if s == nil {
		return []models.LegalTerm{}
	}
	return s
}
