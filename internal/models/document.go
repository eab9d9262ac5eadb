package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeDOCX  FileType = "docx"
	FileTypeTXT   FileType = "txt"
	FileTypeOther FileType = "other"
)

// ParseFileType maps an extension, a bare type name or a MIME type onto a FileType.
func ParseFileType(s string) FileType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf", ".pdf", "application/pdf":
		return FileTypePDF
	case "docx", ".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FileTypeDOCX
	case "txt", ".txt", "text/plain":
		return FileTypeTXT
	default:
		return FileTypeOther
	}
}

// DetectFileType prefers the filename extension and falls back to the declared content type.
func DetectFileType(filename, contentType string) FileType {
	if ft := ParseFileType(filepath.Ext(filename)); ft != FileTypeOther {
		return ft
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return ParseFileType(contentType)
}

const (
	DocStatusPending    = "pending"
	DocStatusProcessing = "processing"
	DocStatusCompleted  = "completed"
	DocStatusError      = "error"
)

// MaxOriginalTextChars caps the stored original_text column.
const MaxOriginalTextChars = 10000

type LegalTerm struct {
	Term        string `json:"term"`
	Explanation string `json:"explanation"`
}

// Analysis holds the four derived fields produced from a document's text.
type Analysis struct {
	Summary    string      `json:"summary"`
	KeyPoints  []string    `json:"keyPoints"`
	LegalTerms []LegalTerm `json:"legalTerms"`
	Warnings   []string    `json:"warnings"`
}

type Document struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	UserID            uuid.UUID   `json:"user_id" db:"user_id"`
	Title             string      `json:"title" db:"title"`
	OriginalFilename  string      `json:"original_filename" db:"original_filename"`
	FileType          FileType    `json:"file_type" db:"file_type"`
	FileSize          int64       `json:"file_size" db:"file_size"`
	FilePath          string      `json:"file_path" db:"file_path"`
	Status            string      `json:"processing_status" db:"processing_status"`
	OriginalText      string      `json:"original_text,omitempty" db:"original_text"`
	SimplifiedSummary string      `json:"simplified_summary,omitempty" db:"simplified_summary"`
	KeyPoints         []string    `json:"key_points,omitempty" db:"key_points"`
	LegalTerms        []LegalTerm `json:"legal_terms,omitempty" db:"legal_terms"`
	Warnings          []string    `json:"warnings,omitempty" db:"warnings"`
	LastError         string      `json:"last_error,omitempty" db:"last_error"`
	RunID             uuid.UUID   `json:"-" db:"run_id"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// Analysis returns the derived fields, or nil unless the document is completed.
func (d *Document) Analysis() *Analysis {
	if d.Status != DocStatusCompleted {
		return nil
	}
	return &Analysis{
		Summary:    d.SimplifiedSummary,
		KeyPoints:  d.KeyPoints,
		LegalTerms: d.LegalTerms,
		Warnings:   d.Warnings,
	}
}

// ClearAnalysis drops the derived fields so they never outlive a completed status.
func (d *Document) ClearAnalysis() {
	d.SimplifiedSummary = ""
	d.KeyPoints = nil
	d.LegalTerms = nil
	d.Warnings = nil
}

// TruncateRunes cuts s to at most n characters without splitting a UTF-8 sequence.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
