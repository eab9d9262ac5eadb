package document

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/models"
)

func testExtractor() *Extractor {
	return NewExtractor(config.PipelineConfig{MinExtractedChars: 50, PlaceholderThreshold: 20})
}

func TestExtractTextFileUnchanged(t *testing.T) {
	text := "This Agreement is governed by the laws of X."
	got := testExtractor().Extract(context.Background(), []byte(text), models.FileTypeTXT, "a.txt")

	assert.Equal(t, text, got.Text)
	assert.Equal(t, MethodPlain, got.Method)
	assert.False(t, got.Placeholder)
}

func TestExtractStripsControlCharacters(t *testing.T) {
	got := testExtractor().Extract(context.Background(),
		[]byte("Clause 1\x00: the tenant\x07 pays rent monthly."), models.FileTypeTXT, "a.txt")
	assert.Equal(t, "Clause 1: the tenant pays rent monthly.", got.Text)
}

func TestExtractTextFileKeepsLayout(t *testing.T) {
	text := "  1.  Rent\n\n\n\n      Amount:    $1,000\tdue monthly\r\n  2.  Deposit    held in escrow\n"
	got := testExtractor().Extract(context.Background(), []byte(text), models.FileTypeTXT, "terms.txt")

	assert.Equal(t, "  1.  Rent\n\n\n\n      Amount:    $1,000\tdue monthly\n  2.  Deposit    held in escrow\n", got.Text)
	assert.False(t, got.Placeholder)
}

func TestExtractWhitespaceOnlyTextGetsPlaceholder(t *testing.T) {
	data := []byte(strings.Repeat(" \n\t", 30))
	got := testExtractor().Extract(context.Background(), data, models.FileTypeTXT, "blank.txt")

	assert.True(t, got.Placeholder)
	assert.Contains(t, got.Text, "blank.txt")
}

func TestExtractEmptyInputsGetPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fileType models.FileType
		filename string
	}{
		{"corrupt pdf", []byte("%PDF-1.4\n\x00\x01\x02"), models.FileTypePDF, "scan.pdf"},
		{"empty txt", nil, models.FileTypeTXT, "empty.txt"},
		{"broken docx", []byte("PK\x03\x04 not really"), models.FileTypeDOCX, "contract.docx"},
		{"binary other", []byte{0x89, 0x50, 0x4e, 0x47}, models.FileTypeOther, "image.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testExtractor().Extract(context.Background(), tt.data, tt.fileType, tt.filename)
			assert.True(t, got.Placeholder)
			assert.Equal(t, MethodPlaceholder, got.Method)
			assert.Contains(t, got.Text, tt.filename)
			assert.Contains(t, got.Text, string(tt.fileType))
			assert.GreaterOrEqual(t, len(got.Text), 50)
		})
	}
}

func TestExtractPDFFallsBackToTextOperators(t *testing.T) {
	pdf := "%PDF-1.4\n1 0 obj << /Length 200 >>\nstream\n" +
		"BT (This Residential Lease Agreement is entered into by the) Tj ET\n" +
		"BT [(Landlord and the Ten) -15 (ant named below.)] TJ ET\n" +
		"endstream\nendobj\n%%EOF"

	got := testExtractor().Extract(context.Background(), []byte(pdf), models.FileTypePDF, "lease.pdf")

	assert.False(t, got.Placeholder)
	assert.Equal(t, MethodPDFOperators, got.Method)
	assert.Contains(t, got.Text, "This Residential Lease Agreement")
	assert.Contains(t, got.Text, "Landlord and the Tenant named below.")
}

func TestExtractShortPDFKeepsBestCandidate(t *testing.T) {
	pdf := "%PDF-1.4\nstream\nBT (Rent: 500 USD per month) Tj ET\nendstream\n"

	got := testExtractor().Extract(context.Background(), []byte(pdf), models.FileTypePDF, "short.pdf")

	assert.False(t, got.Placeholder)
	assert.Contains(t, got.Text, "Rent: 500 USD per month")
}

func TestExtractOtherUsesPrintableText(t *testing.T) {
	data := []byte("\x01\x02Plain words inside a file of unknown type\xff\xfe")
	got := testExtractor().Extract(context.Background(), data, models.FileTypeOther, "notes.bin")

	assert.Equal(t, MethodPrintable, got.Method)
	assert.Equal(t, "Plain words inside a file of unknown type", got.Text)
}

func TestSafeRunRecovers(t *testing.T) {
	got := safeRun(context.Background(), "boom", func() string { panic("parser exploded") })
	assert.Empty(t, got)
}

func TestPlaceholderDescribesFile(t *testing.T) {
	text := placeholderText("deed.pdf", models.FileTypePDF, 1234)
	assert.True(t, strings.HasPrefix(text, "Document: deed.pdf"))
	assert.Contains(t, text, "1234 bytes")
}
