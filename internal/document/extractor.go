package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/models"
	"github.com/nikhilbhutani/docchat/pkg/textextract"
)

// Extraction methods reported in Extraction.Method.
const (
	MethodPlain        = "plain"
	MethodPDFParser    = "pdf-parser"
	MethodPDFOperators = "pdf-text-operators"
	MethodPDFStreams   = "pdf-streams"
	MethodPrintable    = "printable"
	MethodOfficeParser = "office-parser"
	MethodPlaceholder  = "placeholder"
)

// Extraction is the text handed to analysis.
type Extraction struct {
	Text        string
	Method      string
	Placeholder bool
}

// Extractor turns stored file bytes into text. It never fails: parser errors
// and panics degrade to an empty result, and anything shorter than the
// placeholder threshold is replaced by a description of the file.
type Extractor struct {
	minChars             int
	placeholderThreshold int
}

func NewExtractor(cfg config.PipelineConfig) *Extractor {
	return &Extractor{
		minChars:             cfg.MinExtractedChars,
		placeholderThreshold: cfg.PlaceholderThreshold,
	}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, fileType models.FileType, filename string) (out Extraction) {
	defer func() {
		if r := recover(); r != nil {
			slog.WarnContext(ctx, "text extraction panicked", "filename", filename, "panic", r)
			out = Extraction{}
		}
		out.Text = textextract.StripControl(out.Text)
		if utf8.RuneCountInString(strings.TrimSpace(out.Text)) < e.placeholderThreshold {
			out = Extraction{
				Text:        placeholderText(filename, fileType, len(data)),
				Method:      MethodPlaceholder,
				Placeholder: true,
			}
		}
	}()

	switch fileType {
	case models.FileTypeTXT:
		return Extraction{Text: textextract.DecodeUTF8(data), Method: MethodPlain}
	case models.FileTypePDF:
		return e.extractPDF(ctx, data, filename)
	case models.FileTypeDOCX:
		text, err := textextract.Extract(data, string(fileType))
		if err == nil {
			return Extraction{Text: text, Method: MethodOfficeParser}
		}
		slog.DebugContext(ctx, "office parser failed", "filename", filename, "error", err)
	}
	return Extraction{Text: textextract.PrintableASCII(data), Method: MethodPrintable}
}

// extractPDF tries the structured parser, then each byte-level heuristic,
// returning the first candidate with at least minChars characters. When none
// qualifies the longest candidate wins. PDF layout whitespace is collapsed;
// the other formats keep their spacing.
func (e *Extractor) extractPDF(ctx context.Context, data []byte, filename string) Extraction {
	var best Extraction

	strategies := []struct {
		method string
		run    func() string
	}{
		{MethodPDFParser, func() string {
			text, err := textextract.Extract(data, "pdf")
			if err != nil {
				slog.DebugContext(ctx, "pdf parser failed", "filename", filename, "error", err)
				return ""
			}
			return text
		}},
		{MethodPDFOperators, func() string { return textextract.PDFTextOperators(data) }},
		{MethodPDFStreams, func() string { return textextract.PDFStreams(data) }},
		{MethodPrintable, func() string { return textextract.PrintableASCII(data) }},
	}

	for _, s := range strategies {
		text := textextract.Sanitize(safeRun(ctx, s.method, s.run))
		n := utf8.RuneCountInString(text)
		if n >= e.minChars {
			return Extraction{Text: text, Method: s.method}
		}
		if n > utf8.RuneCountInString(best.Text) {
			best = Extraction{Text: text, Method: s.method}
		}
	}
	return best
}

// safeRun isolates a single strategy so one panicking parser does not skip
// the remaining heuristics.
func safeRun(ctx context.Context, method string, fn func() string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.WarnContext(ctx, "extraction strategy panicked", "method", method, "panic", r)
			text = ""
		}
	}()
	return fn()
}

func placeholderText(filename string, fileType models.FileType, size int) string {
	return fmt.Sprintf(`Document: %s
Type: %s
Size: %d bytes

The text of this document could not be read automatically. It was uploaded for
review as a %s file named %q. Provide a general analysis of what a document of
this kind usually contains, the terms a reader should look out for, and the
points worth checking with a professional.`, filename, fileType, size, fileType, filename)
}
