package textextract

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTXT(t *testing.T) {
	got, err := Extract([]byte("This Agreement is governed by the laws of X."), "txt")
	require.NoError(t, err)
	assert.Equal(t, "This Agreement is governed by the laws of X.", got)
}

func TestExtractTXTInvalidUTF8(t *testing.T) {
	got, err := Extract([]byte{'o', 'k', 0xff, '!'}, ".txt")
	require.NoError(t, err)
	assert.Equal(t, "ok\uFFFD!", got)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract([]byte("x"), "image/png")
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	_, err := Extract([]byte("definitely not a pdf"), "pdf")
	assert.Error(t, err)
}

func TestUnescapePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\(b\)c`, "a(b)c"},
		{`back\\slash`, `back\slash`},
		{`line\nbreak`, "line\nbreak"},
		{`\101\102C`, "ABC"},
		{`\60\061`, "01"},
		{"wrap\\\nped", "wrapped"},
		{`\q`, "q"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UnescapePDFString(tt.in), tt.in)
	}
}

const samplePDF = `%PDF-1.4
1 0 obj << /Length 120 >>
stream
BT /F1 12 Tf 72 712 Td (This Lease Agreement) Tj ET
BT [(is made bet) -20 (ween the Landlord)] TJ ET
BT (and the Tenant \(jointly\).) ' ET
endstream
endobj
%%EOF`

func TestPDFTextOperators(t *testing.T) {
	got := PDFTextOperators([]byte(samplePDF))
	assert.Contains(t, got, "This Lease Agreement")
	assert.Contains(t, got, "is made between the Landlord")
	assert.Contains(t, got, "and the Tenant (jointly).")
}

func TestPDFTextOperatorsBalancedParentheses(t *testing.T) {
	data := []byte("BT (Section 4 (a) applies) Tj ET\nBT [(Clause (b)) -10 ( survives)] TJ ET\nBT (ignored) 12 Tf ET")
	got := PDFTextOperators(data)
	assert.Contains(t, got, "Section 4 (a) applies")
	assert.Contains(t, got, "Clause (b) survives")
	assert.NotContains(t, got, "ignored")
}

func TestScanLiteral(t *testing.T) {
	body, next := scanLiteral(`(a (b) \) c) Tj`, 0)
	assert.Equal(t, `a (b) \) c`, body)
	assert.Equal(t, 12, next)

	body, next = scanLiteral(`(unterminated`, 0)
	assert.Equal(t, "unterminated", body)
	assert.Equal(t, 13, next)
}

func TestPDFTextOperatorsCompressedStream(t *testing.T) {
	var content bytes.Buffer
	zw := zlib.NewWriter(&content)
	_, err := zw.Write([]byte("BT (Hidden behind FlateDecode) Tj ET"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var doc bytes.Buffer
	doc.WriteString("%PDF-1.5\n1 0 obj << /Filter /FlateDecode >>\nstream\n")
	doc.Write(content.Bytes())
	doc.WriteString("\nendstream\nendobj\n")

	assert.Contains(t, PDFTextOperators(doc.Bytes()), "Hidden behind FlateDecode")
}

func TestPDFStreams(t *testing.T) {
	data := []byte("junk stream\nreadable \x01\x02words here\nendstream more junk")
	assert.Equal(t, "readable words here", PDFStreams(data))
}

func TestPrintableASCII(t *testing.T) {
	data := []byte("he\x00llo\x07 wor\xffld\r\nnext")
	assert.Equal(t, "hello world\nnext", PrintableASCII(data))
}

func TestStripControl(t *testing.T) {
	in := "  a\x00b\x1bc   d\r\n\n\n\n\te\u00a0"
	assert.Equal(t, "  abc   d\n\n\n\n\te\u00a0", StripControl(in))
}

func TestSanitize(t *testing.T) {
	in := "a\x00b\x1bc   d\n\n\n\n\ne\t"
	assert.Equal(t, "abc d\n\ne", Sanitize(in))
}
