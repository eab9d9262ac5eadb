package textextract

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
	"strings"
	"unicode"
)

var (
	streamPattern    = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\n?endstream`)
	textBlockPattern = regexp.MustCompile(`(?s)\bBT\b(.*?)\bET\b`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
	spaceRuns        = regexp.MustCompile(`[ \t]{2,}`)
)

// maxInflatedStream bounds a single decompressed content stream.
const maxInflatedStream = 8 << 20

// PDFTextOperators collects the literal strings shown inside BT/ET blocks.
// Flate-compressed streams are inflated first so compressed content
// streams are searched as well as the raw file.
func PDFTextOperators(data []byte) string {
	sources := []string{string(data)}
	for _, m := range streamPattern.FindAllSubmatch(data, -1) {
		if inflated, ok := inflate(m[1]); ok {
			sources = append(sources, inflated)
		}
	}

	var sb strings.Builder
	for _, src := range sources {
		for _, block := range textBlockPattern.FindAllStringSubmatch(src, -1) {
			for _, s := range showStrings(block[1]) {
				sb.WriteString(s)
			}
			sb.WriteString("\n")
		}
	}
	return Sanitize(sb.String())
}

// showStrings returns the operands of Tj, ', " and TJ operators in stream
// order. Literals are scanned by hand since they may nest balanced
// parentheses.
func showStrings(block string) []string {
	var (
		out      []string
		last     string
		haveLast bool
		inArray  bool
		array    strings.Builder
		arrayOK  bool
	)
	emit := func(text string) {
		if text != "" {
			out = append(out, text+" ")
		}
	}

	for i := 0; i < len(block); {
		switch c := block[i]; {
		case c == '(':
			lit, next := scanLiteral(block, i)
			if inArray {
				array.WriteString(UnescapePDFString(lit))
			} else {
				last, haveLast = lit, true
			}
			i = next
		case c == '[':
			inArray, arrayOK = true, false
			array.Reset()
			i++
		case c == ']':
			if inArray {
				inArray, arrayOK = false, true
			}
			i++
		case isPDFSpace(c):
			i++
		default:
			j := i
			for j < len(block) && !isPDFSpace(block[j]) && !isPDFDelim(block[j]) {
				j++
			}
			if j == i {
				j++
			}
			if !inArray {
				switch block[i:j] {
				case "Tj", "'", `"`:
					if haveLast {
						emit(UnescapePDFString(last))
					}
				case "TJ":
					if arrayOK {
						emit(array.String())
					}
				}
				haveLast, arrayOK = false, false
			}
			i = j
		}
	}
	return out
}

// scanLiteral reads the literal string opening at s[start] and returns its
// raw body and the index after the closing parenthesis.
func scanLiteral(s string, start int) (string, int) {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[start+1 : i], i + 1
			}
		}
	}
	return s[start+1:], len(s)
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// UnescapePDFString decodes backslash and octal escapes of a PDF literal string.
func UnescapePDFString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch n := s[i]; n {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '(', ')', '\\':
			sb.WriteByte(n)
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
			// line continuation
		default:
			if n >= '0' && n <= '7' {
				val := int(n - '0')
				for k := 0; k < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(s[i]-'0')
				}
				sb.WriteByte(byte(val & 0xff))
			} else {
				sb.WriteByte(n)
			}
		}
	}
	return sb.String()
}

// PDFStreams returns the printable content of every stream/endstream block.
func PDFStreams(data []byte) string {
	var sb strings.Builder
	for _, m := range streamPattern.FindAllSubmatch(data, -1) {
		body := m[1]
		if inflated, ok := inflate(body); ok {
			body = []byte(inflated)
		}
		if text := PrintableASCII(body); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return Sanitize(sb.String())
}

// PrintableASCII keeps printable ASCII plus newlines and tabs.
func PrintableASCII(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		switch {
		case b == '\n' || b == '\t':
			sb.WriteByte(b)
		case b >= 0x20 && b <= 0x7e:
			sb.WriteByte(b)
		}
	}
	return Sanitize(sb.String())
}

// StripControl removes NUL and other control characters, keeping newlines
// and tabs. CRLF becomes LF. Spacing and layout are left untouched.
func StripControl(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// Sanitize is StripControl plus layout cleanup for text recovered from PDF
// and binary data, where spacing carries no meaning. Space runs and blank
// line runs are collapsed before trimming.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, StripControl(s))
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func inflate(body []byte) (string, bool) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxInflatedStream))
	if err != nil && len(out) == 0 {
		return "", false
	}
	return string(out), true
}
