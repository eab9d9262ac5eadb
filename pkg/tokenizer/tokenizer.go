package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// CountTokens estimates the token count of text for providers that report no
// usage. English averages about 4/3 tokens per word; text without spaces
// (CJK, long identifiers) is bounded by roughly one token per 4 characters.
func CountTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	byWords := len(strings.Fields(text)) * 4 / 3
	byChars := utf8.RuneCountInString(text) / 4
	return max(byWords, byChars, 1)
}
