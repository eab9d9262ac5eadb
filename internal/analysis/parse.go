package analysis

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/nikhilbhutani/docchat/internal/models"
)

// Source tells how a Result was obtained from the model reply.
type Source string

const (
	SourceParsed    Source = "parsed"    // every field came from the reply
	SourcePartial   Source = "partial"   // some fields were defaulted
	SourceDefaulted Source = "defaulted" // nothing usable in the reply
)

const (
	FieldSummary    = "summary"
	FieldKeyPoints  = "keyPoints"
	FieldLegalTerms = "legalTerms"
	FieldWarnings   = "warnings"
)

// Result is an analysis with all four fields populated.
type Result struct {
	models.Analysis
	Source          Source
	DefaultedFields []string
}

type rawAnalysis struct {
	Summary       json.RawMessage `json:"summary"`
	KeyPoints     json.RawMessage `json:"keyPoints"`
	KeyPointsAlt  json.RawMessage `json:"key_points"`
	LegalTerms    json.RawMessage `json:"legalTerms"`
	LegalTermsAlt json.RawMessage `json:"legal_terms"`
	Warnings      json.RawMessage `json:"warnings"`
}

// ParseAnalysis reads the first JSON object in a model reply. Fields that are
// missing, empty or of the wrong shape are replaced by defaults built from
// meta, so the result is always complete.
func ParseAnalysis(reply string, meta Metadata) Result {
	defaults := Defaults(meta)
	res := Result{Source: SourceParsed}

	raw, ok := decodeFirstObject(StripFence(reply))
	if !ok {
		res.Analysis = defaults
		res.Source = SourceDefaulted
		res.DefaultedFields = []string{FieldSummary, FieldKeyPoints, FieldLegalTerms, FieldWarnings}
		return res
	}

	if s, ok := parseString(raw.Summary); ok {
		res.Summary = s
	} else {
		res.Summary = defaults.Summary
		res.DefaultedFields = append(res.DefaultedFields, FieldSummary)
	}

	if kp, ok := parseStrings(firstPresent(raw.KeyPoints, raw.KeyPointsAlt)); ok {
		res.KeyPoints = kp
	} else {
		res.KeyPoints = defaults.KeyPoints
		res.DefaultedFields = append(res.DefaultedFields, FieldKeyPoints)
	}

	if lt, ok := parseLegalTerms(firstPresent(raw.LegalTerms, raw.LegalTermsAlt)); ok {
		res.LegalTerms = lt
	} else {
		res.LegalTerms = defaults.LegalTerms
		res.DefaultedFields = append(res.DefaultedFields, FieldLegalTerms)
	}

	if w, ok := parseStrings(raw.Warnings); ok {
		res.Warnings = w
	} else {
		res.Warnings = defaults.Warnings
		res.DefaultedFields = append(res.DefaultedFields, FieldWarnings)
	}

	switch len(res.DefaultedFields) {
	case 0:
	case 4:
		res.Source = SourceDefaulted
	default:
		res.Source = SourcePartial
	}
	return res
}

// StripFence removes a surrounding ``` or ```json code fence.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "```"), "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeFirstObject decodes the first complete JSON object in s, skipping
// any prose before it and ignoring anything after it.
func decodeFirstObject(s string) (rawAnalysis, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		var raw rawAnalysis
		dec := json.NewDecoder(strings.NewReader(s[start:]))
		if err := dec.Decode(&raw); err == nil {
			return raw, true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return rawAnalysis{}, false
}

func firstPresent(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(bytes.TrimSpace(v)) > 0 && !bytes.Equal(v, []byte("null")) {
			return v
		}
	}
	return nil
}

func parseString(data json.RawMessage) (string, bool) {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func parseStrings(data json.RawMessage) ([]string, bool) {
	var items []string
	if len(data) == 0 || json.Unmarshal(data, &items) != nil {
		return nil, false
	}
	out := items[:0]
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out, len(out) > 0
}

// parseLegalTerms accepts a list of {term, explanation} objects or a single
// object mapping each term to its explanation.
func parseLegalTerms(data json.RawMessage) ([]models.LegalTerm, bool) {
	if len(data) == 0 {
		return nil, false
	}

	var list []models.LegalTerm
	if err := json.Unmarshal(data, &list); err == nil {
		out := list[:0]
		for _, lt := range list {
			lt.Term = strings.TrimSpace(lt.Term)
			lt.Explanation = strings.TrimSpace(lt.Explanation)
			if lt.Term != "" && lt.Explanation != "" {
				out = append(out, lt)
			}
		}
		return out, len(out) > 0
	}

	var byTerm map[string]string
	if err := json.Unmarshal(data, &byTerm); err != nil {
		return nil, false
	}
	terms := make([]string, 0, len(byTerm))
	for term := range byTerm {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var out []models.LegalTerm
	for _, term := range terms {
		explanation := strings.TrimSpace(byTerm[term])
		if t := strings.TrimSpace(term); t != "" && explanation != "" {
			out = append(out, models.LegalTerm{Term: t, Explanation: explanation})
		}
	}
	return out, len(out) > 0
}
