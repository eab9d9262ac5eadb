package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/llm"
	"github.com/nikhilbhutani/docchat/internal/models"
)

var leaseMeta = Metadata{Title: "Lease", Filename: "lease.pdf", FileType: models.FileTypePDF}

const fullReply = `{
  "summary": "A one-year residential lease.",
  "keyPoints": ["Rent is 900 per month", "Deposit is refundable"],
  "legalTerms": [{"term": "Lessee", "explanation": "The tenant"}],
  "warnings": ["Late fees apply after five days"]
}`

func TestParseAnalysisFullReply(t *testing.T) {
	res := ParseAnalysis(fullReply, leaseMeta)

	assert.Equal(t, SourceParsed, res.Source)
	assert.Empty(t, res.DefaultedFields)
	assert.Equal(t, "A one-year residential lease.", res.Summary)
	assert.Equal(t, []string{"Rent is 900 per month", "Deposit is refundable"}, res.KeyPoints)
	assert.Equal(t, []models.LegalTerm{{Term: "Lessee", Explanation: "The tenant"}}, res.LegalTerms)
	assert.Equal(t, []string{"Late fees apply after five days"}, res.Warnings)
}

func TestParseAnalysisFencedAndWrapped(t *testing.T) {
	for name, reply := range map[string]string{
		"json fence":  "```json\n" + fullReply + "\n```",
		"bare fence":  "```\n" + fullReply + "\n```",
		"prose":       "Here is the analysis you asked for:\n" + fullReply + "\nLet me know if you need more.",
		"brace noise": "Note {not json} first. " + fullReply,
	} {
		t.Run(name, func(t *testing.T) {
			res := ParseAnalysis(reply, leaseMeta)
			assert.Equal(t, SourceParsed, res.Source)
			assert.Equal(t, "A one-year residential lease.", res.Summary)
		})
	}
}

func TestParseAnalysisPartial(t *testing.T) {
	reply := `{"summary": "Short NDA.", "keyPoints": "not a list", "legal_terms": {"Disclosing party": "The side sharing secrets"}, "warnings": []}`
	res := ParseAnalysis(reply, leaseMeta)

	assert.Equal(t, SourcePartial, res.Source)
	assert.Equal(t, []string{FieldKeyPoints, FieldWarnings}, res.DefaultedFields)
	assert.Equal(t, "Short NDA.", res.Summary)
	assert.Equal(t, []models.LegalTerm{{Term: "Disclosing party", Explanation: "The side sharing secrets"}}, res.LegalTerms)
	assert.Equal(t, Defaults(leaseMeta).KeyPoints, res.KeyPoints)
	assert.Equal(t, Defaults(leaseMeta).Warnings, res.Warnings)
}

func TestParseAnalysisDropsBlankEntries(t *testing.T) {
	reply := `{"summary":"  ","keyPoints":["", "  real point "],"legalTerms":[{"term":"","explanation":"x"}],"warnings":["w"]}`
	res := ParseAnalysis(reply, leaseMeta)

	assert.Equal(t, []string{"real point"}, res.KeyPoints)
	assert.Equal(t, []string{FieldSummary, FieldLegalTerms}, res.DefaultedFields)
}

func TestParseAnalysisDefaulted(t *testing.T) {
	for _, reply := range []string{"", "I cannot read this document.", "{broken", `{"unrelated": true}`} {
		res := ParseAnalysis(reply, leaseMeta)
		assert.Equal(t, SourceDefaulted, res.Source, reply)
		assert.Len(t, res.DefaultedFields, 4)
		assert.Contains(t, res.Summary, "lease.pdf")
		assert.Contains(t, res.Summary, "PDF")
	}
}

func TestParseAnalysisAlwaysComplete(t *testing.T) {
	replies := []string{
		fullReply,
		`{"summary": 42}`,
		`[1,2,3]`,
		"```json\n{\"warnings\": [\"only\"]}\n```",
		`{"keyPoints": null, "legalTerms": [{"term": "A"}]}`,
	}
	for _, reply := range replies {
		res := ParseAnalysis(reply, leaseMeta)
		assert.NotEmpty(t, res.Summary, reply)
		assert.NotEmpty(t, res.KeyPoints, reply)
		assert.NotEmpty(t, res.LegalTerms, reply)
		assert.NotEmpty(t, res.Warnings, reply)
	}
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFence("  {\"a\":1}  "))
	assert.Equal(t, `{"a":1}`, StripFence("```json{\"a\":1}```"))
}

type stubGateway struct {
	reply string
	err   error
	reqs  []llm.ChatRequest
}

func (g *stubGateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &llm.ChatResponse{Content: g.reply}, nil
}

func (g *stubGateway) Provider(string) (llm.Provider, error) { return nil, errors.New("unused") }
func (g *stubGateway) ListModels() []llm.ModelInfo            { return nil }

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		AnalysisModel:       "gpt-4o-mini",
		AnalysisTemperature: 0.3,
		AnalysisMaxTokens:   2000,
		AnalysisMaxChars:    100,
	}
}

func TestAnalyzeSendsOneTruncatedRequest(t *testing.T) {
	gw := &stubGateway{reply: fullReply}
	r := NewRequester(gw, testPipelineConfig())

	text := strings.Repeat("a", 90) + strings.Repeat("z", 50)
	res, err := r.Analyze(context.Background(), text, leaseMeta)
	require.NoError(t, err)
	assert.Equal(t, SourceParsed, res.Source)

	require.Len(t, gw.reqs, 1)
	req := gw.reqs[0]
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, "gpt-4o-mini", req.Model)
	require.Len(t, req.Messages, 1)
	body := req.Messages[0].Content
	assert.Contains(t, body, strings.Repeat("a", 90)+strings.Repeat("z", 10))
	assert.NotContains(t, body, strings.Repeat("z", 11))
	assert.Contains(t, body, "Never say the document is unreadable")
	assert.Contains(t, body, "lease.pdf")
}

func TestAnalyzeServiceFailure(t *testing.T) {
	gw := &stubGateway{err: errors.New("openai chat: status 500")}
	_, err := NewRequester(gw, testPipelineConfig()).Analyze(context.Background(), "text", leaseMeta)

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAnalysisService)
	assert.ErrorContains(t, err, "status 500")
}

func TestAnalyzeGarbageReplyIsNotAnError(t *testing.T) {
	gw := &stubGateway{reply: "Sorry, this document appears to be corrupted."}
	res, err := NewRequester(gw, testPipelineConfig()).Analyze(context.Background(), "text", leaseMeta)

	require.NoError(t, err)
	assert.Equal(t, SourceDefaulted, res.Source)
	assert.NotEmpty(t, res.Warnings)
}
