package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/llm"
	"github.com/nikhilbhutani/docchat/internal/metrics"
	"github.com/nikhilbhutani/docchat/internal/models"
	"github.com/nikhilbhutani/docchat/internal/prompt"
)

// Requester asks the model for a structured analysis of a document's text.
type Requester struct {
	gateway     llm.Gateway
	model       string
	temperature float64
	maxTokens   int
	maxChars    int
}

func NewRequester(gw llm.Gateway, cfg config.PipelineConfig) *Requester {
	return &Requester{
		gateway:     gw,
		model:       cfg.AnalysisModel,
		temperature: cfg.AnalysisTemperature,
		maxTokens:   cfg.AnalysisMaxTokens,
		maxChars:    cfg.AnalysisMaxChars,
	}
}

// Analyze makes one model call. A failed call is returned wrapped in
// models.ErrAnalysisService; an unusable reply is not an error and yields
// defaulted fields instead.
func (r *Requester) Analyze(ctx context.Context, text string, meta Metadata) (*Result, error) {
	if r.maxChars > 0 {
		text = models.TruncateRunes(text, r.maxChars)
	}

	content, err := prompt.DocumentAnalysis.Render(map[string]string{
		"title":     meta.Title,
		"filename":  meta.Filename,
		"file_type": string(meta.FileType),
		"text":      text,
	})
	if err != nil {
		return nil, err
	}

	resp, err := r.gateway.Chat(ctx, llm.ChatRequest{
		Model:       r.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: content}},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrAnalysisService, err)
	}

	res := ParseAnalysis(resp.Content, meta)
	metrics.IncAnalysisResult(string(res.Source))
	if res.Source != SourceParsed {
		slog.WarnContext(ctx, "analysis reply incomplete, defaults applied",
			"filename", meta.Filename,
			"source", res.Source,
			"defaulted", res.DefaultedFields,
		)
	}
	slog.DebugContext(ctx, "analysis received",
		"provider", resp.Provider,
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost_usd", resp.CostUSD,
	)
	return &res, nil
}
