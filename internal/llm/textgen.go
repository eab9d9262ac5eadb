package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nikhilbhutani/docchat/pkg/tokenizer"
)

// TextGenProvider calls a plain prompt-in, text-out HTTP endpoint. The
// conversation is flattened into a single prompt since such endpoints have no
// notion of roles.
type TextGenProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewTextGenProvider(url, apiKey string) *TextGenProvider {
	return &TextGenProvider{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (p *TextGenProvider) Name() string { return "textgen" }

func (p *TextGenProvider) Models() []string { return []string{"default"} }

type textGenReq struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// textGenResp accepts the common reply shapes of text-generation servers.
type textGenResp struct {
	Text          string `json:"text"`
	GeneratedText string `json:"generated_text"`
	Response      string `json:"response"`
	Choices       []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (r textGenResp) content() string {
	switch {
	case r.Text != "":
		return r.Text
	case r.GeneratedText != "":
		return r.GeneratedText
	case r.Response != "":
		return r.Response
	case len(r.Choices) > 0:
		return r.Choices[0].Text
	}
	return ""
}

func (p *TextGenProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	prompt := Flatten(req.Messages)
	body, err := json.Marshal(textGenReq{
		Model:       req.Model,
		Prompt:      prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("textgen encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("textgen request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("textgen call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("textgen read: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{Provider: p.Name(), Code: resp.StatusCode, Body: truncate(string(data), 512)}
	}

	var tResp textGenResp
	if err := json.Unmarshal(data, &tResp); err != nil {
		// some servers answer with the bare text
		tResp.Text = string(data)
	}

	// these endpoints report no usage, so token counts are estimates
	content := strings.TrimSpace(tResp.content())
	inputTokens := tokenizer.CountTokens(prompt)
	outputTokens := tokenizer.CountTokens(content)

	return &ChatResponse{
		Provider:     p.Name(),
		Model:        req.Model,
		Content:      content,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
