package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)

		var body struct {
			Contents []struct {
				Role string `json:"role"`
			} `json:"contents"`
			SystemInstruction *struct{} `json:"systemInstruction"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && assert.Len(t, body.Contents, 2) {
			assert.Equal(t, "user", body.Contents[0].Role)
			assert.Equal(t, "model", body.Contents[1].Role)
			assert.NotNil(t, body.SystemInstruction)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"gemini says hi"}]}}],` +
			`"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":3}}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "test-key", srv.URL)
	require.NoError(t, err)

	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model: "gemini-2.5-flash",
		Messages: []Message{
			{Role: RoleSystem, Content: "context"},
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi"},
		},
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini says hi", resp.Content)
	assert.Equal(t, 8, resp.TotalTokens)
}
