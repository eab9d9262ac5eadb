package chat

import (
	"encoding/json"
	"fmt"

	"github.com/nikhilbhutani/docchat/internal/llm"
	"github.com/nikhilbhutani/docchat/internal/models"
	"github.com/nikhilbhutani/docchat/internal/prompt"
)

// ContextBuilder decides what goes into the model's context for one chat
// turn: a system message describing the document, the prior conversation and
// the new user message.
type ContextBuilder struct {
	textChars int
}

func NewContextBuilder(textChars int) *ContextBuilder {
	return &ContextBuilder{textChars: textChars}
}

// AssembledContext is the final message list ready for the gateway.
type AssembledContext struct {
	Messages  []llm.Message
	Truncated bool // the document text was cut to fit
}

func (b *ContextBuilder) Assemble(doc *models.Document, history []models.ChatMessage, userMessage string) (AssembledContext, error) {
	system, truncated, err := b.systemPrompt(doc)
	if err != nil {
		return AssembledContext{}, err
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})

	return AssembledContext{Messages: messages, Truncated: truncated}, nil
}

func (b *ContextBuilder) systemPrompt(doc *models.Document) (string, bool, error) {
	text := models.TruncateRunes(doc.OriginalText, b.textChars)
	truncated := len(text) < len(doc.OriginalText)

	summary := doc.SimplifiedSummary
	if summary == "" {
		summary = "Not available yet."
	}

	keyPoints, err := jsonList(doc.KeyPoints)
	if err != nil {
		return "", false, err
	}
	legalTerms, err := jsonList(doc.LegalTerms)
	if err != nil {
		return "", false, err
	}
	warnings, err := jsonList(doc.Warnings)
	if err != nil {
		return "", false, err
	}

	out, err := prompt.DocumentChat.Render(map[string]string{
		"title":       doc.Title,
		"summary":     summary,
		"key_points":  keyPoints,
		"legal_terms": legalTerms,
		"warnings":    warnings,
		"text":        text,
	})
	if err != nil {
		return "", false, err
	}
	return out, truncated, nil
}

func jsonList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode chat context: %w", err)
	}
	return string(data), nil
}
