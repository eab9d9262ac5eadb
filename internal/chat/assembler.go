package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/llm"
	"github.com/nikhilbhutani/docchat/internal/metrics"
	"github.com/nikhilbhutani/docchat/internal/models"
)

// DocumentGetter loads the document a conversation is about.
type DocumentGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
}

type Request struct {
	DocumentID uuid.UUID
	UserID     uuid.UUID
	SessionID  *uuid.UUID
	Message    string
}

type Reply struct {
	SessionID uuid.UUID `json:"sessionId"`
	MessageID uuid.UUID `json:"messageId"`
	Content   string    `json:"message"`
}

// Assembler answers chat messages about one document, keeping the
// conversation in a session.
type Assembler struct {
	docs         DocumentGetter
	store        Store
	gateway      llm.Gateway
	builder      *ContextBuilder
	model        string
	temperature  float64
	maxTokens    int
	historyLimit int
}

func NewAssembler(docs DocumentGetter, store Store, gw llm.Gateway, cfg config.ChatConfig) *Assembler {
	return &Assembler{
		docs:         docs,
		store:        store,
		gateway:      gw,
		builder:      NewContextBuilder(cfg.ContextChars),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		historyLimit: cfg.HistoryLimit,
	}
}

// Chat stores the user's message, asks the model and stores the reply.
//
// The user message is written before the model call and is kept when the call
// or the reply write fails. Errors then wrap models.ErrAnalysisService or
// models.ErrPersistence.
func (a *Assembler) Chat(ctx context.Context, req Request) (*Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message required", models.ErrInvalidInput)
	}

	doc, err := a.document(ctx, req.UserID, req.DocumentID)
	if err != nil {
		return nil, err
	}

	session, err := a.session(ctx, doc, req)
	if err != nil {
		return nil, err
	}

	history, err := a.store.RecentMessages(ctx, session.ID, a.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	userMsg := &models.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   message,
	}
	if err := a.store.AppendMessage(ctx, userMsg); err != nil {
		metrics.IncChatMessage("persistence_error")
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	assembled, err := a.builder.Assemble(doc, history, message)
	if err != nil {
		return nil, err
	}

	resp, err := a.gateway.Chat(ctx, llm.ChatRequest{
		Model:       a.model,
		Messages:    assembled.Messages,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		metrics.IncChatMessage("llm_error")
		slog.ErrorContext(ctx, "chat completion failed", "session_id", session.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", models.ErrAnalysisService, err)
	}

	reply := &models.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   strings.TrimSpace(resp.Content),
	}
	if err := a.store.AppendMessage(ctx, reply); err != nil {
		metrics.IncChatMessage("persistence_error")
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	metrics.IncChatMessage("ok")

	slog.InfoContext(ctx, "chat reply sent",
		"session_id", session.ID,
		"document_id", doc.ID,
		"history", len(history),
		"context_truncated", assembled.Truncated,
		"output_tokens", resp.OutputTokens,
	)
	return &Reply{SessionID: session.ID, MessageID: reply.ID, Content: reply.Content}, nil
}

// Sessions lists the user's conversations about a document, newest first.
func (a *Assembler) Sessions(ctx context.Context, userID, documentID uuid.UUID) ([]models.ChatSession, error) {
	if _, err := a.document(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return a.store.ListSessions(ctx, documentID, userID)
}

// Messages returns the full transcript of a session owned by userID.
func (a *Assembler) Messages(ctx context.Context, userID, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	session, err := a.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("chat session %s: %w", sessionID, models.ErrNotFound)
	}
	return a.store.ListMessages(ctx, sessionID)
}

func (a *Assembler) document(ctx context.Context, userID, id uuid.UUID) (*models.Document, error) {
	doc, err := a.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return doc, nil
}

// session loads the requested session or starts a new one. A session that
// belongs to another document or user is reported as missing.
func (a *Assembler) session(ctx context.Context, doc *models.Document, req Request) (*models.ChatSession, error) {
	if req.SessionID != nil {
		s, err := a.store.GetSession(ctx, *req.SessionID)
		if err != nil {
			return nil, err
		}
		if s.DocumentID != doc.ID || s.UserID != req.UserID {
			return nil, fmt.Errorf("chat session %s: %w", s.ID, models.ErrNotFound)
		}
		return s, nil
	}

	s := &models.ChatSession{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		UserID:     req.UserID,
		Title:      "Chat about " + doc.Title,
	}
	if err := a.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	slog.InfoContext(ctx, "chat session started", "session_id", s.ID, "document_id", doc.ID)
	return s, nil
}
