package chat

import (
	"context"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/models"
)

// Store persists chat sessions and their append-only message log.
type Store interface {
	CreateSession(ctx context.Context, s *models.ChatSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)
	// ListSessions returns the user's sessions for a document, newest first.
	ListSessions(ctx context.Context, documentID, userID uuid.UUID) ([]models.ChatSession, error)

	AppendMessage(ctx context.Context, m *models.ChatMessage) error
	// RecentMessages returns at most limit of the latest messages in replay
	// order (oldest first).
	RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.ChatMessage, error)
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error)
}
