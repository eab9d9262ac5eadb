package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/models"
)

// MemoryStore keeps sessions and messages in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.ChatSession
	order    []uuid.UUID
	messages map[uuid.UUID][]models.ChatMessage
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]models.ChatSession),
		messages: make(map[uuid.UUID][]models.ChatMessage),
		now:      time.Now,
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, sess *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("insert chat session: duplicate id %s", sess.ID)
	}
	sess.CreatedAt = s.now()
	s.sessions[sess.ID] = *sess
	s.order = append(s.order, sess.ID)
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id uuid.UUID) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("chat session %s: %w", id, models.ErrNotFound)
	}
	return &sess, nil
}

func (s *MemoryStore) ListSessions(_ context.Context, documentID, userID uuid.UUID) ([]models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ChatSession
	for i := len(s.order) - 1; i >= 0; i-- {
		sess := s.sessions[s.order[i]]
		if sess.DocumentID == documentID && sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[m.SessionID]; !ok {
		return fmt.Errorf("chat session %s: %w", m.SessionID, models.ErrNotFound)
	}
	m.CreatedAt = s.now()
	s.messages[m.SessionID] = append(s.messages[m.SessionID], *m)
	return nil
}

func (s *MemoryStore) RecentMessages(_ context.Context, sessionID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[sessionID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]models.ChatMessage, limit)
	copy(out, all[len(all)-limit:])
	return out, nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	return s.RecentMessages(ctx, sessionID, 0)
}
