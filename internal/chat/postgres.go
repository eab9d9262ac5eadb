package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/docchat/internal/models"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess *models.ChatSession) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO chat_sessions (id, document_id, user_id, title)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		sess.ID, sess.DocumentID, sess.UserID, sess.Title,
	).Scan(&sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	var sess models.ChatSession
	err := s.db.QueryRow(ctx,
		`SELECT id, document_id, user_id, title, created_at FROM chat_sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.DocumentID, &sess.UserID, &sess.Title, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chat session %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get chat session: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, documentID, userID uuid.UUID) ([]models.ChatSession, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, document_id, user_id, title, created_at FROM chat_sessions
		 WHERE document_id = $1 AND user_id = $2
		 ORDER BY created_at DESC`,
		documentID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var sess models.ChatSession
		if err := rows.Scan(&sess.ID, &sess.DocumentID, &sess.UserID, &sess.Title, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *PostgresStore) AppendMessage(ctx context.Context, m *models.ChatMessage) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO chat_messages (id, chat_session_id, role, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		m.ID, m.SessionID, string(m.Role), m.Content,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return s.ListMessages(ctx, sessionID)
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, chat_session_id, role, content, created_at FROM (
		   SELECT id, chat_session_id, role, content, created_at, seq FROM chat_messages
		   WHERE chat_session_id = $1
		   ORDER BY created_at DESC, seq DESC
		   LIMIT $2
		 ) recent
		 ORDER BY created_at ASC, seq ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent chat messages: %w", err)
	}
	return collectMessages(rows)
}

func (s *PostgresStore) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, chat_session_id, role, content, created_at FROM chat_messages
		 WHERE chat_session_id = $1
		 ORDER BY created_at ASC, seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return collectMessages(rows)
}

func collectMessages(rows pgx.Rows) ([]models.ChatMessage, error) {
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var (
			m    models.ChatMessage
			role string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Role = models.Role(role)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return msgs, nil
}
