package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageRow 是一条已持久化的消息记录，content 为序列化后的 parts JSON。
type MessageRow struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// UpsertSession creates the session row if absent. An existing row is never
// touched, so repeated calls with the same id are idempotent.
func (s *Store) UpsertSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
		id, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// InsertMessage appends a message row to a session.
func (s *Store) InsertMessage(ctx context.Context, sessionID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), sessionID, role, content, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns all stored messages in conversation order. An empty
// sessionID lists every session's messages, matching the reload endpoint.
func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]MessageRow, error) {
	query := `SELECT id, session_id, role, content, created_at FROM messages`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]MessageRow, 0, 32)
	for rows.Next() {
		var (
			m         MessageRow
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			m.CreatedAt = parsed
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountSessions reports how many session rows exist; used by tests to verify
// upsert idempotence.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
