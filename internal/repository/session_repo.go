package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/wikirag/internal/domain"
)

// DefaultSessionTitle is assigned to sessions created implicitly by
// their first chat turn.
const DefaultSessionTitle = "New Conversation"

const previewRunes = 120

// SessionRepository handles session and message persistence
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// AppendTurn persists a user/assistant message pair in one transaction,
// creating the session row on first use. The transaction is the atomic
// append primitive: concurrent turns on the same session cannot
// interleave their pairs, and a failed turn leaves nothing behind.
func (r *SessionRepository) AppendTurn(ctx context.Context, sessionID string, userMsg, assistantMsg *domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, sessionID, DefaultSessionTitle, now, now); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	for _, msg := range []*domain.Message{userMsg, assistantMsg} {
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}
		msg.SessionID = sessionID

		var sourcesJSON any
		if len(msg.Sources) > 0 {
			data, err := json.Marshal(msg.Sources)
			if err != nil {
				return fmt.Errorf("marshal sources: %w", err)
			}
			sourcesJSON = string(data)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, session_id, role, content, sources, model, latency_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, msg.ID, msg.SessionID, msg.Role, msg.Content, sourcesJSON, nullIfEmpty(msg.Model), msg.LatencyMs, msg.CreatedAt); err != nil {
			return fmt.Errorf("insert %s message: %w", msg.Role, err)
		}
	}

	return tx.Commit()
}

// ListSummaries returns per-session aggregates ordered by recency
func (r *SessionRepository) ListSummaries(ctx context.Context, limit int) ([]*domain.SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.title,
		       COUNT(m.id) AS message_count,
		       MAX(m.created_at) AS last_message_at
		FROM sessions s
		JOIN messages m ON m.session_id = s.id
		GROUP BY s.id, s.title
		ORDER BY last_message_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.SessionSummary
	for rows.Next() {
		summary := &domain.SessionSummary{}
		var title sql.NullString
		if err := rows.Scan(&summary.SessionID, &title, &summary.MessageCount, &summary.LastMessageAt); err != nil {
			return nil, err
		}
		if title.Valid {
			summary.Title = title.String
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, summary := range summaries {
		if err := r.fillLastMessage(ctx, summary); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

func (r *SessionRepository) fillLastMessage(ctx context.Context, summary *domain.SessionSummary) error {
	var content, role string
	err := r.db.QueryRowContext(ctx, `
		SELECT content, role FROM messages
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, summary.SessionID).Scan(&content, &role)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	summary.LastMessagePreview = truncate(content, previewRunes)
	summary.LastMessageRole = role
	return nil
}

// GetMessages retrieves all messages for a session ordered by creation
// time. Unknown sessions fail with ErrNotFound.
func (r *SessionRepository) GetMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	exists, err := r.sessionExists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, sources, model, latency_ms, created_at
		FROM messages WHERE session_id = ?
		ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		message := &domain.Message{}
		var sourcesJSON, model sql.NullString
		var latency sql.NullFloat64

		if err := rows.Scan(&message.ID, &message.SessionID, &message.Role,
			&message.Content, &sourcesJSON, &model, &latency, &message.CreatedAt); err != nil {
			return nil, err
		}

		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &message.Sources); err != nil {
				return nil, fmt.Errorf("unmarshal sources for message %s: %w", message.ID, err)
			}
		}
		if model.Valid {
			message.Model = model.String
		}
		if latency.Valid {
			v := latency.Float64
			message.LatencyMs = &v
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// Rename updates the session title and returns the refreshed summary
func (r *SessionRepository) Rename(ctx context.Context, sessionID, title string) (*domain.SessionSummary, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?
	`, title, time.Now().UTC(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("rename session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}

	summary := &domain.SessionSummary{SessionID: sessionID, Title: title}
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(id), MAX(created_at) FROM messages WHERE session_id = ?
	`, sessionID).Scan(&summary.MessageCount, &summary.LastMessageAt)
	if err != nil {
		return nil, err
	}
	if err := r.fillLastMessage(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// Delete removes the session and all its messages. Deleting an unknown
// session is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) sessionExists(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
