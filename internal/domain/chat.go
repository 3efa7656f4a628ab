package domain

import "time"

// Session represents a chat session
type Session struct {
	ID        string    `json:"session_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message represents a chat message
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"-"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	Model     string    `json:"-"`
	LatencyMs *float64  `json:"latency_ms,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Source is a citation snapshot copied from a retrieved chunk's payload.
// It is not a live reference: deleting the underlying page later does not
// touch sources already stored on messages.
type Source struct {
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url,omitempty"`
	ChunkIndex *int    `json:"chunk_index,omitempty"`
	Score      float64 `json:"score,omitempty"`
	PageID     int64   `json:"page_id,omitempty"`
	Topic      string  `json:"topic,omitempty"`
}

// HistoryTurn is a previous exchange supplied by the client
type HistoryTurn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the request to send a chat message
type ChatRequest struct {
	Message     string        `json:"message"`
	SessionID   string        `json:"session_id,omitempty"`
	History     []HistoryTurn `json:"history,omitempty"`
	TopK        int           `json:"top_k,omitempty"`
	Model       string        `json:"model,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// ChatResponse is the response from a chat message
type ChatResponse struct {
	SessionID string    `json:"session_id"`
	Answer    string    `json:"answer"`
	Sources   []Source  `json:"sources"`
	LatencyMs float64   `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is a per-session aggregate for the session list
type SessionSummary struct {
	SessionID          string    `json:"session_id"`
	Title              string    `json:"title,omitempty"`
	MessageCount       int       `json:"message_count"`
	LastMessageAt      time.Time `json:"last_message_at"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
	LastMessageRole    string    `json:"last_message_role,omitempty"`
}

// SessionMessages is the full message history of one session
type SessionMessages struct {
	SessionID string     `json:"session_id"`
	Messages  []*Message `json:"messages"`
}

// RenameSessionRequest updates session metadata
type RenameSessionRequest struct {
	Title string `json:"title"`
}
