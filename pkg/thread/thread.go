// Package thread defines the core domain model for the archaeology
// pipeline: threads, messages, confidence scores, drift markers,
// correction anchors, and per-thread drift profiles.
package thread

import (
	"fmt"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a raw role string from an export.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Message is a single utterance in a thread. Messages are immutable once
// parsed and are owned exclusively by their thread.
type Message struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"thread_id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	Seq       int             `json:"seq"`
	Score     ConfidenceScore `json:"confidence"`
	Markers   []DriftMarker   `json:"markers,omitempty"`
}

// Thread is one conversation: an ordered sequence of messages sorted by
// creation time, with zero-based sequence numbers.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Window returns the messages within ±n sequence positions of idx,
// excluding the message at idx itself. Bounds are clamped to the thread.
func (t *Thread) Window(idx, n int) []Message {
	if idx < 0 || idx >= len(t.Messages) {
		return nil
	}

	lo := max(idx-n, 0)
	hi := min(idx+n+1, len(t.Messages))

	window := make([]Message, 0, hi-lo-1)
	window = append(window, t.Messages[lo:idx]...)
	window = append(window, t.Messages[idx+1:hi]...)
	return window
}
