// Package transcript keeps the session conversation log.
//
// The log is append-only and unbounded: it lives exactly as long as the
// session and is used for display only, so there is no eviction and no
// persistence.
package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks an utterance from the user.
	RoleUser Role = "user"

	// RoleModel marks a reply from the assistant.
	RoleModel Role = "model"
)

// Message is one conversation turn. Messages are never mutated after
// creation.
type Message struct {
	// ID is a unique key for dashboard rendering.
	ID string `json:"id"`

	// Role is the message author.
	Role Role `json:"role"`

	// Text is the utterance or reply text.
	Text string `json:"text"`

	// Timestamp is epoch milliseconds. Timestamps are non-decreasing in
	// insertion order.
	Timestamp int64 `json:"timestamp"`
}

// Log is an append-only ordered sequence of messages.
type Log struct {
	mu   sync.RWMutex
	msgs []Message
	last int64
}

// NewLog creates an empty conversation log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a message and returns it. Insertion order is conversational
// order: the caller appends the user turn before the corresponding model
// turn.
func (l *Log) Append(role Role, text string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().UnixMilli()
	// Wall clock can step backwards; keep insertion order non-decreasing.
	if ts < l.last {
		ts = l.last
	}
	l.last = ts

	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: ts,
	}
	l.msgs = append(l.msgs, msg)
	return msg
}

// Messages returns a copy of the log in insertion order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.msgs)
}
