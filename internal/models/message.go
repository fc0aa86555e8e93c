package models

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Message senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// TimestampLayout formats timestamps with fixed-width microseconds so that
// string comparison matches chronological order for UTC times.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Message represents a single exchanged message stored in the conversation
// ledger and the response channel. Immutable once created.
type Message struct {
	ID        string `json:"id"`              // ULID
	Text      string `json:"message"`         // wire key shared with the bot workers
	Sender    string `json:"sender"`          // "user" or "bot"
	Agent     string `json:"agent,omitempty"` // producing agent for bot messages
	Timestamp string `json:"timestamp"`
}

// NewMessage creates a message with a fresh ULID and the current UTC timestamp.
func NewMessage(text, sender string) *Message {
	return &Message{
		ID:        ulid.Make().String(),
		Text:      text,
		Sender:    sender,
		Timestamp: Now(),
	}
}

// Now returns the current UTC time in TimestampLayout.
func Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}
