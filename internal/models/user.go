package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered web user. The ID (not the username) keys all
// per-user Redis state, so usernames can change without orphaning history.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
