package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkierin/second-brain-web-interface/internal/models"
)

// DataStore defines the interface for persistent storage of web users.
// Both PostgresStore and SQLiteStore implement this interface; the Redis
// message state is deliberately kept out of it.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}
