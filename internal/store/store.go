package store

import (
	"context"
	"time"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
)

// User represents a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// MessageStore handles chat message persistence.
type MessageStore interface {
	// SaveMessage persists a message, assigning an id (and timestamp if
	// zero), and returns the stored form.
	SaveMessage(ctx context.Context, msg *chat.Message) (*chat.Message, error)

	// ListGlobalMessages returns global messages, newest first.
	ListGlobalMessages(ctx context.Context, limit int) ([]*chat.Message, error)

	// ListPrivateMessages returns the private conversation between two
	// users in both directions, newest first.
	ListPrivateMessages(ctx context.Context, userA, userB string, limit int) ([]*chat.Message, error)
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser inserts a new account with an already-hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves an account by id.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves an account by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsernames lists all registered usernames.
	ListUsernames(ctx context.Context) ([]string, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageStore
	UserStore

	// Close closes the underlying database connection.
	Close() error
}
