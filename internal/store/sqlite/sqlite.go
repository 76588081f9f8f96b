package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
	"github.com/Mohammed-Khaledx/connect-chat/internal/store"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	sender_id   TEXT NOT NULL,
	user_name   TEXT NOT NULL,
	receiver_id TEXT,
	content     TEXT NOT NULL,
	timestamp   DATETIME NOT NULL,
	is_global   BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_global ON messages (is_global, timestamp);
CREATE INDEX IF NOT EXISTS idx_messages_private ON messages (sender_id, receiver_id, timestamp);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup opens the database and runs a setup function before use.
// Tests use it with ":memory:" and a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and returns the stored form with its id
// assigned. A zero timestamp is stamped with the current time.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *chat.Message) (*chat.Message, error) {
	saved := *msg
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.Timestamp.IsZero() {
		saved.Timestamp = chat.Now()
	}

	var receiver sql.NullString
	if saved.ReceiverID != "" {
		receiver = sql.NullString{String: saved.ReceiverID, Valid: true}
	}

	query := `
		INSERT INTO messages (id, sender_id, user_name, receiver_id, content, timestamp, is_global)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		saved.ID, saved.SenderID, saved.UserName, receiver,
		saved.Content, saved.Timestamp.UTC(), saved.Global,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &saved, nil
}

// ListGlobalMessages returns global messages, newest first.
func (s *SQLiteStore) ListGlobalMessages(ctx context.Context, limit int) ([]*chat.Message, error) {
	query := `
		SELECT id, sender_id, user_name, COALESCE(receiver_id, ''), content, timestamp, is_global
		FROM messages
		WHERE is_global = 1
		ORDER BY timestamp DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query global messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListPrivateMessages returns the conversation between two users in both
// directions, newest first.
func (s *SQLiteStore) ListPrivateMessages(ctx context.Context, userA, userB string, limit int) ([]*chat.Message, error) {
	query := `
		SELECT id, sender_id, user_name, COALESCE(receiver_id, ''), content, timestamp, is_global
		FROM messages
		WHERE is_global = 0
		  AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		ORDER BY timestamp DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, userA, userB, userB, userA, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query private messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*chat.Message, error) {
	messages := make([]*chat.Message, 0)
	for rows.Next() {
		var msg chat.Message
		var ts time.Time
		if err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.UserName, &msg.ReceiverID,
			&msg.Content, &ts, &msg.Global,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Timestamp = chat.Timestamp{Time: ts.UTC()}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

// ==== UserStore implementation ====

// CreateUser inserts a new account with an already-hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, id, username, email, passwordHash); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves an account by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves an account by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// ListUsernames lists all registered usernames.
func (s *SQLiteStore) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query usernames: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}
	return names, nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
