// Package store provides persistence for talkd user accounts.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/talkroom/talkd/pkg/crypto"
	"github.com/talkroom/talkd/pkg/model"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// Store is the SQLite-backed credential store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set WAL: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const versionTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`
	if _, err := s.db.ExecContext(ctx, versionTable); err != nil {
		return err
	}

	var current int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&current); err != nil {
		return err
	}

	migrations := []struct {
		version    int
		statements []string
	}{
		{
			version: 1,
			statements: []string{`
			CREATE TABLE IF NOT EXISTS users (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				username      TEXT    NOT NULL UNIQUE CHECK(length(username) > 0),
				password_hash TEXT    NOT NULL,
				salt          TEXT    NOT NULL,
				created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
			);`},
		},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return err
		}
	}
	return nil
}

// Register creates a new account. The row is committed before Register
// returns, so a success reply to the client implies durability.
func (s *Store) Register(username, password string) error {
	if err := model.ValidateUsername(username); err != nil {
		return fmt.Errorf("store: register: %w", err)
	}
	if err := model.ValidatePassword(password); err != nil {
		return fmt.Errorf("store: register: %w", err)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("store: register: %w", err)
	}
	hash := crypto.HashPassword(password, salt)

	ctx := context.Background()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, salt) VALUES (?, ?, ?)",
		username, hex.EncodeToString(hash), hex.EncodeToString(salt))
	if err != nil {
		// The UNIQUE constraint is the arbiter under concurrent registration:
		// of two simultaneous inserts for one username exactly one commits.
		if isUniqueViolation(err) {
			return fmt.Errorf("store: register: %w", model.ErrUsernameTaken)
		}
		return fmt.Errorf("store: register: %w", err)
	}
	return nil
}

// Authenticate verifies a username/password pair.
func (s *Store) Authenticate(username, password string) error {
	ctx := context.Background()
	var hashHex, saltHex string
	row := s.db.QueryRowContext(ctx,
		"SELECT password_hash, salt FROM users WHERE username = ?", username)
	if err := row.Scan(&hashHex, &saltHex); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("store: authenticate: %w", model.ErrInvalidCredentials)
		}
		return fmt.Errorf("store: authenticate: %w", err)
	}

	hash, err := hex.DecodeString(hashHex)
	if err != nil {
		return fmt.Errorf("store: authenticate: decode hash: %w", err)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return fmt.Errorf("store: authenticate: decode salt: %w", err)
	}

	if !crypto.VerifyPassword(password, salt, hash) {
		return fmt.Errorf("store: authenticate: %w", model.ErrInvalidCredentials)
	}
	return nil
}

// GetUserByUsername retrieves a user by username. Returns (nil, nil) if not found.
func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	ctx := context.Background()
	var u model.User
	var createdAt string
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, created_at FROM users WHERE username = ?", username)
	if err := row.Scan(&u.ID, &u.Username, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get user: %w", err)
	}
	u.CreatedAt = parseDBTime(createdAt)
	return &u, nil
}

// ListUsers returns all registered users in insertion order.
func (s *Store) ListUsers() ([]model.User, error) {
	ctx := context.Background()
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var u model.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Username, &createdAt); err != nil {
			return nil, fmt.Errorf("store: list users: %w", err)
		}
		u.CreatedAt = parseDBTime(createdAt)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func parseDBTime(s string) time.Time {
	t, err := time.Parse(dbTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
