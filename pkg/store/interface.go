package store

import (
	"github.com/talkroom/talkd/pkg/model"
)

// CredentialStore defines the persistence contract for user accounts.
// Implementations include the default SQLite store and an in-memory store
// for tests. Both operations must be individually atomic: of two concurrent
// Register calls for the same username at most one succeeds.
type CredentialStore interface {
	// Register validates the username and password formats, then creates
	// the account. The account is durable before Register returns.
	// Returns model.ErrInvalidUsernameFormat, model.ErrInvalidPasswordFormat,
	// or model.ErrUsernameTaken on failure.
	Register(username, password string) error

	// Authenticate checks a username/password pair against a prior
	// registration. Returns model.ErrInvalidCredentials when the account
	// does not exist or the password does not match.
	Authenticate(username, password string) error

	// GetUserByUsername retrieves a user by username. Returns (nil, nil) if not found.
	GetUserByUsername(username string) (*model.User, error)

	// ListUsers returns all registered users.
	ListUsers() ([]model.User, error)

	// Close closes the underlying storage connection.
	Close() error
}

// Compile-time checks: both stores implement CredentialStore.
var (
	_ CredentialStore = (*Store)(nil)
	_ CredentialStore = (*MemoryStore)(nil)
)
