package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/talkroom/talkd/pkg/crypto"
	"github.com/talkroom/talkd/pkg/model"
)

// MemoryStore provides an in-memory CredentialStore implementation for
// tests. It mirrors SQLite behavior for validation and error handling.
type MemoryStore struct {
	mu sync.RWMutex

	now func() time.Time

	nextUserID      int64
	usersByUsername map[string]*memoryUser
}

type memoryUser struct {
	user model.User
	salt []byte
	hash []byte
}

// NewMemory creates a MemoryStore using time.Now().UTC().
func NewMemory() *MemoryStore {
	return NewMemoryWithClock(func() time.Time { return time.Now().UTC() })
}

// NewMemoryWithClock creates a MemoryStore with a custom clock.
func NewMemoryWithClock(now func() time.Time) *MemoryStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryStore{
		now:             now,
		nextUserID:      1,
		usersByUsername: make(map[string]*memoryUser),
	}
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}

// Register creates a new account in memory.
func (s *MemoryStore) Register(username, password string) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[username]; exists {
		return fmt.Errorf("store: register: %w", model.ErrUsernameTaken)
	}
	s.usersByUsername[username] = &memoryUser{
		user: model.User{
			ID:        s.nextUserID,
			Username:  username,
			CreatedAt: s.now(),
		},
		salt: salt,
		hash: hash,
	}
	s.nextUserID++
	return nil
}

// Authenticate verifies a username/password pair.
func (s *MemoryStore) Authenticate(username, password string) error {
	s.mu.RLock()
	entry, ok := s.usersByUsername[username]
	s.mu.RUnlock()

	if !ok || !crypto.VerifyPassword(password, entry.salt, entry.hash) {
		return fmt.Errorf("store: authenticate: %w", model.ErrInvalidCredentials)
	}
	return nil
}

// GetUserByUsername retrieves a user by username. Returns (nil, nil) if not found.
func (s *MemoryStore) GetUserByUsername(username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.usersByUsername[username]
	if !ok {
		return nil, nil
	}
	u := entry.user
	return &u, nil
}

// ListUsers returns all registered users in registration order.
func (s *MemoryStore) ListUsers() ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.User, 0, len(s.usersByUsername))
	for _, entry := range s.usersByUsername {
		users = append(users, entry.user)
	}
	// Map iteration order is random; restore insertion order by ID.
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
