// Package model defines the core domain types for talkd.
package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinUsernameLength = 6
	MaxUsernameLength = 18

	// Passwords are a single letter followed by 2-7 digits.
	MinPasswordLength = 3
	MaxPasswordLength = 8
)

var (
	ErrInvalidUsernameFormat = fmt.Errorf("username must be %d-%d letters", MinUsernameLength, MaxUsernameLength)
	ErrInvalidPasswordFormat = fmt.Errorf("password must be %d-%d characters: a letter followed by digits", MinPasswordLength, MaxPasswordLength)
	ErrUsernameTaken         = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("incorrect username or password")
)

// User represents a registered account.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateUsername checks that a username is 6-18 ASCII letters.
// Returns nil on success or ErrInvalidUsernameFormat.
func ValidateUsername(name string) error {
	if len(name) < MinUsernameLength || len(name) > MaxUsernameLength {
		return ErrInvalidUsernameFormat
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return ErrInvalidUsernameFormat
		}
	}
	return nil
}

// ValidatePassword checks that a password is a single ASCII letter followed
// by 2-7 digits (3-8 characters total). Returns nil on success or
// ErrInvalidPasswordFormat.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return ErrInvalidPasswordFormat
	}
	first := password[0]
	if (first < 'a' || first > 'z') && (first < 'A' || first > 'Z') {
		return ErrInvalidPasswordFormat
	}
	for i := 1; i < len(password); i++ {
		if password[i] < '0' || password[i] > '9' {
			return ErrInvalidPasswordFormat
		}
	}
	return nil
}
