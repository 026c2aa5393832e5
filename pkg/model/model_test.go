package model_test

import (
	"errors"
	"testing"

	"github.com/talkroom/talkd/pkg/model"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	type tcase struct {
		username string
		wantErr  error
	}

	tcases := map[string]tcase{
		"six_letters": {
			username: "abcdef",
			wantErr:  nil,
		},
		"eighteen_letters": {
			username: "abcdefghijklmnopqr",
			wantErr:  nil,
		},
		"mixed_case": {
			username: "JohnDoe",
			wantErr:  nil,
		},
		"too_short": {
			username: "abc",
			wantErr:  model.ErrInvalidUsernameFormat,
		},
		"too_long": {
			username: "abcdefghijklmnopqrs",
			wantErr:  model.ErrInvalidUsernameFormat,
		},
		"contains_digits": {
			username: "abc123",
			wantErr:  model.ErrInvalidUsernameFormat,
		},
		"contains_space": {
			username: "john doe",
			wantErr:  model.ErrInvalidUsernameFormat,
		},
		"empty": {
			username: "",
			wantErr:  model.ErrInvalidUsernameFormat,
		},
		"injection": {
			username: "' OR '1'='1",
			wantErr:  model.ErrInvalidUsernameFormat,
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			err := model.ValidateUsername(tc.username)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ValidateUsername(%q) = %v, want %v", tc.username, err, tc.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	type tcase struct {
		password string
		wantErr  error
	}

	tcases := map[string]tcase{
		"shortest_valid": {
			password: "a12",
			wantErr:  nil,
		},
		"longest_valid": {
			password: "z1234567",
			wantErr:  nil,
		},
		"uppercase_letter": {
			password: "A99",
			wantErr:  nil,
		},
		"starts_with_digit": {
			password: "12ab",
			wantErr:  model.ErrInvalidPasswordFormat,
		},
		"too_long": {
			password: "a123456789",
			wantErr:  model.ErrInvalidPasswordFormat,
		},
		"too_short": {
			password: "a1",
			wantErr:  model.ErrInvalidPasswordFormat,
		},
		"letters_after_first": {
			password: "abc123",
			wantErr:  model.ErrInvalidPasswordFormat,
		},
		"empty": {
			password: "",
			wantErr:  model.ErrInvalidPasswordFormat,
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			err := model.ValidatePassword(tc.password)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ValidatePassword(%q) = %v, want %v", tc.password, err, tc.wantErr)
			}
		})
	}
}
