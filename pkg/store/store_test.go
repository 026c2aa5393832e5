package store_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/talkroom/talkd/pkg/model"
	"github.com/talkroom/talkd/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store_test: failed to open db: %v", err)
	}

	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("store_test: close db: %v", err)
		}
	})

	return st
}

func TestRegister(t *testing.T) {
	t.Parallel()

	type tcase struct {
		username string
		password string
		wantErr  error
	}

	tcases := map[string]tcase{
		"valid": {
			username: "johndoe",
			password: "a123",
			wantErr:  nil,
		},
		"username_too_short": {
			username: "abc",
			password: "a123",
			wantErr:  model.ErrInvalidUsernameFormat,
		},
		"username_with_digits": {
			username: "abc123",
			password: "a123",
			wantErr:  model.ErrInvalidUsernameFormat,
		},
		"password_starts_with_digit": {
			username: "johndoe",
			password: "12ab",
			wantErr:  model.ErrInvalidPasswordFormat,
		},
		"password_too_long": {
			username: "johndoe",
			password: "a123456789",
			wantErr:  model.ErrInvalidPasswordFormat,
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			st := newTestStore(t)
			err := st.Register(tc.username, tc.password)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Register(%q, %q) = %v, want %v", tc.username, tc.password, err, tc.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if err := st.Register("johndoe", "a123"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := st.Register("johndoe", "b456")
	if !errors.Is(err, model.ErrUsernameTaken) {
		t.Fatalf("duplicate Register = %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterConcurrentSameUsername(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	const workers = 16
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = st.Register("johndoe", fmt.Sprintf("a%03d", i))
		}(i)
	}
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, model.ErrUsernameTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("want exactly 1 successful registration, got %d", ok)
	}
	if taken != workers-1 {
		t.Fatalf("want %d ErrUsernameTaken, got %d", workers-1, taken)
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if err := st.Register("johndoe", "a123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := st.Authenticate("johndoe", "a123"); err != nil {
		t.Errorf("Authenticate with correct password: %v", err)
	}
	if err := st.Authenticate("johndoe", "a124"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("Authenticate with wrong password = %v, want ErrInvalidCredentials", err)
	}
	if err := st.Authenticate("janedoe", "a123"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("Authenticate unknown user = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterDurable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := st.Register("johndoe", "a123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	// Reopen: the account must survive the restart.
	st2, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer func() { _ = st2.Close() }()

	if err := st2.Authenticate("johndoe", "a123"); err != nil {
		t.Fatalf("Authenticate after reopen: %v", err)
	}
}

func TestListUsers(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	for _, u := range []string{"aliceaa", "bobbobb", "carolcc"} {
		if err := st.Register(u, "a123"); err != nil {
			t.Fatalf("Register(%q): %v", u, err)
		}
	}

	users, err := st.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}

	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	want := []string{"aliceaa", "bobbobb", "carolcc"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("ListUsers order mismatch (-want +got):\n%s", diff)
	}
}

func TestGetUserByUsername(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if err := st.Register("johndoe", "a123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	u, err := st.GetUserByUsername("johndoe")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.Username != "johndoe" {
		t.Fatalf("GetUserByUsername = %+v, want johndoe", u)
	}

	missing, err := st.GetUserByUsername("nobodyx")
	if err != nil {
		t.Fatalf("GetUserByUsername(missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("GetUserByUsername(missing) = %+v, want nil", missing)
	}
}
