package store_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/talkroom/talkd/pkg/model"
	"github.com/talkroom/talkd/pkg/store"
)

func TestMemoryRegisterAuthenticate(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()

	if err := st.Register("johndoe", "a123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := st.Register("johndoe", "b456"); !errors.Is(err, model.ErrUsernameTaken) {
		t.Fatalf("duplicate Register = %v, want ErrUsernameTaken", err)
	}
	if err := st.Register("abc", "a123"); !errors.Is(err, model.ErrInvalidUsernameFormat) {
		t.Fatalf("short-username Register = %v, want ErrInvalidUsernameFormat", err)
	}

	if err := st.Authenticate("johndoe", "a123"); err != nil {
		t.Errorf("Authenticate: %v", err)
	}
	if err := st.Authenticate("johndoe", "b456"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("Authenticate wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestMemoryRegisterConcurrentSameUsername(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()

	const workers = 32
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

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, model.ErrUsernameTaken) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("want exactly 1 successful registration, got %d", ok)
	}
}
