package server

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// SessionState is the authentication state of a connection.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrAlreadyAuthenticated is returned when a session attempts a second
// authentication transition.
var ErrAlreadyAuthenticated = errors.New("server: session already authenticated")

// Session is the server-side state of one live client connection.
//
// The stream's write side is owned exclusively by the session's write pump;
// other goroutines deliver lines through TrySend, never by writing to the
// stream directly. The state machine moves Unauthenticated -> Authenticated
// at most once and never reverts; Closed is terminal.
type Session struct {
	id     string
	remote string
	stream io.ReadWriteCloser

	send chan string
	done chan struct{}

	closeOnce sync.Once

	mu       sync.RWMutex
	state    SessionState
	username string
}

// NewSession wraps an accepted connection in a Session. sendBuffer bounds
// the number of outbound lines queued for a slow reader before deliveries
// to it start failing.
func NewSession(stream io.ReadWriteCloser, remote string, sendBuffer int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Session{
		id:     uuid.NewString(),
		remote: remote,
		stream: stream,
		send:   make(chan string, sendBuffer),
		done:   make(chan struct{}),
	}
}

const defaultSendBuffer = 64

// ID returns the session's opaque identifier, stable for its lifetime.
func (s *Session) ID() string { return s.id }

// Remote returns the remote address the session was accepted from.
func (s *Session) Remote() string { return s.remote }

// State returns the current authentication state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Username returns the assigned username, or "" while unauthenticated.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Authenticated reports whether the session has completed register/login.
func (s *Session) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// Authenticate transitions the session to Authenticated and assigns its
// username. The transition happens exactly once.
func (s *Session) Authenticate(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnauthenticated {
		return ErrAlreadyAuthenticated
	}
	s.state = StateAuthenticated
	s.username = username
	return nil
}

// TrySend queues one line for delivery to this session without blocking.
// It reports false when the session is closed or its outbound buffer is
// full; the caller decides whether that is fatal for the recipient.
func (s *Session) TrySend(line string) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- line:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// Close tears the session down: the state becomes Closed and the underlying
// stream is closed, unblocking both the read loop and the write pump.
// Safe to call multiple times and from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		close(s.done)
		if err := s.stream.Close(); err != nil {
			slog.Debug("session stream close", "session", s.id, "err", err)
		}
	})
}

// Closed reports whether teardown has begun.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// writePump drains the outbound queue onto the stream, one line per send.
// It is the stream's only writer. A write error tears the session down.
func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case line := <-s.send:
			if _, err := io.WriteString(s.stream, line+"\n"); err != nil {
				slog.Debug("session write failed", "session", s.id, "remote", s.remote, "err", err)
				s.Close()
				return
			}
		}
	}
}
