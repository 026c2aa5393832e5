package server

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry is the authoritative set of live sessions. All membership
// mutation and enumeration goes through its lock, so a broadcast always
// observes a consistent snapshot: a session concurrently being removed
// either receives a message or does not, never partially.
type Registry struct {
	mu      sync.RWMutex
	seq     uint64
	members map[string]*member // session ID -> member
}

type member struct {
	sess *Session
	seq  uint64 // registration order, monotonically increasing
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		members: make(map[string]*member),
	}
}

// Register adds a session to the membership set. It always succeeds;
// subsequent enumerations and broadcasts include the session.
func (r *Registry) Register(sess *Session) {
	r.mu.Lock()
	r.seq++
	r.members[sess.ID()] = &member{sess: sess, seq: r.seq}
	count := len(r.members)
	r.mu.Unlock()
	slog.Debug("session registered", "session", sess.ID(), "remote", sess.Remote(), "online", count)
}

// Remove deletes a session from the membership set. Removing a non-member
// is a no-op, so racing teardown paths (read error vs. explicit quit) are
// safe.
func (r *Registry) Remove(sess *Session) {
	r.mu.Lock()
	_, ok := r.members[sess.ID()]
	if ok {
		delete(r.members, sess.ID())
	}
	count := len(r.members)
	r.mu.Unlock()
	if ok {
		slog.Debug("session removed", "session", sess.ID(), "online", count)
	}
}

// Count returns the number of member sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// snapshot returns the member sessions in registration order.
func (r *Registry) snapshot() []*Session {
	r.mu.RLock()
	entries := make([]*member, 0, len(r.members))
	for _, m := range r.members {
		entries = append(entries, m)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	sessions := make([]*Session, len(entries))
	for i, m := range entries {
		sessions[i] = m.sess
	}
	return sessions
}

// OnlineUsernames returns the usernames of all authenticated member
// sessions in registration order. Unauthenticated sessions are excluded.
// Returns an empty slice, never an error, when none are authenticated.
func (r *Registry) OnlineUsernames() []string {
	names := make([]string, 0)
	for _, sess := range r.snapshot() {
		if sess.Authenticated() {
			names = append(names, sess.Username())
		}
	}
	return names
}

// Broadcast delivers line to every member session except exclude. Delivery
// is per-recipient best-effort: a recipient whose outbound queue is full or
// whose stream is dead is torn down and skipped, and neither stalls the
// caller nor affects other recipients. Returns the delivery and drop counts.
func (r *Registry) Broadcast(line string, exclude *Session) (delivered, dropped int) {
	for _, sess := range r.snapshot() {
		if sess == exclude || sess.Closed() {
			continue
		}
		if sess.TrySend(line) {
			delivered++
			continue
		}
		// Failed delivery is the recipient's problem, not the sender's:
		// closing the stream unblocks its handler, which runs the normal
		// teardown path and removes it from the registry.
		slog.Warn("dropping unresponsive session", "session", sess.ID(), "remote", sess.Remote())
		sess.Close()
		dropped++
	}
	return delivered, dropped
}

// CloseAll closes every member session. Used during server shutdown.
func (r *Registry) CloseAll() {
	for _, sess := range r.snapshot() {
		sess.Close()
	}
}
