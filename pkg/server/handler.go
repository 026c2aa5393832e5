package server

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/talkroom/talkd/pkg/model"
	"github.com/talkroom/talkd/pkg/protocol"
)

// handleConn runs the protocol state machine for one accepted connection.
// It owns the read side of the stream; the session's write pump owns the
// write side. Inbound lines are processed strictly in arrival order.
func (s *Server) handleConn(stream io.ReadWriteCloser, remote string) {
	sess := NewSession(stream, remote, s.cfg.SendBuffer)
	s.registry.Register(sess)
	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	slog.Debug("new connection", "session", sess.ID(), "remote", remote)

	go sess.writePump()

	defer func() {
		// Teardown order per the session lifecycle: leave the registry,
		// then release the stream and outbound handle. Both steps are
		// idempotent, so a racing broadcast-failure Close is harmless.
		s.registry.Remove(sess)
		sess.Close()
		s.metrics.ActiveConnections.Add(-1)
		s.metrics.TotalDisconnects.Add(1)
		slog.Info("client disconnected", "session", sess.ID(), "remote", remote, "user", sess.Username())
	}()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 1024), s.cfg.MaxLineBytes)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !s.dispatch(sess, line) {
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("read error", "session", sess.ID(), "remote", remote, "err", err)
	}
}

// dispatch routes one inbound line according to the session state.
// It returns false when the connection should close.
func (s *Server) dispatch(sess *Session, line string) bool {
	if line == "" {
		return true
	}
	if line == protocol.CmdQuit {
		return false
	}
	if sess.Authenticated() {
		s.dispatchChat(sess, line)
		return true
	}
	s.dispatchAuth(sess, line)
	return true
}

// dispatchAuth handles lines from unauthenticated sessions. Anything that
// is not a well-formed REGISTER or LOGIN leaves the state unchanged and
// gets a rejection line.
func (s *Server) dispatchAuth(sess *Session, line string) {
	switch {
	case strings.HasPrefix(line, protocol.CmdRegister):
		s.handleRegister(sess, strings.TrimPrefix(line, protocol.CmdRegister))
	case strings.HasPrefix(line, protocol.CmdLogin):
		s.handleLogin(sess, strings.TrimPrefix(line, protocol.CmdLogin))
	default:
		sess.TrySend(protocol.RespNotAuthenticated)
	}
}

func (s *Server) handleRegister(sess *Session, payload string) {
	username, password, err := protocol.ParseCredentials(payload)
	if err != nil {
		sess.TrySend(protocol.RespMalformed)
		return
	}

	if err := s.store.Register(username, password); err != nil {
		s.metrics.FailedAuths.Add(1)
		sess.TrySend(protocol.RespRegisterFailPrefix + authFailureReason(err))
		slog.Debug("registration rejected", "session", sess.ID(), "username", username, "err", err)
		return
	}

	s.authenticated(sess, username)
	s.metrics.Registrations.Add(1)
	sess.TrySend(protocol.RespRegisterOK)
	slog.Info("user registered", "session", sess.ID(), "user", username)
}

func (s *Server) handleLogin(sess *Session, payload string) {
	username, password, err := protocol.ParseCredentials(payload)
	if err != nil {
		sess.TrySend(protocol.RespMalformed)
		return
	}

	if err := s.store.Authenticate(username, password); err != nil {
		s.metrics.FailedAuths.Add(1)
		sess.TrySend(protocol.RespLoginFailPrefix + authFailureReason(err))
		slog.Debug("login rejected", "session", sess.ID(), "username", username, "err", err)
		return
	}

	s.authenticated(sess, username)
	sess.TrySend(protocol.LoginOK(username))
	slog.Info("user logged in", "session", sess.ID(), "user", username)
}

func (s *Server) authenticated(sess *Session, username string) {
	if err := sess.Authenticate(username); err != nil {
		// Unreachable through dispatch: auth commands are only routed to
		// unauthenticated sessions.
		slog.Error("session state transition failed", "session", sess.ID(), "err", err)
		return
	}
	s.metrics.SuccessfulAuths.Add(1)
}

// dispatchChat handles lines from authenticated sessions: the reserved
// GET_USERS query is answered to the sender only, everything else is a
// chat message broadcast to all other live sessions.
func (s *Server) dispatchChat(sess *Session, line string) {
	if strings.HasPrefix(line, protocol.CmdGetUsers) {
		s.metrics.UserListRequests.Add(1)
		sess.TrySend(protocol.FormatUserList(s.registry.OnlineUsernames()))
		return
	}

	delivered, dropped := s.registry.Broadcast(protocol.FormatChat(sess.Username(), line), sess)
	s.metrics.ChatMessagesSent.Add(1)
	s.metrics.BroadcastsDelivered.Add(int64(delivered))
	s.metrics.BroadcastsDropped.Add(int64(dropped))
}

// authFailureReason maps credential-store errors to wire response reasons.
func authFailureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidUsernameFormat):
		return model.ErrInvalidUsernameFormat.Error()
	case errors.Is(err, model.ErrInvalidPasswordFormat):
		return model.ErrInvalidPasswordFormat.Error()
	case errors.Is(err, model.ErrUsernameTaken):
		return model.ErrUsernameTaken.Error()
	case errors.Is(err, model.ErrInvalidCredentials):
		return model.ErrInvalidCredentials.Error()
	default:
		return "internal error"
	}
}
