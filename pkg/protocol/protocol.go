// Package protocol defines the line-delimited text wire format.
//
// Every command and chat message is one \n-terminated line. Authentication
// commands carry their fields in a fixed key=value, &-joined encoding:
//
//	REGISTER:username=<u>&password=<p>
//	LOGIN:username=<u>&password=<p>
//	GET_USERS
//	QUIT
//
// Any other non-empty line from an authenticated client is a chat message.
package protocol

import (
	"errors"
	"strings"
)

const (
	// CmdRegister and CmdLogin prefix authentication requests.
	CmdRegister = "REGISTER:"
	CmdLogin    = "LOGIN:"

	// CmdGetUsers requests the online-user list (authenticated only).
	CmdGetUsers = "GET_USERS"

	// CmdQuit asks the server to close the connection.
	CmdQuit = "QUIT"

	// MaxLineLength bounds a single inbound line in bytes.
	MaxLineLength = 4096
)

// Server response lines.
const (
	RespRegisterOK       = "registration succeeded!"
	RespLoginOKPrefix    = "login succeeded! welcome "
	RespNotAuthenticated = "please register or log in first!"
	RespMalformed        = "invalid request: expected username=<user>&password=<pass>"

	RespRegisterFailPrefix = "registration failed: "
	RespLoginFailPrefix    = "login failed: "

	// UserListLabel prefixes the GET_USERS reply.
	UserListLabel = "online users:"
)

// ErrMalformedCredentials reports a payload that does not match the
// username=<u>&password=<p> encoding.
var ErrMalformedCredentials = errors.New("protocol: malformed credentials payload")

// ParseCredentials extracts the username and password from an auth command
// payload (the part after the REGISTER:/LOGIN: prefix).
func ParseCredentials(payload string) (username, password string, err error) {
	parts := strings.Split(payload, "&")
	if len(parts) != 2 {
		return "", "", ErrMalformedCredentials
	}

	username, ok := fieldValue(parts[0], "username")
	if !ok {
		return "", "", ErrMalformedCredentials
	}
	password, ok = fieldValue(parts[1], "password")
	if !ok {
		return "", "", ErrMalformedCredentials
	}
	return username, password, nil
}

func fieldValue(field, key string) (string, bool) {
	k, v, found := strings.Cut(field, "=")
	if !found || k != key || v == "" {
		return "", false
	}
	return v, true
}

// FormatChat renders a broadcast chat line as "[username]: text".
func FormatChat(username, text string) string {
	return "[" + username + "]: " + text
}

// FormatUserList renders the GET_USERS reply: the label followed by
// space-separated usernames in registration order.
func FormatUserList(usernames []string) string {
	if len(usernames) == 0 {
		return UserListLabel
	}
	return UserListLabel + " " + strings.Join(usernames, " ")
}

// LoginOK renders the successful login response for a user.
func LoginOK(username string) string {
	return RespLoginOKPrefix + username
}
