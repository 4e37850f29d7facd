// Package presence holds the connection registry and the presence view
// derived from it. Neither type is safe for concurrent use; the hub that
// owns them serializes every call.
package presence

import (
	"errors"
	"strings"
)

// UnknownSender labels messages from connections that never joined.
const UnknownSender = "Unknown"

// ErrInvalidJoin is returned by Register when the username is blank.
var ErrInvalidJoin = errors.New("join requires a non-empty username")

// Registry maps connection ids to the username each one joined as.
type Registry struct {
	sessions map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]string),
	}
}

// Register binds connID to the trimmed username, replacing any previous
// session for that connection. It returns the stored username, which is what
// presence and join notices show: " alice " is stored and announced as "alice".
func (r *Registry) Register(connID, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrInvalidJoin
	}
	r.sessions[connID] = username
	return username, nil
}

// Unregister removes the session for connID and reports the username it held.
func (r *Registry) Unregister(connID string) (string, bool) {
	username, ok := r.sessions[connID]
	if ok {
		delete(r.sessions, connID)
	}
	return username, ok
}

func (r *Registry) Lookup(connID string) (string, bool) {
	username, ok := r.sessions[connID]
	return username, ok
}

func (r *Registry) Len() int {
	return len(r.sessions)
}
