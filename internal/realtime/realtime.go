// Package realtime implements the in-memory core of the live messaging
// layer: connection bookkeeping, room membership for fan-out scoping,
// presence tracking and event delivery. It holds no transport or storage
// concerns; the websocket service drives it and repositories persist what
// needs to outlive a connection.
package realtime

import "errors"

// Identity describes the authenticated owner of a connection.
type Identity struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	CampusID string `json:"campus_id"`
}

// Sink is the delivery end of one live connection. TrySend must not block;
// it reports false when the event could not be handed off (buffer full or
// connection already closed).
type Sink interface {
	TrySend(event Event) bool
}

var (
	// ErrDuplicateConnection indicates a connection id collision during registration.
	ErrDuplicateConnection = errors.New("connection id already registered")
	// ErrConnectionNotFound indicates an operation referenced an unregistered connection.
	ErrConnectionNotFound = errors.New("connection not registered")
)
