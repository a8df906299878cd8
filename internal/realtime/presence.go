package realtime

import (
	"sync"
	"time"
)

// Status is an identity's aggregate availability derived from its live
// connections plus explicit user action.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// ValidStatus reports whether a client-supplied status value is one a user
// may set explicitly. Offline is excluded: it is reachable only by closing
// the last connection.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy:
		return true
	default:
		return false
	}
}

// PresenceChange records one actual status transition.
type PresenceChange struct {
	UserID string    `json:"user_id"`
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

// Presence tracks per-identity status and last-changed timestamps. It owns
// its own state; the connection registry drives the online/offline edges
// through the OnConnection* hooks.
type Presence struct {
	mu          sync.Mutex
	status      map[string]Status
	lastChanged map[string]time.Time
	now         func() time.Time
}

// NewPresence creates an empty presence tracker.
func NewPresence() *Presence {
	return &Presence{
		status:      make(map[string]Status),
		lastChanged: make(map[string]time.Time),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetStatus applies an explicit user status change. It returns nil when the
// status is unchanged or the identity has no live connection, so callers
// skip redundant fan-out.
func (p *Presence) SetStatus(userID string, status Status) *PresenceChange {
	if !ValidStatus(status) {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	current, known := p.status[userID]
	if !known || current == StatusOffline || current == status {
		return nil
	}
	return p.transition(userID, status)
}

// OnConnectionRegistered marks an identity online when its first connection
// appears. Additional connections for an already-online identity produce no
// change.
func (p *Presence) OnConnectionRegistered(userID string) *PresenceChange {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, known := p.status[userID]
	if known && current != StatusOffline {
		return nil
	}
	return p.transition(userID, StatusOnline)
}

// OnConnectionUnregistered transitions an identity offline only once its
// connection count reaches zero.
func (p *Presence) OnConnectionUnregistered(userID string, remaining int) *PresenceChange {
	if remaining > 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if current, known := p.status[userID]; !known || current == StatusOffline {
		return nil
	}
	return p.transition(userID, StatusOffline)
}

// StatusOf returns the identity's current status, offline when unknown.
func (p *Presence) StatusOf(userID string) Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if status, known := p.status[userID]; known {
		return status
	}
	return StatusOffline
}

// LastChangedAt returns when the identity's status last transitioned.
func (p *Presence) LastChangedAt(userID string) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastChanged[userID]
}

func (p *Presence) transition(userID string, status Status) *PresenceChange {
	at := p.now()
	p.status[userID] = status
	p.lastChanged[userID] = at
	return &PresenceChange{UserID: userID, Status: status, At: at}
}
