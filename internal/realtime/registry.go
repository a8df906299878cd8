package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type connection struct {
	identity      Identity
	sink          Sink
	establishedAt time.Time
}

// Registry tracks live connections and their owning identities. An identity
// may own many concurrent connections (multi-device); the registry is pure
// bookkeeping and surfaces side effects only through the presence tracker
// hooks it invokes on register/unregister.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*connection
	byUser   map[string]map[string]struct{}
	presence *Presence
	log      zerolog.Logger
}

// NewRegistry creates a connection registry wired to the given presence tracker.
func NewRegistry(presence *Presence, logger zerolog.Logger) *Registry {
	return &Registry{
		conns:    make(map[string]*connection),
		byUser:   make(map[string]map[string]struct{}),
		presence: presence,
		log:      logger.With().Str("component", "connection_registry").Logger(),
	}
}

// Register binds a connection id to its authenticated identity and delivery
// sink. The returned presence change is non-nil when this connection brought
// the identity online.
func (r *Registry) Register(connID string, identity Identity, sink Sink) (*PresenceChange, error) {
	r.mu.Lock()
	if _, exists := r.conns[connID]; exists {
		r.mu.Unlock()
		return nil, ErrDuplicateConnection
	}

	r.conns[connID] = &connection{identity: identity, sink: sink, establishedAt: time.Now().UTC()}
	if _, exists := r.byUser[identity.UserID]; !exists {
		r.byUser[identity.UserID] = make(map[string]struct{})
	}
	r.byUser[identity.UserID][connID] = struct{}{}
	r.mu.Unlock()

	r.log.Debug().Str("conn_id", connID).Str("user_id", identity.UserID).Msg("connection registered")
	return r.presence.OnConnectionRegistered(identity.UserID), nil
}

// Unregister removes a connection. The returned presence change is non-nil
// when this was the identity's last live connection and it went offline.
func (r *Registry) Unregister(connID string) (Identity, *PresenceChange, error) {
	r.mu.Lock()
	conn, exists := r.conns[connID]
	if !exists {
		r.mu.Unlock()
		return Identity{}, nil, ErrConnectionNotFound
	}

	delete(r.conns, connID)
	userID := conn.identity.UserID
	remaining := 0
	if set, ok := r.byUser[userID]; ok {
		delete(set, connID)
		remaining = len(set)
		if remaining == 0 {
			delete(r.byUser, userID)
		}
	}
	r.mu.Unlock()

	r.log.Debug().Str("conn_id", connID).Str("user_id", userID).Int("remaining", remaining).Msg("connection unregistered")
	return conn.identity, r.presence.OnConnectionUnregistered(userID, remaining), nil
}

// ConnectionsFor returns the connection ids currently owned by an identity.
func (r *Registry) ConnectionsFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// IdentityFor resolves the identity owning a connection.
func (r *Registry) IdentityFor(connID string) (Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.conns[connID]
	if !exists {
		return Identity{}, ErrConnectionNotFound
	}
	return conn.identity, nil
}

// SinkFor resolves the delivery sink of a connection.
func (r *Registry) SinkFor(connID string) (Sink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.conns[connID]
	if !exists {
		return nil, ErrConnectionNotFound
	}
	return conn.sink, nil
}

// Snapshot returns all live connection ids, used for global broadcasts.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}
