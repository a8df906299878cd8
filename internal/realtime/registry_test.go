package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// chanSink is a buffered test sink mirroring a per-connection send queue.
type chanSink struct {
	ch chan Event
}

func newChanSink(capacity int) *chanSink {
	return &chanSink{ch: make(chan Event, capacity)}
}

func (s *chanSink) TrySend(event Event) bool {
	select {
	case s.ch <- event:
		return true
	default:
		return false
	}
}

func testIdentity(userID string) Identity {
	return Identity{UserID: userID, Role: "student", CampusID: "campus-1"}
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	registry := NewRegistry(NewPresence(), zerolog.Nop())
	sink := newChanSink(1)

	change, err := registry.Register("conn-1", testIdentity("user-1"), sink)
	require.NoError(t, err)
	require.NotNil(t, change)
	require.Equal(t, "user-1", change.UserID)
	require.Equal(t, StatusOnline, change.Status)

	identity, err := registry.IdentityFor("conn-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.UserID)
	require.Equal(t, "campus-1", identity.CampusID)

	resolved, err := registry.SinkFor("conn-1")
	require.NoError(t, err)
	require.Same(t, sink, resolved.(*chanSink))

	require.ElementsMatch(t, []string{"conn-1"}, registry.ConnectionsFor("user-1"))
	require.ElementsMatch(t, []string{"conn-1"}, registry.Snapshot())
}

func TestRegistryRejectsDuplicateConnID(t *testing.T) {
	registry := NewRegistry(NewPresence(), zerolog.Nop())

	_, err := registry.Register("conn-1", testIdentity("user-1"), newChanSink(1))
	require.NoError(t, err)

	_, err = registry.Register("conn-1", testIdentity("user-2"), newChanSink(1))
	require.ErrorIs(t, err, ErrDuplicateConnection)

	// The original binding survives the rejected attempt.
	identity, err := registry.IdentityFor("conn-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.UserID)
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	registry := NewRegistry(NewPresence(), zerolog.Nop())

	_, _, err := registry.Unregister("missing")
	require.ErrorIs(t, err, ErrConnectionNotFound)

	_, err = registry.IdentityFor("missing")
	require.ErrorIs(t, err, ErrConnectionNotFound)

	_, err = registry.SinkFor("missing")
	require.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestRegistryMultiDevicePresenceEdges(t *testing.T) {
	presence := NewPresence()
	registry := NewRegistry(presence, zerolog.Nop())

	change, err := registry.Register("phone", testIdentity("user-1"), newChanSink(1))
	require.NoError(t, err)
	require.NotNil(t, change, "first connection brings the identity online")

	change, err = registry.Register("laptop", testIdentity("user-1"), newChanSink(1))
	require.NoError(t, err)
	require.Nil(t, change, "second device must not re-announce online")

	require.Len(t, registry.ConnectionsFor("user-1"), 2)

	_, change, err = registry.Unregister("phone")
	require.NoError(t, err)
	require.Nil(t, change, "identity still has a live connection")
	require.Equal(t, StatusOnline, presence.StatusOf("user-1"))

	identity, change, err := registry.Unregister("laptop")
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.UserID)
	require.NotNil(t, change, "last connection takes the identity offline")
	require.Equal(t, StatusOffline, change.Status)
	require.Empty(t, registry.ConnectionsFor("user-1"))
}

func TestRegistryConcurrentChurn(t *testing.T) {
	registry := NewRegistry(NewPresence(), zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", i)
			userID := fmt.Sprintf("user-%d", i%5)

			_, err := registry.Register(connID, testIdentity(userID), newChanSink(1))
			require.NoError(t, err)
			_, _, err = registry.Unregister(connID)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Empty(t, registry.Snapshot())
	for i := 0; i < 5; i++ {
		require.Empty(t, registry.ConnectionsFor(fmt.Sprintf("user-%d", i)))
	}
}
