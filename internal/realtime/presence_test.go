package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPresenceUnknownUserIsOffline(t *testing.T) {
	presence := NewPresence()

	require.Equal(t, StatusOffline, presence.StatusOf("stranger"))
	require.True(t, presence.LastChangedAt("stranger").IsZero())
}

func TestPresenceConnectionLifecycle(t *testing.T) {
	presence := NewPresence()

	change := presence.OnConnectionRegistered("user-1")
	require.NotNil(t, change)
	require.Equal(t, StatusOnline, change.Status)
	require.Equal(t, StatusOnline, presence.StatusOf("user-1"))

	require.Nil(t, presence.OnConnectionRegistered("user-1"), "already online")

	require.Nil(t, presence.OnConnectionUnregistered("user-1", 1), "connections remain")
	require.Equal(t, StatusOnline, presence.StatusOf("user-1"))

	change = presence.OnConnectionUnregistered("user-1", 0)
	require.NotNil(t, change)
	require.Equal(t, StatusOffline, change.Status)
	require.Equal(t, StatusOffline, presence.StatusOf("user-1"))

	require.Nil(t, presence.OnConnectionUnregistered("user-1", 0), "already offline")
}

func TestPresenceSetStatus(t *testing.T) {
	presence := NewPresence()
	presence.OnConnectionRegistered("user-1")

	change := presence.SetStatus("user-1", StatusBusy)
	require.NotNil(t, change)
	require.Equal(t, StatusBusy, change.Status)
	require.Equal(t, StatusBusy, presence.StatusOf("user-1"))

	require.Nil(t, presence.SetStatus("user-1", StatusBusy), "unchanged status")
	require.Nil(t, presence.SetStatus("user-1", StatusOffline), "offline is not settable")
	require.Nil(t, presence.SetStatus("user-1", Status("invisible")), "unknown status")
	require.Equal(t, StatusBusy, presence.StatusOf("user-1"))

	require.Nil(t, presence.SetStatus("user-2", StatusAway), "no live connection")
	require.Equal(t, StatusOffline, presence.StatusOf("user-2"))
}

func TestPresenceSetStatusAfterOffline(t *testing.T) {
	presence := NewPresence()
	presence.OnConnectionRegistered("user-1")
	presence.OnConnectionUnregistered("user-1", 0)

	require.Nil(t, presence.SetStatus("user-1", StatusAway))
	require.Equal(t, StatusOffline, presence.StatusOf("user-1"))
}

func TestPresenceExplicitStatusSurvivesOtherDevices(t *testing.T) {
	presence := NewPresence()
	presence.OnConnectionRegistered("user-1")
	presence.SetStatus("user-1", StatusAway)

	// A second device connecting must not clobber the explicit status.
	require.Nil(t, presence.OnConnectionRegistered("user-1"))
	require.Equal(t, StatusAway, presence.StatusOf("user-1"))
}

func TestPresenceLastChangedAt(t *testing.T) {
	presence := NewPresence()
	clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	presence.now = func() time.Time { return clock }

	presence.OnConnectionRegistered("user-1")
	require.Equal(t, clock, presence.LastChangedAt("user-1"))

	clock = clock.Add(5 * time.Minute)
	change := presence.SetStatus("user-1", StatusBusy)
	require.NotNil(t, change)
	require.Equal(t, clock, change.At)
	require.Equal(t, clock, presence.LastChangedAt("user-1"))

	// A rejected change leaves the timestamp alone.
	presence.SetStatus("user-1", StatusBusy)
	require.Equal(t, clock, presence.LastChangedAt("user-1"))
}
