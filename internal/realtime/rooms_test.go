package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomsJoinAndSubscribers(t *testing.T) {
	rooms := NewRooms()

	rooms.Join("conn-1", "room-a")
	rooms.Join("conn-2", "room-a")
	rooms.Join("conn-1", "room-b")

	require.ElementsMatch(t, []string{"conn-1", "conn-2"}, rooms.SubscribersOf("room-a"))
	require.ElementsMatch(t, []string{"conn-1"}, rooms.SubscribersOf("room-b"))
	require.ElementsMatch(t, []string{"room-a", "room-b"}, rooms.RoomsOf("conn-1"))
}

func TestRoomsJoinIdempotent(t *testing.T) {
	rooms := NewRooms()

	rooms.Join("conn-1", "room-a")
	rooms.Join("conn-1", "room-a")

	require.Len(t, rooms.SubscribersOf("room-a"), 1)
	require.Len(t, rooms.RoomsOf("conn-1"), 1)
}

func TestRoomsLeaveIdempotent(t *testing.T) {
	rooms := NewRooms()

	rooms.Join("conn-1", "room-a")
	rooms.Leave("conn-1", "room-a")
	require.Empty(t, rooms.SubscribersOf("room-a"))
	require.Empty(t, rooms.RoomsOf("conn-1"))

	// Leaving again, or leaving rooms never joined, must be a no-op.
	rooms.Leave("conn-1", "room-a")
	rooms.Leave("conn-1", "room-never-joined")
	rooms.Leave("conn-unknown", "room-a")
	require.Empty(t, rooms.SubscribersOf("room-a"))
}

func TestRoomsPurgeRemovesEveryMembership(t *testing.T) {
	rooms := NewRooms()

	for i := 0; i < roomShardCount*2; i++ {
		rooms.Join("conn-1", fmt.Sprintf("room-%d", i))
	}
	rooms.Join("conn-2", "room-0")

	rooms.Purge("conn-1")

	require.Empty(t, rooms.RoomsOf("conn-1"))
	for i := 1; i < roomShardCount*2; i++ {
		require.Empty(t, rooms.SubscribersOf(fmt.Sprintf("room-%d", i)))
	}
	// Other connections keep their memberships.
	require.ElementsMatch(t, []string{"conn-2"}, rooms.SubscribersOf("room-0"))

	// Purging an unknown connection is harmless.
	rooms.Purge("conn-unknown")
}

func TestRoomsConcurrentJoinLeavePurge(t *testing.T) {
	rooms := NewRooms()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", i)
			for j := 0; j < 20; j++ {
				roomID := fmt.Sprintf("room-%d", j%7)
				rooms.Join(connID, roomID)
				rooms.Leave(connID, roomID)
			}
			rooms.Join(connID, "room-final")
			rooms.Purge(connID)
		}(i)
	}
	wg.Wait()

	for j := 0; j < 7; j++ {
		require.Empty(t, rooms.SubscribersOf(fmt.Sprintf("room-%d", j)))
	}
	require.Empty(t, rooms.SubscribersOf("room-final"))
}
