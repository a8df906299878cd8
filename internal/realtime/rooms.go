package realtime

import (
	"hash/fnv"
	"sync"
)

const roomShardCount = 32

type roomShard struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
}

type connShard struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{}
}

// Rooms maps room ids to the connections joined for live delivery and each
// connection back to its joined rooms. Locking is sharded by key so traffic
// on unrelated rooms never contends on a single lock. Mutations for one
// connection serialize on its shard, so a purge cannot interleave with a
// concurrent join or leave for the same connection.
type Rooms struct {
	rooms [roomShardCount]roomShard
	conns [roomShardCount]connShard
}

// NewRooms creates an empty room membership index.
func NewRooms() *Rooms {
	r := &Rooms{}
	for i := range r.rooms {
		r.rooms[i].members = make(map[string]map[string]struct{})
	}
	for i := range r.conns {
		r.conns[i].rooms = make(map[string]map[string]struct{})
	}
	return r
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % roomShardCount)
}

// Join subscribes a connection to a room for live delivery.
func (r *Rooms) Join(connID, roomID string) {
	cs := &r.conns[shardIndex(connID)]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.rooms[connID]; !exists {
		cs.rooms[connID] = make(map[string]struct{})
	}
	cs.rooms[connID][roomID] = struct{}{}

	rs := &r.rooms[shardIndex(roomID)]
	rs.mu.Lock()
	if _, exists := rs.members[roomID]; !exists {
		rs.members[roomID] = make(map[string]struct{})
	}
	rs.members[roomID][connID] = struct{}{}
	rs.mu.Unlock()
}

// Leave removes a connection from a room. Leaving a room that was never
// joined is a no-op.
func (r *Rooms) Leave(connID, roomID string) {
	cs := &r.conns[shardIndex(connID)]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	joined, exists := cs.rooms[connID]
	if !exists {
		return
	}
	if _, member := joined[roomID]; !member {
		return
	}
	delete(joined, roomID)
	if len(joined) == 0 {
		delete(cs.rooms, connID)
	}

	r.removeFromRoom(connID, roomID)
}

// Purge removes a connection from every room it had joined, called on
// disconnect. It holds the connection's shard for the whole sweep so no
// join or leave for the same connection can interleave.
func (r *Rooms) Purge(connID string) {
	cs := &r.conns[shardIndex(connID)]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	joined, exists := cs.rooms[connID]
	if !exists {
		return
	}
	delete(cs.rooms, connID)

	for roomID := range joined {
		r.removeFromRoom(connID, roomID)
	}
}

func (r *Rooms) removeFromRoom(connID, roomID string) {
	rs := &r.rooms[shardIndex(roomID)]
	rs.mu.Lock()
	defer rs.mu.Unlock()

	members, exists := rs.members[roomID]
	if !exists {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(rs.members, roomID)
	}
}

// SubscribersOf returns a snapshot of the connections joined to a room.
func (r *Rooms) SubscribersOf(roomID string) []string {
	rs := &r.rooms[shardIndex(roomID)]
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	members := rs.members[roomID]
	subscribers := make([]string, 0, len(members))
	for connID := range members {
		subscribers = append(subscribers, connID)
	}
	return subscribers
}

// RoomsOf returns a snapshot of the rooms a connection has joined.
func (r *Rooms) RoomsOf(connID string) []string {
	cs := &r.conns[shardIndex(connID)]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	joined := cs.rooms[connID]
	rooms := make([]string, 0, len(joined))
	for roomID := range joined {
		rooms = append(rooms, roomID)
	}
	return rooms
}
