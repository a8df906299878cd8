package realtime

import "time"

// EventKind enumerates the live event types flowing through the fan-out engine.
type EventKind string

const (
	EventMessage      EventKind = "message"
	EventTyping       EventKind = "typing"
	EventSeen         EventKind = "seen"
	EventStatusChange EventKind = "status_change"
)

// Event is one already-deserialized live event. Fields not relevant to the
// kind are left at their zero value and omitted on the wire.
type Event struct {
	Kind      EventKind `json:"kind"`
	RoomID    string    `json:"room_id,omitempty"`
	SenderID  string    `json:"sender_id,omitempty"`
	MessageID uint      `json:"message_id,omitempty"`
	Content   string    `json:"content,omitempty"`
	Type      string    `json:"type,omitempty"`
	ReplyToID uint      `json:"reply_to_id,omitempty"`
	IsTyping  bool      `json:"is_typing,omitempty"`
	SeenIDs   []uint    `json:"seen_ids,omitempty"`
	Status    Status    `json:"status,omitempty"`
	At        time.Time `json:"at"`
}
