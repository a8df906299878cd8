package realtime

import (
	"github.com/rs/zerolog"
)

// DeliveryReport enumerates which subscribers an event was handed off to.
// Failures are non-fatal: a subscriber whose buffer is full or whose
// connection closed mid-flight simply misses the live push; durability is
// the store's concern.
type DeliveryReport struct {
	RoomID    string   `json:"room_id,omitempty"`
	Delivered []string `json:"delivered"`
	Failed    []string `json:"failed"`
}

// Engine scopes event delivery by room membership and hands events off to
// per-connection sinks. Publish is synchronous up to the sink handoff, so
// two events published by the same connection reach every shared subscriber
// queue in publish order.
type Engine struct {
	registry *Registry
	rooms    *Rooms
	log      zerolog.Logger
}

// NewEngine creates a fan-out engine over the given registry and room index.
func NewEngine(registry *Registry, rooms *Rooms, logger zerolog.Logger) *Engine {
	return &Engine{
		registry: registry,
		rooms:    rooms,
		log:      logger.With().Str("component", "fanout_engine").Logger(),
	}
}

// Publish delivers an event to every current subscriber of the room except
// the sender. The subscriber set is snapshotted before iteration, so
// concurrent joins and leaves never corrupt the sweep.
func (e *Engine) Publish(roomID, senderConnID string, event Event) DeliveryReport {
	return e.deliver(roomID, senderConnID, event, e.rooms.SubscribersOf(roomID))
}

// Broadcast delivers an event to every live connection except the sender,
// used for presence changes which are globally visible.
func (e *Engine) Broadcast(senderConnID string, event Event) DeliveryReport {
	return e.deliver("", senderConnID, event, e.registry.Snapshot())
}

func (e *Engine) deliver(roomID, senderConnID string, event Event, targets []string) DeliveryReport {
	report := DeliveryReport{
		RoomID:    roomID,
		Delivered: make([]string, 0, len(targets)),
		Failed:    []string{},
	}

	for _, connID := range targets {
		if connID == senderConnID {
			continue
		}

		sink, err := e.registry.SinkFor(connID)
		if err != nil {
			// Connection closed between snapshot and handoff; harmless.
			report.Failed = append(report.Failed, connID)
			continue
		}

		if sink.TrySend(event) {
			report.Delivered = append(report.Delivered, connID)
		} else {
			e.log.Warn().Str("room_id", roomID).Str("conn_id", connID).Str("kind", string(event.Kind)).Msg("dropping event for slow connection")
			report.Failed = append(report.Failed, connID)
		}
	}

	return report
}
