// Package queue moves hold lifecycle events over RabbitMQ: the client
// publishes one event per hold transition and the booking backend
// consumes them into logs/hold_events.log.
package queue

import (
	"time"

	"github.com/vexeviet/seat-hold/internal/seathold"
)

// Event types.
const (
	EventHoldCreated  = "hold.created"
	EventHoldExpired  = "hold.expired"
	EventHoldReleased = "hold.released"
	EventHoldCleared  = "hold.cleared"
)

// HoldEvent is published whenever the client's hold is created, expires,
// is released or is cleared locally.  Downstream consumers can log or
// count holds without asking the client anything.
type HoldEvent struct {
	Type          string   `json:"type"`
	HoldID        string   `json:"hold_id"`
	RouteID       string   `json:"route_id"`
	DepartureDate string   `json:"departure_date"`
	Seats         []string `json:"seats"`
	ExpiresAt     string   `json:"expires_at"`
	OccurredAt    string   `json:"occurred_at"`
}

// HoldEventFor maps a controller notification to the event it stands
// for.  Ticks and in-flight states map to nothing.
func HoldEventFor(s seathold.Snapshot) (HoldEvent, bool) {
	var typ string
	switch s.Cause {
	case seathold.CauseHeld:
		typ = EventHoldCreated
	case seathold.CauseExpired:
		typ = EventHoldExpired
	case seathold.CauseReleased:
		typ = EventHoldReleased
	case seathold.CauseCleared:
		typ = EventHoldCleared
	default:
		return HoldEvent{}, false
	}
	if !s.HasHold {
		return HoldEvent{}, false
	}
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	return HoldEvent{
		Type:          typ,
		HoldID:        s.Hold.HoldID,
		RouteID:       s.Hold.RouteID,
		DepartureDate: s.Hold.DepartureDate,
		Seats:         append([]string(nil), s.Hold.Seats...),
		ExpiresAt:     s.Hold.ExpiresAt.UTC().Format(time.RFC3339),
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}, true
}
