package model

import "time"

// SeatStatus is the availability of a single seat on one departure.
type SeatStatus string

const (
	SeatFree   SeatStatus = "FREE"
	SeatHeld   SeatStatus = "HELD"
	SeatBooked SeatStatus = "BOOKED"
)

// SeatAvailability describes one seat on a departure.
//
// Fields:
//  SeatID – seat label as printed on the coach (A1..A20 lower deck, B1..B20 upper deck).
//  Status – FREE, HELD or BOOKED.
//  Price  – fare for this seat in VND.
type SeatAvailability struct {
	SeatID string     `json:"seat_id"`
	Status SeatStatus `json:"status"`
	Price  int64      `json:"price"`
}

// AvailabilitySnapshot is a read-only view of the seat map of one
// departure at FetchedAt.  It is never a source of truth for holds.
type AvailabilitySnapshot struct {
	RouteID       string             `json:"route_id"`
	DepartureDate string             `json:"departure_date"`
	Seats         []SeatAvailability `json:"seats"`
	FetchedAt     time.Time          `json:"fetched_at"`
}

// Free returns the identifiers of all seats that can currently be held.
func (s AvailabilitySnapshot) Free() []string {
	out := make([]string, 0, len(s.Seats))
	for _, seat := range s.Seats {
		if seat.Status == SeatFree {
			out = append(out, seat.SeatID)
		}
	}
	return out
}
