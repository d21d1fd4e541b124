package model

import "time"

// Hold is a time-limited, server-acknowledged reservation of specific
// seats for one route on one departure date.  The client keeps at most
// one of these at a time and mirrors it to durable storage so that it
// survives a restart of the client.  The JSON shape is the persisted
// record, so the field names must not change.
//
// Fields:
//  HoldID        – opaque identifier issued by the booking backend.
//  ExpiresAt     – instant after which the backend releases the seats.
//  Seats         – held seat identifiers, in the order they were picked.
//  RouteID       – route the seats belong to.
//  DepartureDate – departure date in YYYY-MM-DD form.
type Hold struct {
	HoldID        string    `json:"holdId"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Seats         []string  `json:"seats"`
	RouteID       string    `json:"routeId"`
	DepartureDate string    `json:"departureDate"`
}

// ActiveAt reports whether the hold is still valid at now.  A hold is
// active only while its expiry is strictly in the future.
func (h Hold) ActiveAt(now time.Time) bool {
	return h.HoldID != "" && h.ExpiresAt.After(now)
}

// Clone returns a copy that does not share the seat slice.
func (h Hold) Clone() Hold {
	out := h
	out.Seats = append([]string(nil), h.Seats...)
	return out
}

// HoldRequest asks the backend to hold seats for a route and date.
type HoldRequest struct {
	RouteID       string   `json:"routeId" validate:"required"`
	DepartureDate string   `json:"departureDate" validate:"required,datetime=2006-01-02"`
	Seats         []string `json:"seats" validate:"required,min=1,max=10,unique,dive,required"`
}
