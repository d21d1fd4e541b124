package model

import "time"

// Request and response bodies of the booking backend REST API.  Both
// the HTTP client and the mock backend handlers use them, so the two
// sides cannot drift apart.

// HoldSeatsBody is the body of POST /v1/routes/:id/hold.
type HoldSeatsBody struct {
	DepartureDate string   `json:"departure_date" validate:"required,datetime=2006-01-02"`
	SeatIDs       []string `json:"seat_ids" validate:"required,min=1,max=10,unique,dive,required"`
}

// HoldSeatsResponse is the 201 answer to a hold request.
type HoldSeatsResponse struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
	SeatIDs   []string  `json:"seat_ids"`
}

// ConflictBody is the 409 answer when seats are taken.
type ConflictBody struct {
	Error       string   `json:"error"`
	Unavailable []string `json:"unavailable"`
}

// ReleaseResponse is the 200 answer to DELETE /v1/holds/:id.
type ReleaseResponse struct {
	Released []string `json:"released"`
}

// ErrorBody is the generic error envelope.
type ErrorBody struct {
	Error string `json:"error"`
}
