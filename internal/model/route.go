package model

// Route is an intercity coach line operated once per day.
//
// Fields:
//  ID          – route identifier used in URLs.
//  Origin      – departure city.
//  Destination – arrival city.
//  Operator    – coach company.
//  DepartsAt   – daily departure time, HH:MM local.
//  Price       – base fare per seat in VND.
type Route struct {
	ID          string `json:"id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Operator    string `json:"operator"`
	DepartsAt   string `json:"departs_at"`
	Price       int64  `json:"price"`
}

// BookingDraft is the checkout state owned by the seat selection flow.
// The payment flow only reads it.
type BookingDraft struct {
	CurrentRoute  *Route   `json:"currentRoute,omitempty"`
	SelectedSeats []string `json:"selectedSeats"`
	TotalPrice    int64    `json:"totalPrice"`
}
