package model

import "time"

// BookingStatus tracks a booking from passenger capture to payment.
type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingPaid           BookingStatus = "PAID"
	BookingCancelled      BookingStatus = "CANCELLED"
)

// Passenger holds the contact details captured before payment.
type Passenger struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,e164|numeric"`
	Email string `json:"email" validate:"omitempty,email"`
}

// BookingRequest turns an active hold into a booking awaiting payment.
type BookingRequest struct {
	HoldID    string    `json:"hold_id" validate:"required"`
	Passenger Passenger `json:"passenger" validate:"required"`
}

// Booking is a hold plus passenger details, priced and waiting for payment.
//
// Fields:
//  BookingID  – identifier passed to the payment gateway.
//  HoldID     – hold the booking was created from.
//  RouteID    – route of the held seats.
//  Seats      – seats covered by the booking.
//  Passenger  – contact details.
//  TotalPrice – amount due in VND.
//  Status     – PENDING_PAYMENT, PAID or CANCELLED.
//  CreatedAt  – creation time.
type Booking struct {
	BookingID  string        `json:"booking_id"`
	HoldID     string        `json:"hold_id"`
	RouteID    string        `json:"route_id"`
	Seats      []string      `json:"seats"`
	Passenger  Passenger     `json:"passenger"`
	TotalPrice int64         `json:"total_price"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}
