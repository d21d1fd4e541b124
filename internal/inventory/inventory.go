// Package inventory is the booking backend's in-memory seat inventory:
// routes, per-departure seat maps, holds, bookings and payment
// initiation.  Expired holds are swept before every read or write, so
// an expired hold never blocks a seat.
package inventory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/vexeviet/seat-hold/internal/model"
)

var (
	ErrRouteNotFound   = errors.New("route not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrAmountMismatch  = errors.New("amount does not match booking")
	ErrBookingClosed   = errors.New("booking is not awaiting payment")
)

// Config tunes the inventory.
type Config struct {
	HoldTTL  time.Duration
	Gateways GatewayConfig
	Clock    clock.Clock
	// NewID generates hold, booking and transaction ids.  Defaults to uuid.NewString.
	NewID func() string
}

type departureKey struct {
	routeID string
	date    string
}

type seatState struct {
	status model.SeatStatus
	holdID string
}

type departure struct {
	seats map[string]*seatState
}

type holdRecord struct {
	id        string
	userID    string
	routeID   string
	date      string
	seats     []string
	expiresAt time.Time
}

// Inventory is safe for concurrent use.
type Inventory struct {
	mu         sync.Mutex
	clock      clock.Clock
	holdTTL    time.Duration
	gateways   GatewayConfig
	newID      func() string
	routes     map[string]model.Route
	departures map[departureKey]*departure
	holds      map[string]*holdRecord
	bookings   map[string]*model.Booking
}

// New returns an inventory selling the given routes.
func New(cfg Config, routes []model.Route) *Inventory {
	inv := &Inventory{
		clock:      cfg.Clock,
		holdTTL:    cfg.HoldTTL,
		gateways:   cfg.Gateways,
		newID:      cfg.NewID,
		routes:     make(map[string]model.Route, len(routes)),
		departures: make(map[departureKey]*departure),
		holds:      make(map[string]*holdRecord),
		bookings:   make(map[string]*model.Booking),
	}
	if inv.clock == nil {
		inv.clock = clock.New()
	}
	if inv.holdTTL <= 0 {
		inv.holdTTL = 10 * time.Minute
	}
	if inv.newID == nil {
		inv.newID = uuid.NewString
	}
	for _, r := range routes {
		inv.routes[r.ID] = r
	}
	return inv
}

// SeatLayout is the seat map of every coach: a lower deck A1..A20 and
// an upper deck B1..B20.
func SeatLayout() []string {
	seats := make([]string, 0, 40)
	for _, deck := range []string{"A", "B"} {
		for i := 1; i <= 20; i++ {
			seats = append(seats, fmt.Sprintf("%s%d", deck, i))
		}
	}
	return seats
}

// Routes lists every route ordered by id.
func (inv *Inventory) Routes() []model.Route {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]model.Route, 0, len(inv.routes))
	for _, r := range inv.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Availability returns the seat map of one departure.
func (inv *Inventory) Availability(routeID, date string) (model.AvailabilitySnapshot, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.expireLocked()

	route, ok := inv.routes[routeID]
	if !ok {
		return model.AvailabilitySnapshot{}, ErrRouteNotFound
	}
	dep := inv.departureLocked(routeID, date)
	snap := model.AvailabilitySnapshot{
		RouteID:       routeID,
		DepartureDate: date,
		Seats:         make([]model.SeatAvailability, 0, len(dep.seats)),
		FetchedAt:     inv.clock.Now().UTC(),
	}
	for _, id := range SeatLayout() {
		snap.Seats = append(snap.Seats, model.SeatAvailability{SeatID: id, Status: dep.seats[id].status, Price: route.Price})
	}
	return snap, nil
}

// Hold holds seats for userID.  Every requested seat must exist and be
// free; otherwise nothing is held and a *model.HoldConflictError lists
// the offenders.
func (inv *Inventory) Hold(userID, routeID, date string, seats []string) (model.Hold, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.expireLocked()

	if _, ok := inv.routes[routeID]; !ok {
		return model.Hold{}, ErrRouteNotFound
	}
	dep := inv.departureLocked(routeID, date)

	var unavailable []string
	for _, id := range seats {
		st, ok := dep.seats[id]
		if !ok || st.status != model.SeatFree {
			unavailable = append(unavailable, id)
		}
	}
	if len(unavailable) > 0 {
		return model.Hold{}, &model.HoldConflictError{Unavailable: unavailable}
	}

	rec := &holdRecord{
		id:        inv.newID(),
		userID:    userID,
		routeID:   routeID,
		date:      date,
		seats:     append([]string(nil), seats...),
		expiresAt: inv.clock.Now().UTC().Add(inv.holdTTL).Truncate(time.Second),
	}
	for _, id := range seats {
		dep.seats[id].status = model.SeatHeld
		dep.seats[id].holdID = rec.id
	}
	inv.holds[rec.id] = rec
	return rec.toModel(), nil
}

// Release frees the seats of a hold owned by userID.  Unknown, expired
// and foreign holds all yield model.ErrHoldNotFound.
func (inv *Inventory) Release(userID, holdID string) ([]string, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.expireLocked()

	rec, ok := inv.holds[holdID]
	if !ok || rec.userID != userID {
		return nil, model.ErrHoldNotFound
	}
	inv.dropHoldLocked(rec)
	for _, b := range inv.bookings {
		if b.HoldID == holdID && b.Status == model.BookingPendingPayment {
			b.Status = model.BookingCancelled
		}
	}
	return rec.seats, nil
}

// CreateBooking attaches passenger details to an active hold.
func (inv *Inventory) CreateBooking(userID string, req model.BookingRequest) (model.Booking, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.expireLocked()

	rec, ok := inv.holds[req.HoldID]
	if !ok || rec.userID != userID {
		return model.Booking{}, model.ErrHoldNotFound
	}
	route := inv.routes[rec.routeID]
	b := &model.Booking{
		BookingID:  inv.newID(),
		HoldID:     rec.id,
		RouteID:    rec.routeID,
		Seats:      append([]string(nil), rec.seats...),
		Passenger:  req.Passenger,
		TotalPrice: route.Price * int64(len(rec.seats)),
		Status:     model.BookingPendingPayment,
		CreatedAt:  inv.clock.Now().UTC(),
	}
	inv.bookings[b.BookingID] = b
	return *b, nil
}

// InitiatePayment builds the gateway redirect for a pending booking whose
// hold is still active.
func (inv *Inventory) InitiatePayment(req model.PaymentInitiation) (model.PaymentInitiationResult, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.expireLocked()

	b, ok := inv.bookings[req.BookingID]
	if !ok {
		return model.PaymentInitiationResult{}, ErrBookingNotFound
	}
	if b.Status != model.BookingPendingPayment {
		return model.PaymentInitiationResult{}, ErrBookingClosed
	}
	if _, ok := inv.holds[b.HoldID]; !ok {
		return model.PaymentInitiationResult{}, model.ErrHoldNotFound
	}
	if req.Amount != b.TotalPrice {
		return model.PaymentInitiationResult{}, ErrAmountMismatch
	}
	txID := inv.newID()
	payURL, err := inv.gateways.PaymentURL(req.Method, b.BookingID, txID, b.TotalPrice, inv.clock.Now())
	if err != nil {
		return model.PaymentInitiationResult{}, err
	}
	return model.PaymentInitiationResult{Success: true, PaymentURL: payURL, TransactionID: txID}, nil
}

// expireLocked frees every hold whose expiry is not in the future.
func (inv *Inventory) expireLocked() {
	now := inv.clock.Now()
	for _, rec := range inv.holds {
		if !rec.expiresAt.After(now) {
			inv.dropHoldLocked(rec)
		}
	}
}

func (inv *Inventory) dropHoldLocked(rec *holdRecord) {
	dep := inv.departureLocked(rec.routeID, rec.date)
	for _, id := range rec.seats {
		if st, ok := dep.seats[id]; ok && st.holdID == rec.id {
			st.status = model.SeatFree
			st.holdID = ""
		}
	}
	delete(inv.holds, rec.id)
}

func (inv *Inventory) departureLocked(routeID, date string) *departure {
	key := departureKey{routeID: routeID, date: date}
	dep, ok := inv.departures[key]
	if !ok {
		dep = &departure{seats: make(map[string]*seatState)}
		for _, id := range SeatLayout() {
			dep.seats[id] = &seatState{status: model.SeatFree}
		}
		inv.departures[key] = dep
	}
	return dep
}

func (r *holdRecord) toModel() model.Hold {
	return model.Hold{
		HoldID:        r.id,
		ExpiresAt:     r.expiresAt,
		Seats:         append([]string(nil), r.seats...),
		RouteID:       r.routeID,
		DepartureDate: r.date,
	}
}
