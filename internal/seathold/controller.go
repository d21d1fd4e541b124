// Package seathold owns the client side of the seat hold lifecycle: the
// single active hold, its countdown, its durable record and the
// transitions between them.
package seathold

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/model"
)

// HoldAPI is the part of the booking backend the controller needs.
type HoldAPI interface {
	HoldSeats(ctx context.Context, req model.HoldRequest) (model.Hold, error)
	ReleaseSeats(ctx context.Context, holdID string) error
}

// Availability is the seat map read the controller refreshes.
type Availability interface {
	InvalidateAvailability(ctx context.Context, routeID, departureDate string)
	RefreshSeatAvailability(ctx context.Context, routeID, departureDate string) (model.AvailabilitySnapshot, error)
}

// HoldStore is the durable single-slot record of the active hold.
type HoldStore interface {
	Load(ctx context.Context) (model.Hold, bool, error)
	Save(ctx context.Context, h model.Hold) error
	Clear(ctx context.Context) error
}

// Deps are the controller's collaborators.  API and Storage are
// required.  OnExpire and Subscribers are registered before a stored
// hold is restored, so they see a restored hold that runs out at once.
type Deps struct {
	API          HoldAPI
	Availability Availability
	Storage      HoldStore
	Clock        clock.Clock
	Logger       *logger.Logger
	TickInterval time.Duration
	OnExpire     func(model.Hold)
	Subscribers  []func(Snapshot)
}

// ErrNoAvailability is returned by RefreshAvailability when the
// controller was built without an Availability source.
var ErrNoAvailability = errors.New("seathold: no availability source")

// Controller is the seat hold state machine.  All methods are safe for
// concurrent use.  Network calls run without the lock held, so the
// countdown keeps ticking while a hold or release is in flight.
type Controller struct {
	api     HoldAPI
	avail   Availability
	storage HoldStore
	clock   clock.Clock
	log     *logger.Logger
	tick    time.Duration

	// storeMu orders storage writes; it is never taken with mu held.
	storeMu sync.Mutex

	mu        sync.Mutex
	state     State
	hold      *model.Hold
	countdown *Countdown
	session   uint64
	onExpire  func(model.Hold)
	unfired   uint64 // session that expired with no OnExpire set
	subs      map[uint64]func(Snapshot)
	nextSub   uint64
	closed    bool
}

// New builds a controller and seeds it from storage.  A live record
// puts the controller straight into Held without touching the network;
// a stale or unreadable record is purged and the controller starts in
// NoHold.
func New(ctx context.Context, deps Deps) (*Controller, error) {
	if deps.API == nil {
		return nil, errors.New("seathold: API is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("seathold: Storage is required")
	}
	c := &Controller{
		api:      deps.API,
		avail:    deps.Availability,
		storage:  deps.Storage,
		clock:    deps.Clock,
		log:      deps.Logger,
		tick:     deps.TickInterval,
		onExpire: deps.OnExpire,
		subs:     make(map[uint64]func(Snapshot)),
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.log == nil {
		c.log = logger.GetDefault()
	}
	if c.tick <= 0 {
		c.tick = time.Second
	}
	for _, fn := range deps.Subscribers {
		if fn != nil {
			c.subs[c.nextSub] = fn
			c.nextSub++
		}
	}

	h, ok, err := c.storage.Load(ctx)
	if err != nil {
		c.log.WithError(err).Warn("stored hold unreadable, starting empty")
		if clrErr := c.storage.Clear(ctx); clrErr != nil {
			c.log.WithError(clrErr).Warn("purge stored hold failed")
		}
		return c, nil
	}
	if ok && h.ActiveAt(c.clock.Now()) {
		c.mu.Lock()
		c.installLocked(h)
		c.mu.Unlock()
		c.log.WithHold(h).Debug("hold restored")
	}
	return c, nil
}

// OnExpire sets the function called when the active hold expires.  The
// most recently set function is the one called; swapping it never
// causes a second call for the same hold.  If the current hold already
// expired while no function was set, fn is called for it right away.
func (c *Controller) OnExpire(fn func(model.Hold)) {
	c.mu.Lock()
	c.onExpire = fn
	var late *model.Hold
	if fn != nil && c.unfired != 0 && c.unfired == c.session && c.state == Expired && c.hold != nil && !c.closed {
		h := c.hold.Clone()
		late = &h
		c.unfired = 0
	}
	c.mu.Unlock()
	if late != nil {
		fn(*late)
	}
}

// Subscribe registers fn for every state change and countdown tick.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Hold asks the backend for req.Seats and, on success, makes the result
// the one active hold, replacing any earlier one.  Seat conflicts come
// back unchanged as *model.HoldConflictError and the cached seat map
// for the departure is dropped.
func (c *Controller) Hold(ctx context.Context, req model.HoldRequest) (model.Hold, error) {
	if err := model.Validate(req); err != nil {
		return model.Hold{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.Hold{}, errors.New("seathold: controller closed")
	}
	c.state = Holding
	snap := c.snapshotLocked(CauseHolding)
	c.mu.Unlock()
	c.notify(snap)

	h, err := c.api.HoldSeats(ctx, req)
	if err != nil {
		c.mu.Lock()
		if c.state == Holding {
			c.state = c.settledLocked()
		}
		snap := c.snapshotLocked(CauseRejected)
		c.mu.Unlock()
		c.notify(snap)

		if errors.Is(err, model.ErrHoldConflict) {
			c.invalidate(ctx, req.RouteID, req.DepartureDate)
		}
		c.log.WithError(err).Warn("hold request failed", "route_id", req.RouteID)
		return model.Hold{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return h, nil
	}
	c.installLocked(h)
	snap = c.snapshotLocked(CauseHeld)
	c.mu.Unlock()

	c.syncStorage(ctx)
	c.log.WithHold(h).Debug("hold held")
	c.notify(snap)
	c.invalidate(ctx, h.RouteID, h.DepartureDate)
	return h.Clone(), nil
}

// Release gives the active hold back.  It is a no-op without a hold.
// Local state and storage are cleared once the backend call returns,
// whatever the outcome; a hold that is already gone counts as success
// and any other error is returned for the caller to ignore or report.
// A newer hold that landed while the release was in flight is kept.
func (c *Controller) Release(ctx context.Context) error {
	c.mu.Lock()
	if c.hold == nil {
		c.mu.Unlock()
		return nil
	}
	h := c.hold.Clone()
	sess := c.session
	if c.state != Expired {
		c.state = Releasing
	}
	snap := c.snapshotLocked(CauseReleasing)
	c.mu.Unlock()
	c.notify(snap)

	err := c.api.ReleaseSeats(ctx, h.HoldID)
	c.clearSession(ctx, sess, CauseReleased)
	c.invalidate(ctx, h.RouteID, h.DepartureDate)

	if err != nil && !errors.Is(err, model.ErrHoldNotFound) {
		c.log.WithHold(h).WithError(err).Warn("release failed, local hold cleared anyway")
		return fmt.Errorf("release hold %s: %w", h.HoldID, err)
	}
	return nil
}

// RefreshAvailability drops the cached seat map of a departure and
// fetches it again.  Hold state is not touched.
func (c *Controller) RefreshAvailability(ctx context.Context, routeID, departureDate string) (model.AvailabilitySnapshot, error) {
	if c.avail == nil {
		return model.AvailabilitySnapshot{}, ErrNoAvailability
	}
	return c.avail.RefreshSeatAvailability(ctx, routeID, departureDate)
}

// ClearHold drops the hold locally: storage, memory and countdown.  No
// network call is made.  Calling it again is harmless.
func (c *Controller) ClearHold() {
	c.mu.Lock()
	dropped, had := c.clearLocked()
	snap := c.snapshotLocked(CauseCleared)
	snap.Hold, snap.HasHold = dropped, had
	c.mu.Unlock()
	c.syncStorage(context.Background())
	if had {
		c.notify(snap)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the hold the controller knows about, including an
// expired one that has not been cleared yet.
func (c *Controller) Current() (model.Hold, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hold == nil {
		return model.Hold{}, false
	}
	return c.hold.Clone(), true
}

// Countdown returns the remaining time of the current hold.
func (c *Controller) Countdown() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdownLocked()
}

// IsExpired reports whether the current hold has run out.
func (c *Controller) IsExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Expired {
		return true
	}
	return c.hold != nil && !c.hold.ActiveAt(c.clock.Now())
}

// Snapshot returns a consistent copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked("")
}

// Close stops the countdown.  The stored hold is kept so a later
// controller can pick it up.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	cd := c.countdown
	c.countdown = nil
	c.mu.Unlock()
	if cd != nil {
		cd.Stop()
	}
}

// installLocked makes h the active hold and restarts the countdown.
func (c *Controller) installLocked(h model.Hold) {
	if c.countdown != nil {
		c.countdown.Stop()
	}
	c.session++
	sess := c.session
	hc := h.Clone()
	c.hold = &hc
	c.state = Held
	c.countdown = StartCountdown(c.clock, h.ExpiresAt, c.tick,
		func(st CountdownState) { c.handleTick(sess, st) },
		func() { c.handleExpire(sess) },
	)
}

func (c *Controller) handleTick(sess uint64, st CountdownState) {
	if st.IsExpired {
		return
	}
	c.mu.Lock()
	if sess != c.session || c.closed {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked(CauseTick)
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) handleExpire(sess uint64) {
	c.mu.Lock()
	if sess != c.session || c.hold == nil || c.closed {
		c.mu.Unlock()
		return
	}
	c.state = Expired
	c.countdown = nil
	h := c.hold.Clone()
	fn := c.onExpire
	if fn == nil {
		c.unfired = sess
	}
	snap := c.snapshotLocked(CauseExpired)
	c.mu.Unlock()

	c.syncStorage(context.Background())
	c.log.WithHold(h).Info("hold expired")
	if fn != nil {
		fn(h)
	}
	c.notify(snap)
}

// clearSession clears local state only if no newer hold replaced sess.
func (c *Controller) clearSession(ctx context.Context, sess uint64, cause Cause) {
	c.mu.Lock()
	if sess != c.session {
		c.mu.Unlock()
		return
	}
	dropped, had := c.clearLocked()
	snap := c.snapshotLocked(cause)
	snap.Hold, snap.HasHold = dropped, had
	c.mu.Unlock()
	c.syncStorage(ctx)
	c.notify(snap)
}

// clearLocked drops everything in memory and returns the hold it
// dropped.  The caller syncs storage after unlocking.
func (c *Controller) clearLocked() (model.Hold, bool) {
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
	var dropped model.Hold
	had := c.hold != nil
	if had {
		dropped = c.hold.Clone()
	}
	c.hold = nil
	c.state = NoHold
	c.session++
	return dropped, had
}

// syncStorage makes the stored record match the in-memory hold: a live
// hold is saved, anything else clears the slot.  Writes are serialized
// and each one reads the latest state.
func (c *Controller) syncStorage(ctx context.Context) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	c.mu.Lock()
	var h model.Hold
	live := c.hold != nil && c.state != Expired
	if live {
		h = c.hold.Clone()
	}
	c.mu.Unlock()

	if live {
		if err := c.storage.Save(ctx, h); err != nil {
			c.log.WithHold(h).WithError(err).Warn("persist hold failed")
		}
		return
	}
	if err := c.storage.Clear(ctx); err != nil {
		c.log.WithError(err).Warn("clear stored hold failed")
	}
}

// settledLocked is the state implied by the current hold alone.
func (c *Controller) settledLocked() State {
	switch {
	case c.hold == nil:
		return NoHold
	case !c.hold.ActiveAt(c.clock.Now()) || (c.countdown == nil):
		return Expired
	default:
		return Held
	}
}

func (c *Controller) countdownLocked() CountdownState {
	if c.hold == nil {
		return CountdownState{}
	}
	if c.countdown != nil {
		return c.countdown.State()
	}
	return CountdownState{IsExpired: true}
}

func (c *Controller) snapshotLocked(cause Cause) Snapshot {
	s := Snapshot{
		State:     c.state,
		Cause:     cause,
		Countdown: c.countdownLocked(),
		At:        c.clock.Now(),
	}
	if c.hold != nil {
		s.Hold, s.HasHold = c.hold.Clone(), true
	}
	return s
}

func (c *Controller) notify(s Snapshot) {
	c.mu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	c.log.Debug("hold state", "state", s.State.String(), "cause", string(s.Cause))
	for _, fn := range fns {
		fn(s)
	}
}

func (c *Controller) invalidate(ctx context.Context, routeID, departureDate string) {
	if c.avail != nil {
		c.avail.InvalidateAvailability(ctx, routeID, departureDate)
	}
}
