package seathold

import (
	"time"

	"github.com/vexeviet/seat-hold/internal/model"
)

// State is the lifecycle position of the client's single hold.
type State int

const (
	// NoHold: no hold id is known.
	NoHold State = iota
	// Holding: a hold request is in flight.
	Holding
	// Held: a hold id and expiry are known and the countdown runs.
	Held
	// Expired: the countdown reached zero.  The hold stays readable
	// until ClearHold or the next Hold.
	Expired
	// Releasing: a release request is in flight.
	Releasing
)

func (s State) String() string {
	switch s {
	case NoHold:
		return "NoHold"
	case Holding:
		return "Holding"
	case Held:
		return "Held"
	case Expired:
		return "Expired"
	case Releasing:
		return "Releasing"
	}
	return "Unknown"
}

// Cause says why observers are being notified.
type Cause string

const (
	// CauseHolding: a hold request went out.
	CauseHolding Cause = "holding"
	// CauseHeld: the backend granted a hold and it is now active.
	CauseHeld Cause = "held"
	// CauseRejected: a hold request failed; the earlier state stands.
	CauseRejected Cause = "rejected"
	// CauseTick: the countdown moved on.
	CauseTick Cause = "tick"
	// CauseExpired: the active hold ran out.
	CauseExpired Cause = "expired"
	// CauseReleasing: a release request went out.
	CauseReleasing Cause = "releasing"
	// CauseReleased: the release finished and the hold was dropped.
	CauseReleased Cause = "released"
	// CauseCleared: the hold was dropped locally without a release.
	CauseCleared Cause = "cleared"
)

// Snapshot is a consistent copy of the controller's observable state.
// For CauseReleased and CauseCleared, Hold is the hold that was dropped.
type Snapshot struct {
	State     State
	Cause     Cause
	Hold      model.Hold
	HasHold   bool
	Countdown CountdownState
	At        time.Time
}
