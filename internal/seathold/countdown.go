package seathold

import (
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// UrgentThreshold is the remaining time below which the countdown is
// shown as urgent.
const UrgentThreshold = 60 * time.Second

// CountdownState is the derived view of a hold's remaining time.
type CountdownState struct {
	RemainingSeconds int
	IsExpired        bool
}

// Display renders the remaining time as MM:SS.
func (s CountdownState) Display() string {
	return FormatRemaining(s.RemainingSeconds)
}

// Urgent reports whether fewer than 60 seconds remain.
func (s CountdownState) Urgent() bool {
	return time.Duration(s.RemainingSeconds)*time.Second < UrgentThreshold
}

// RemainingSeconds is max(0, floor((expiresAt-now)/1s)).
func RemainingSeconds(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// FormatRemaining formats seconds as zero-padded MM:SS.  Minutes do not
// roll over into hours.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func stateAt(expiresAt, now time.Time) CountdownState {
	r := RemainingSeconds(expiresAt, now)
	return CountdownState{RemainingSeconds: r, IsExpired: r == 0}
}

// Countdown ticks against a fixed expiry.  The state is computed when
// the countdown starts and again on every tick; when it reaches zero
// the ticker stops and onExpire runs exactly once.  Callbacks run on
// the countdown's own goroutine.
type Countdown struct {
	clock     clock.Clock
	expiresAt time.Time
	onTick    func(CountdownState)
	onExpire  func()

	mu      sync.Mutex
	state   CountdownState
	fired   bool
	stopped bool
	done    chan struct{}
}

// StartCountdown begins counting down to expiresAt on clk.  Either
// callback may be nil.
func StartCountdown(clk clock.Clock, expiresAt time.Time, interval time.Duration, onTick func(CountdownState), onExpire func()) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	c := &Countdown{
		clock:     clk,
		expiresAt: expiresAt,
		onTick:    onTick,
		onExpire:  onExpire,
		state:     stateAt(expiresAt, clk.Now()),
		done:      make(chan struct{}),
	}
	if c.state.IsExpired {
		go c.tick()
		return c
	}
	go c.run(clk.Ticker(interval))
	return c
}

func (c *Countdown) run(t *clock.Ticker) {
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			if c.tick() {
				return
			}
		}
	}
}

// tick recomputes the state and reports whether the countdown is over.
func (c *Countdown) tick() bool {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return true
	}
	st := stateAt(c.expiresAt, c.clock.Now())
	c.state = st
	expire := st.IsExpired && !c.fired
	if expire {
		c.fired = true
		c.stopLocked()
	}
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(st)
	}
	if expire && c.onExpire != nil {
		c.onExpire()
	}
	return st.IsExpired
}

// State returns the most recently computed state.
func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ExpiresAt is the instant the countdown runs to.
func (c *Countdown) ExpiresAt() time.Time { return c.expiresAt }

// Stop tears the ticker down.  It is safe to call more than once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

func (c *Countdown) stopLocked() {
	if !c.stopped {
		c.stopped = true
		close(c.done)
	}
}
