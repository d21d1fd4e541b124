package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/facebookgo/clock"

	"github.com/vexeviet/seat-hold/internal/model"
)

// HoldStorageKey is the single durable slot for the active hold.
const HoldStorageKey = "vexeviet:seat-hold"

// HoldStorage reads and writes the one active hold record.  It has no
// knowledge of the controller; it only knows how to tell a live record
// from a stale or unreadable one.
type HoldStorage struct {
	store Store
	clock clock.Clock
	key   string
}

// NewHoldStorage binds the hold slot to store.  A nil clock means wall time.
func NewHoldStorage(store Store, clk clock.Clock) *HoldStorage {
	if clk == nil {
		clk = clock.New()
	}
	return &HoldStorage{store: store, clock: clk, key: HoldStorageKey}
}

// Load returns the stored hold when it is still active.  Expired and
// unreadable records are purged and reported as absent (ok=false).  An
// error is returned only when the store itself fails.
func (s *HoldStorage) Load(ctx context.Context) (model.Hold, bool, error) {
	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return model.Hold{}, false, nil
	}
	if err != nil {
		return model.Hold{}, false, fmt.Errorf("read hold: %w", err)
	}

	h, err := decodeHold(raw)
	if err != nil || !h.ActiveAt(s.clock.Now()) {
		if rmErr := s.store.Remove(ctx, s.key); rmErr != nil {
			return model.Hold{}, false, fmt.Errorf("purge hold: %w", rmErr)
		}
		return model.Hold{}, false, nil
	}
	return h, true, nil
}

// Save overwrites the slot with h.
func (s *HoldStorage) Save(ctx context.Context, h model.Hold) error {
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("write hold: %w", err)
	}
	return nil
}

// Clear empties the slot.  Clearing an empty slot is fine.
func (s *HoldStorage) Clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("clear hold: %w", err)
	}
	return nil
}

func decodeHold(raw []byte) (model.Hold, error) {
	var h model.Hold
	if err := json.Unmarshal(raw, &h); err != nil {
		return model.Hold{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if h.HoldID == "" || h.ExpiresAt.IsZero() || len(h.Seats) == 0 {
		return model.Hold{}, ErrCorrupt
	}
	return h, nil
}
