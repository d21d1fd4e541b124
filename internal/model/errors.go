package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHoldConflict is returned when one or more requested seats are no
// longer free.  Match it with errors.Is; use errors.As with
// *HoldConflictError to get the offending seats.
var ErrHoldConflict = errors.New("seats no longer available")

// ErrHoldNotFound is returned when a hold is unknown to the backend,
// either because it never existed or because it already expired.
var ErrHoldNotFound = errors.New("hold not found")

// ErrUnauthorized is returned when the caller has no valid access token.
var ErrUnauthorized = errors.New("unauthorized")

// HoldConflictError lists the seats that prevented a hold.
type HoldConflictError struct {
	Unavailable []string
}

func (e *HoldConflictError) Error() string {
	if len(e.Unavailable) == 0 {
		return ErrHoldConflict.Error()
	}
	return fmt.Sprintf("%s: %s", ErrHoldConflict, strings.Join(e.Unavailable, ", "))
}

// Is lets errors.Is(err, ErrHoldConflict) match.
func (e *HoldConflictError) Is(target error) bool {
	return target == ErrHoldConflict
}
