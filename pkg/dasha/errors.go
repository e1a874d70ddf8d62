package dasha

import (
	"errors"
	"fmt"
	"time"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/nakshatra"
)

var (
	// ErrInvalidLongitude is re-exported from the nakshatra locator so callers
	// only need this package's sentinels.
	ErrInvalidLongitude = nakshatra.ErrInvalidLongitude
	// ErrMissingPosition is re-exported from astro.
	ErrMissingPosition = astro.ErrMissingPosition

	ErrEmptyRulerSequence    = errors.New("empty ruler sequence")
	ErrNonPositiveDuration   = errors.New("non-positive duration")
	ErrHorizonExceeded       = errors.New("horizon exceeded")
	ErrInstantOutOfRange     = errors.New("instant out of range")
	ErrUnresolvableDirection = errors.New("unresolvable direction")
	ErrUnknownSystem         = errors.New("unknown dasha system")
)

// RangeError reports a query instant outside a tree's built range. When the
// instant lies at or past the horizon it also matches ErrHorizonExceeded, so
// callers can extend the tree and retry.
type RangeError struct {
	At      time.Time
	Start   time.Time
	Horizon time.Time
}

func (e *RangeError) Error() string {
	if e.beyond() {
		return fmt.Sprintf("%v: %s is at or after horizon %s", ErrInstantOutOfRange, e.At.Format(time.RFC3339), e.Horizon.Format(time.RFC3339))
	}
	return fmt.Sprintf("%v: %s precedes birth %s", ErrInstantOutOfRange, e.At.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// Is matches ErrInstantOutOfRange always and ErrHorizonExceeded for
// instants past the horizon.
func (e *RangeError) Is(target error) bool {
	switch target {
	case ErrInstantOutOfRange:
		return true
	case ErrHorizonExceeded:
		return e.beyond()
	}
	return false
}

func (e *RangeError) beyond() bool { return !e.At.Before(e.Horizon) }
