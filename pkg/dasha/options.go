package dasha

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// YearBasis selects the length of a Dasha year.
type YearBasis string

const (
	Gregorian YearBasis = "gregorian" // 365.2425 days
	Julian    YearBasis = "julian"    // 365.25 days
	Savana    YearBasis = "savana"    // 360 days
	Sidereal  YearBasis = "sidereal"  // 365.256363 days
)

// ParseYearBasis resolves a basis name; empty selects Gregorian.
func ParseYearBasis(s string) (YearBasis, error) {
	switch b := YearBasis(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return Gregorian, nil
	case Gregorian, Julian, Savana, Sidereal:
		return b, nil
	default:
		return "", fmt.Errorf("unknown year basis %q", s)
	}
}

// Days returns the number of days in one year of the basis.
func (b YearBasis) Days() float64 {
	switch b {
	case Julian:
		return 365.25
	case Savana:
		return 360
	case Sidereal:
		return 365.256363
	default:
		return 365.2425
	}
}

// Year returns the length of one year as a Duration.
func (b YearBasis) Year() time.Duration {
	return time.Duration(math.Round(b.Days() * 86400 * 1e9))
}

// Years converts a fractional number of years to a Duration.
func (b YearBasis) Years(y float64) time.Duration {
	return time.Duration(math.Round(y * float64(b.Year())))
}

// AddYears adds a possibly large number of years to t without overflowing
// time.Duration.
func (b YearBasis) AddYears(t time.Time, years float64) time.Time {
	const chunk = 100.0
	for years > chunk {
		t = t.Add(b.Years(chunk))
		years -= chunk
	}
	return t.Add(b.Years(years))
}

const (
	DefaultDepth           = 3
	DefaultHorizonCycles   = 1.0
	DefaultMinHorizonYears = 120.0
)

// Options controls tree construction.
type Options struct {
	YearBasis YearBasis
	// HorizonCycles is the number of full cycles projected past birth.
	HorizonCycles float64
	// MinHorizonYears is a floor on the projection for short-cycle systems.
	MinHorizonYears float64
	// Depth is the number of levels built eagerly. Deeper levels are derived
	// lazily by the locator, up to the catalog depth.
	Depth int
	// Until forces the horizon to reach at least this instant.
	Until time.Time
}

func (o Options) withDefaults() Options {
	if o.YearBasis == "" {
		o.YearBasis = Gregorian
	}
	if o.HorizonCycles <= 0 || math.IsNaN(o.HorizonCycles) {
		o.HorizonCycles = DefaultHorizonCycles
	}
	if o.MinHorizonYears <= 0 || math.IsNaN(o.MinHorizonYears) {
		o.MinHorizonYears = DefaultMinHorizonYears
	}
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	return o
}

// horizon returns the instant the top-level chain must reach.
func (o Options) horizon(birth time.Time, cycleYears int) time.Time {
	years := math.Max(o.HorizonCycles*float64(cycleYears), o.MinHorizonYears)
	h := o.YearBasis.AddYears(birth, years)
	if o.Until.After(h) {
		h = o.Until
	}
	return h
}
