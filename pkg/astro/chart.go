package astro

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMissingPosition is returned when a computation needs a longitude the
// chart does not carry.
var ErrMissingPosition = errors.New("missing position")

// ErrInvalidChart is returned by Validate for malformed birth data.
var ErrInvalidChart = errors.New("invalid chart")

// BirthMoment is the immutable birth input resolved by the ephemeris
// collaborator. Longitudes are sidereal degrees in [0, 360).
type BirthMoment struct {
	// Time is the civil birth time; its Location carries the resolved UTC offset.
	Time      time.Time
	Latitude  float64
	Longitude float64

	SunLongitude  float64
	MoonLongitude float64
	Ayanamsa      float64

	// Sunrise and Sunset optionally override the computed local day boundaries.
	Sunrise time.Time
	Sunset  time.Time
}

// Chart is a birth moment plus the remaining sidereal positions needed by
// the sign-based systems and the transit overlay.
type Chart struct {
	Name  string
	Birth BirthMoment

	// Positions holds sidereal longitudes for planets other than the Sun and
	// Moon, which live in Birth.
	Positions map[Planet]float64

	Ascendant    float64
	HasAscendant bool
}

// Longitude returns the sidereal longitude of p, if known.
func (c *Chart) Longitude(p Planet) (float64, bool) {
	switch p {
	case Sun:
		return c.Birth.SunLongitude, true
	case Moon:
		return c.Birth.MoonLongitude, true
	}
	if c.Positions == nil {
		return 0, false
	}
	lon, ok := c.Positions[p]
	if !ok && p == Ketu {
		if rahu, ok := c.Positions[Rahu]; ok {
			return Normalize(rahu + 180), true
		}
	}
	return lon, ok
}

// SignOf returns the sign occupied by p, or ErrMissingPosition.
func (c *Chart) SignOf(p Planet) (Sign, error) {
	lon, ok := c.Longitude(p)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingPosition, p)
	}
	return SignOf(lon), nil
}

// LagnaSign returns the ascendant sign, or ErrMissingPosition.
func (c *Chart) LagnaSign() (Sign, error) {
	if !c.HasAscendant {
		return 0, fmt.Errorf("%w: ascendant", ErrMissingPosition)
	}
	return SignOf(c.Ascendant), nil
}

// Occupants returns the planets placed in s, in conventional order. Planets
// without a known longitude are ignored.
func (c *Chart) Occupants(s Sign) []Planet {
	var out []Planet
	for _, p := range Planets() {
		if ps, err := c.SignOf(p); err == nil && ps == s {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects non-finite or out-of-range inputs and a missing birth time.
func (c *Chart) Validate() error {
	if c.Birth.Time.IsZero() {
		return fmt.Errorf("%w: birth time is not set", ErrInvalidChart)
	}
	if c.Birth.Latitude < -90 || c.Birth.Latitude > 90 || math.IsNaN(c.Birth.Latitude) {
		return fmt.Errorf("%w: latitude %v", ErrInvalidChart, c.Birth.Latitude)
	}
	if c.Birth.Longitude < -180 || c.Birth.Longitude > 180 || math.IsNaN(c.Birth.Longitude) {
		return fmt.Errorf("%w: longitude %v", ErrInvalidChart, c.Birth.Longitude)
	}
	check := func(name string, lon float64) error {
		if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < 0 || lon >= 360 {
			return fmt.Errorf("%w: %s longitude %v outside [0,360)", ErrInvalidChart, name, lon)
		}
		return nil
	}
	if err := check("Sun", c.Birth.SunLongitude); err != nil {
		return err
	}
	if err := check("Moon", c.Birth.MoonLongitude); err != nil {
		return err
	}
	for p, lon := range c.Positions {
		if err := check(p.String(), lon); err != nil {
			return err
		}
	}
	if c.HasAscendant {
		if err := check("ascendant", c.Ascendant); err != nil {
			return err
		}
	}
	return nil
}
