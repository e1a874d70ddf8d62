// Package nakshatra locates the lunar mansion, its elapsed fraction and pada
// for a sidereal longitude.
package nakshatra

import (
	"errors"
	"fmt"
	"math"

	"github.com/sw33tLie/dasha/pkg/astro"
)

// ErrInvalidLongitude is returned for NaN, infinite or out-of-range input.
// Longitudes are never clamped.
var ErrInvalidLongitude = errors.New("invalid longitude")

const (
	// Count is the number of nakshatras in the zodiac.
	Count = 27
	// Span is the arc of one nakshatra in degrees (13°20').
	Span = 360.0 / Count
	// PadaCount is the number of padas in one nakshatra.
	PadaCount = 4
)

var names = [Count]string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni", "Uttara Phalguni",
	"Hasta", "Chitra", "Swati", "Vishakha", "Anuradha", "Jyeshtha",
	"Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana", "Dhanishta", "Shatabhisha",
	"Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
}

// lords is the Vimshottari lord cycle starting at Ashwini.
var lords = [9]astro.Planet{
	astro.Ketu, astro.Venus, astro.Sun, astro.Moon, astro.Mars,
	astro.Rahu, astro.Jupiter, astro.Saturn, astro.Mercury,
}

// Position is a longitude resolved to its nakshatra.
type Position struct {
	Index           int     `json:"index"`            // 0..26
	FractionElapsed float64 `json:"fraction_elapsed"` // [0, 1)
	Pada            int     `json:"pada"`             // 1..4
}

// Locate resolves a sidereal longitude in [0, 360) to its nakshatra.
func Locate(lon float64) (Position, error) {
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < 0 || lon >= 360 {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidLongitude, lon)
	}
	// Scale once so index and fraction come from the same product.
	scaled := lon * Count / 360
	idx := int(math.Floor(scaled))
	frac := scaled - float64(idx)
	if idx >= Count {
		idx, frac = Count-1, math.Nextafter(1, 0)
	}
	if frac >= 1 {
		frac = math.Nextafter(1, 0)
	}
	pada := int(frac*PadaCount) + 1
	if pada > PadaCount {
		pada = PadaCount
	}
	return Position{Index: idx, FractionElapsed: frac, Pada: pada}, nil
}

// Name returns the nakshatra's traditional name.
func (p Position) Name() string { return Name(p.Index) }

// Lord returns the Vimshottari lord of the nakshatra.
func (p Position) Lord() astro.Planet { return Lord(p.Index) }

// PadaFraction is the elapsed fraction of the current pada, in [0, 1).
func (p Position) PadaFraction() float64 {
	f := p.FractionElapsed*PadaCount - float64(p.Pada-1)
	if f < 0 {
		return 0
	}
	if f >= 1 {
		return math.Nextafter(1, 0)
	}
	return f
}

// Start is the longitude at which the nakshatra begins.
func (p Position) Start() float64 { return float64(p.Index) * Span }

// Name returns the name of the nakshatra at index i (mod 27).
func Name(i int) string { return names[((i%Count)+Count)%Count] }

// Lord returns the Vimshottari lord of the nakshatra at index i.
func Lord(i int) astro.Planet { return lords[((i%Count)+Count)%Count%9] }
