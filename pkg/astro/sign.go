// Package astro holds the sidereal zodiac primitives shared by every Dasha
// system: signs, planets, lordship and the immutable birth data of a chart.
package astro

import (
	"fmt"
	"math"
	"strings"
)

// Sign is a zodiac sign index, 0 (Aries) through 11 (Pisces).
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

// SignSpan is the arc covered by one sign, in degrees.
const SignSpan = 30.0

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signLords = [12]Planet{
	Mars, Venus, Mercury, Moon, Sun, Mercury,
	Venus, Mars, Jupiter, Saturn, Saturn, Jupiter,
}

// Signs returns the twelve signs in zodiacal order.
func Signs() []Sign {
	out := make([]Sign, 12)
	for i := range out {
		out[i] = Sign(i)
	}
	return out
}

func (s Sign) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Sign(%d)", int(s))
	}
	return signNames[s]
}

// MarshalText encodes the sign by name.
func (s Sign) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid sign %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a sign name or three-letter prefix.
func (s *Sign) UnmarshalText(b []byte) error {
	v, err := ParseSign(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Valid reports whether s is one of the twelve signs.
func (s Sign) Valid() bool { return s >= Aries && s <= Pisces }

// Number is the classical 1-based sign number (Aries = 1).
func (s Sign) Number() int { return int(s) + 1 }

// IsOdd reports whether the sign number is odd (Aries, Gemini, Leo, ...).
func (s Sign) IsOdd() bool { return s.Number()%2 == 1 }

// Lord returns the primary ruler of the sign.
func (s Sign) Lord() Planet { return signLords[s.norm()] }

// CoLords returns every ruler of the sign. Scorpio and Aquarius carry a
// nodal co-lord (Ketu and Rahu respectively).
func (s Sign) CoLords() []Planet {
	switch s.norm() {
	case Scorpio:
		return []Planet{Mars, Ketu}
	case Aquarius:
		return []Planet{Saturn, Rahu}
	default:
		return []Planet{s.Lord()}
	}
}

// Add advances the sign by n steps, wrapping around the zodiac. Negative n
// moves backwards.
func (s Sign) Add(n int) Sign {
	return Sign(mod(int(s)+n, 12))
}

// Distance counts inclusively from s to other, moving forward when forward
// is true and backward otherwise. A sign is at distance 1 from itself.
func (s Sign) Distance(other Sign, forward bool) int {
	if forward {
		return mod(int(other)-int(s), 12) + 1
	}
	return mod(int(s)-int(other), 12) + 1
}

// House returns the house number (1..12) that other occupies when counted
// from s.
func (s Sign) House(other Sign) int {
	return s.Distance(other, true)
}

func (s Sign) norm() Sign { return Sign(mod(int(s), 12)) }

// ParseSign resolves a sign by case-insensitive name or three-letter prefix.
func ParseSign(name string) (Sign, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, sn := range signNames {
		lower := strings.ToLower(sn)
		if n == lower || (len(n) == 3 && strings.HasPrefix(lower, n)) {
			return Sign(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sign %q", name)
}

// Normalize maps any finite longitude into [0, 360).
func Normalize(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon = 0
	}
	return lon
}

// SignOf returns the sign containing the given longitude.
func SignOf(lon float64) Sign {
	return Sign(int(Normalize(lon)/SignSpan) % 12)
}

// DegreeInSign returns the longitude's offset inside its sign, in [0, 30).
func DegreeInSign(lon float64) float64 {
	return Normalize(lon) - float64(SignOf(lon))*SignSpan
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
