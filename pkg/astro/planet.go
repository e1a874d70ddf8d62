package astro

import (
	"fmt"
	"strings"
)

// Planet identifies one of the nine grahas.
type Planet int

const (
	Sun Planet = iota
	Moon
	Mars
	Mercury
	Jupiter
	Venus
	Saturn
	Rahu
	Ketu
)

var planetNames = [9]string{"Sun", "Moon", "Mars", "Mercury", "Jupiter", "Venus", "Saturn", "Rahu", "Ketu"}

// Exaltation and debilitation signs. The nodes follow the Taurus/Scorpio
// convention.
var (
	exaltation   = [9]Sign{Aries, Taurus, Capricorn, Virgo, Cancer, Pisces, Libra, Taurus, Scorpio}
	debilitation = [9]Sign{Libra, Scorpio, Cancer, Pisces, Capricorn, Virgo, Aries, Scorpio, Taurus}
)

// Planets returns all nine grahas in their conventional order.
func Planets() []Planet {
	return []Planet{Sun, Moon, Mars, Mercury, Jupiter, Venus, Saturn, Rahu, Ketu}
}

// SevenPlanets returns the visible planets Sun through Saturn, the set used
// by Ashtakavarga.
func SevenPlanets() []Planet {
	return []Planet{Sun, Moon, Mars, Mercury, Jupiter, Venus, Saturn}
}

func (p Planet) String() string {
	if p < Sun || p > Ketu {
		return fmt.Sprintf("Planet(%d)", int(p))
	}
	return planetNames[p]
}

// IsNode reports whether p is Rahu or Ketu.
func (p Planet) IsNode() bool { return p == Rahu || p == Ketu }

// Exalted reports whether p is exalted in s.
func (p Planet) Exalted(s Sign) bool { return exaltation[p] == s }

// Debilitated reports whether p is debilitated in s.
func (p Planet) Debilitated(s Sign) bool { return debilitation[p] == s }

// ParsePlanet resolves a planet by case-insensitive name.
func ParsePlanet(name string) (Planet, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, pn := range planetNames {
		if strings.ToLower(pn) == n {
			return Planet(i), nil
		}
	}
	return 0, fmt.Errorf("unknown planet %q", name)
}
