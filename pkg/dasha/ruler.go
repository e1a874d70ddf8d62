package dasha

import "github.com/sw33tLie/dasha/pkg/astro"

// Ruler names the lord of a period: a planet, a Yogini or a sign.
type Ruler string

// The eight Yoginis.
const (
	Mangala  Ruler = "Mangala"
	Pingala  Ruler = "Pingala"
	Dhanya   Ruler = "Dhanya"
	Bhramari Ruler = "Bhramari"
	Bhadrika Ruler = "Bhadrika"
	Ulka     Ruler = "Ulka"
	Siddha   Ruler = "Siddha"
	Sankata  Ruler = "Sankata"
)

var yoginiPlanets = map[Ruler]astro.Planet{
	Mangala:  astro.Moon,
	Pingala:  astro.Sun,
	Dhanya:   astro.Jupiter,
	Bhramari: astro.Mars,
	Bhadrika: astro.Mercury,
	Ulka:     astro.Saturn,
	Siddha:   astro.Venus,
	Sankata:  astro.Rahu,
}

// PlanetRuler returns the ruler id of a planet.
func PlanetRuler(p astro.Planet) Ruler { return Ruler(p.String()) }

// SignRuler returns the ruler id of a sign.
func SignRuler(s astro.Sign) Ruler { return Ruler(s.String()) }

// Planet resolves the planet behind the ruler. Yoginis map to their
// presiding planet; signs do not resolve.
func (r Ruler) Planet() (astro.Planet, bool) {
	if p, ok := yoginiPlanets[r]; ok {
		return p, true
	}
	p, err := astro.ParsePlanet(string(r))
	return p, err == nil
}

// Sign resolves a sign ruler.
func (r Ruler) Sign() (astro.Sign, bool) {
	s, err := astro.ParseSign(string(r))
	if err != nil || len(r) == 3 {
		return 0, false
	}
	return s, true
}

func (r Ruler) String() string { return string(r) }

// LevelNames are the conventional names of each depth, starting at 1.
var LevelNames = [...]string{"", "Mahadasha", "Antardasha", "Pratyantardasha", "Sookshma", "Prana"}

// LevelName returns the name of a depth, or "" when out of range.
func LevelName(depth int) string {
	if depth < 1 || depth >= len(LevelNames) {
		return ""
	}
	return LevelNames[depth]
}
