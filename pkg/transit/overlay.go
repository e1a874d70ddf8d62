package transit

import (
	"time"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
)

// savAverage is the mean Sarvashtakavarga per sign (337 / 12, rounded).
const savAverage = 28

// bavAverage is the threshold above which a planet's own bindus in a sign
// count as supportive.
const bavAverage = 4

// Annotation is the transit reading of one active period.
type Annotation struct {
	Depth int         `json:"depth"`
	Level string      `json:"level"`
	Ruler dasha.Ruler `json:"ruler"`
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`

	// Planet is the planet behind the ruler, empty for sign rulers.
	Planet string `json:"planet,omitempty"`
	// Sign is the transit sign for planet rulers and the ruling sign itself
	// for sign rulers.
	Sign          *astro.Sign `json:"sign,omitempty"`
	HouseFromMoon int         `json:"house_from_moon,omitempty"`
	Favourable    *bool       `json:"favourable,omitempty"`
	Bindus        *int        `json:"bindus,omitempty"`
	SAV           *int        `json:"sav,omitempty"`
	Transiting    []string    `json:"transiting,omitempty"`
	Score         int         `json:"score"`
}

// Overlay annotates an active path with the transits in effect. The natal
// Ashtakavarga is used when the chart carries every position it needs;
// otherwise only Gochara results are reported.
func Overlay(path []*dasha.Node, natal *astro.Chart, transits Positions) []Annotation {
	moon := astro.SignOf(natal.Birth.MoonLongitude)
	av, err := ComputeAshtakavarga(natal)
	if err != nil {
		av = nil
	}

	out := make([]Annotation, 0, len(path))
	for _, n := range path {
		a := Annotation{
			Depth: n.Depth,
			Level: n.Level(),
			Ruler: n.Ruler,
			Start: n.Start,
			End:   n.End,
		}
		if p, ok := n.Ruler.Planet(); ok {
			annotatePlanet(&a, p, moon, av, transits)
		} else if s, ok := n.Ruler.Sign(); ok {
			annotateSign(&a, s, moon, av, transits)
		}
		out = append(out, a)
	}
	return out
}

func annotatePlanet(a *Annotation, p astro.Planet, moon astro.Sign, av *Ashtakavarga, transits Positions) {
	a.Planet = p.String()
	s, ok := transits.Sign(p)
	if !ok {
		return
	}
	g := GocharaOf(p, moon, s)
	a.Sign = &s
	a.HouseFromMoon = g.House
	a.Favourable = &g.Favourable
	a.Score += point(g.Favourable)
	if av == nil {
		return
	}
	if b, ok := av.Bindus(p, s); ok {
		a.Bindus = &b
		a.Score += point(b >= bavAverage)
	}
	sav := av.SAV[s]
	a.SAV = &sav
	a.Score += point(sav >= savAverage)
}

func annotateSign(a *Annotation, s astro.Sign, moon astro.Sign, av *Ashtakavarga, transits Positions) {
	a.Sign = &s
	a.HouseFromMoon = moon.House(s)
	a.Transiting = transits.Occupants(s)
	for _, name := range a.Transiting {
		p, _ := astro.ParsePlanet(name)
		a.Score += point(GocharaOf(p, moon, s).Favourable)
	}
	if av == nil {
		return
	}
	sav := av.SAV[s]
	a.SAV = &sav
	a.Score += point(sav >= savAverage)
}

func point(good bool) int {
	if good {
		return 1
	}
	return -1
}
