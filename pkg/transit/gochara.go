// Package transit overlays current planetary transits on active Dasha
// periods: Gochara results counted from the natal Moon and Ashtakavarga
// bindus.
package transit

import (
	"github.com/sw33tLie/dasha/pkg/astro"
)

// gocharaFavourable lists, per planet, the houses from the natal Moon in
// which its transit is favourable.
var gocharaFavourable = map[astro.Planet][]int{
	astro.Sun:     {3, 6, 10, 11},
	astro.Moon:    {1, 3, 6, 7, 10, 11},
	astro.Mars:    {3, 6, 11},
	astro.Mercury: {2, 4, 6, 8, 10, 11},
	astro.Jupiter: {2, 5, 7, 9, 11},
	astro.Venus:   {1, 2, 3, 4, 5, 8, 9, 11, 12},
	astro.Saturn:  {3, 6, 11},
	astro.Rahu:    {3, 6, 11},
	astro.Ketu:    {3, 6, 11},
}

// Gochara is the transit of one planet judged from the natal Moon.
type Gochara struct {
	Planet     astro.Planet `json:"-"`
	Name       string       `json:"planet"`
	Sign       astro.Sign   `json:"sign"`
	House      int          `json:"house"`
	Favourable bool         `json:"favourable"`
}

// GocharaOf judges a planet transiting sign from a natal Moon sign.
func GocharaOf(p astro.Planet, moon, sign astro.Sign) Gochara {
	house := moon.House(sign)
	g := Gochara{Planet: p, Name: p.String(), Sign: sign, House: house}
	for _, h := range gocharaFavourable[p] {
		if h == house {
			g.Favourable = true
			break
		}
	}
	return g
}

// GocharaAll judges every planet with a known transit position.
func GocharaAll(natal *astro.Chart, transits Positions) []Gochara {
	moon := astro.SignOf(natal.Birth.MoonLongitude)
	var out []Gochara
	for _, p := range astro.Planets() {
		s, ok := transits.Sign(p)
		if !ok {
			continue
		}
		out = append(out, GocharaOf(p, moon, s))
	}
	return out
}

// Positions maps planets to sidereal transit longitudes.
type Positions map[astro.Planet]float64

// Sign returns the transit sign of p. Ketu is derived from Rahu when absent.
func (ps Positions) Sign(p astro.Planet) (astro.Sign, bool) {
	if lon, ok := ps[p]; ok {
		return astro.SignOf(lon), true
	}
	if p == astro.Ketu {
		if rahu, ok := ps[astro.Rahu]; ok {
			return astro.SignOf(rahu + 180), true
		}
	}
	return 0, false
}

// Occupants lists the planets transiting s, in conventional order.
func (ps Positions) Occupants(s astro.Sign) []string {
	var out []string
	for _, p := range astro.Planets() {
		if ps2, ok := ps.Sign(p); ok && ps2 == s {
			out = append(out, p.String())
		}
	}
	return out
}
