// Package ephemeris is the boundary to planetary position data: it parses
// position documents from an ephemeris service, fetches them over HTTP and
// reads and writes chart files.
package ephemeris

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sw33tLie/dasha/pkg/astro"
)

// ErrMalformedResponse is returned for documents that are not valid JSON or
// lack the planets section.
var ErrMalformedResponse = errors.New("malformed ephemeris response")

// Positions is a set of sidereal longitudes at one instant.
type Positions struct {
	Time         time.Time
	Ayanamsa     float64
	Longitudes   map[astro.Planet]float64
	Ascendant    float64
	HasAscendant bool
}

// ParsePositions decodes a position document:
//
//	{
//	  "time": "2024-01-01T00:00:00Z",
//	  "zodiac": "tropical",
//	  "ayanamsa": 24.17,
//	  "ascendant": 123.4,
//	  "planets": {"Sun": 280.1, "Moon": {"longitude": 12.5}}
//	}
//
// planets may also be an array of {"name", "longitude"} objects. Tropical
// longitudes are converted to sidereal by subtracting the ayanamsa.
func ParsePositions(body []byte) (*Positions, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	doc := gjson.ParseBytes(body)
	planets := doc.Get("planets")
	if !planets.Exists() {
		return nil, fmt.Errorf("%w: missing planets", ErrMalformedResponse)
	}

	ps := &Positions{
		Ayanamsa:   doc.Get("ayanamsa").Float(),
		Longitudes: make(map[astro.Planet]float64),
	}
	if ts := doc.Get("time").Str; ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: time %q: %v", ErrMalformedResponse, ts, err)
		}
		ps.Time = t
	}

	tropical := strings.EqualFold(doc.Get("zodiac").Str, "tropical")
	convert := func(lon float64) float64 {
		if tropical {
			lon -= ps.Ayanamsa
		}
		return astro.Normalize(lon)
	}

	var perr error
	add := func(name string, v gjson.Result) {
		if v.IsObject() {
			v = v.Get("longitude")
		}
		if v.Type != gjson.Number {
			perr = fmt.Errorf("%w: %s longitude is not a number", ErrMalformedResponse, name)
			return
		}
		p, err := astro.ParsePlanet(name)
		if err != nil {
			// Outer planets and other bodies are ignored.
			return
		}
		ps.Longitudes[p] = convert(v.Float())
	}
	switch {
	case planets.IsArray():
		planets.ForEach(func(_, v gjson.Result) bool {
			add(v.Get("name").Str, v)
			return perr == nil
		})
	case planets.IsObject():
		planets.ForEach(func(k, v gjson.Result) bool {
			add(k.Str, v)
			return perr == nil
		})
	default:
		return nil, fmt.Errorf("%w: planets must be an object or an array", ErrMalformedResponse)
	}
	if perr != nil {
		return nil, perr
	}

	if asc := doc.Get("ascendant"); asc.Exists() {
		if asc.Type != gjson.Number {
			return nil, fmt.Errorf("%w: ascendant is not a number", ErrMalformedResponse)
		}
		ps.Ascendant = convert(asc.Float())
		ps.HasAscendant = true
	}
	return ps, nil
}

// Transits returns the positions keyed for the transit overlay.
func (p *Positions) Transits() map[astro.Planet]float64 {
	out := make(map[astro.Planet]float64, len(p.Longitudes))
	for k, v := range p.Longitudes {
		out[k] = v
	}
	return out
}

// Chart assembles a natal chart. The Sun and Moon are required.
func (p *Positions) Chart(name string, birth time.Time, lat, lon float64) (*astro.Chart, error) {
	sun, ok := p.Longitudes[astro.Sun]
	if !ok {
		return nil, fmt.Errorf("%w: Sun", astro.ErrMissingPosition)
	}
	moon, ok := p.Longitudes[astro.Moon]
	if !ok {
		return nil, fmt.Errorf("%w: Moon", astro.ErrMissingPosition)
	}
	c := &astro.Chart{
		Name: name,
		Birth: astro.BirthMoment{
			Time:          birth,
			Latitude:      lat,
			Longitude:     lon,
			SunLongitude:  sun,
			MoonLongitude: moon,
			Ayanamsa:      p.Ayanamsa,
		},
		Positions:    make(map[astro.Planet]float64),
		Ascendant:    p.Ascendant,
		HasAscendant: p.HasAscendant,
	}
	for pl, l := range p.Longitudes {
		if pl != astro.Sun && pl != astro.Moon {
			c.Positions[pl] = l
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
