package dasha

import (
	"fmt"
	"math"
	"time"

	"github.com/sw33tLie/dasha/pkg/astro"
)

var sudarshanaTrackNames = []string{TrackLagna, TrackMoon, TrackSun}

// buildSudarshana lays out one flat yearly chain per track, each starting at
// its natal sign and advancing a sign per year.
func buildSudarshana(proto *chain, dir Direction) []*Track {
	tracks := make([]*Track, 0, len(sudarshanaTrackNames))
	for _, name := range sudarshanaTrackNames {
		start := dir.TrackStarts[name]
		ch := &chain{
			basis:   proto.basis,
			horizon: proto.horizon,
			cursor:  proto.cursor,
			scheme:  &scheme{maxDepth: 1},
		}
		for i := 0; !ch.done(); i++ {
			ch.add(SignRuler(start.Add(i)), 1, nil, 0)
		}
		tracks = append(tracks, &Track{Name: name, Periods: ch.nodes})
	}
	return tracks
}

// SudarshanaPosition is the running sign of one Sudarshana track.
type SudarshanaPosition struct {
	Track     string     `json:"track"`
	NatalSign astro.Sign `json:"natal_sign"`
	// Age is the number of completed years since birth.
	Age      int        `json:"age"`
	YearSign astro.Sign `json:"year_sign"`
	// House is the year sign's house counted from the natal sign.
	House     int        `json:"house"`
	MonthSign astro.Sign `json:"month_sign"`
}

// SudarshanaAt resynchronizes the three tracks by elapsed age at t. Each
// year is further divided into twelve months that advance a sign from the
// year sign.
func SudarshanaAt(c *astro.Chart, t time.Time, basis YearBasis) ([]SudarshanaPosition, error) {
	dir, err := Resolve(Sudarshana, c)
	if err != nil {
		return nil, err
	}
	if basis == "" {
		basis = Gregorian
	}
	birth := c.Birth.Time.UTC()
	if t.Before(birth) {
		return nil, &RangeError{At: t, Start: birth, Horizon: birth.AddDate(1000, 0, 0)}
	}
	years := ageYears(birth, t, basis)
	age := int(math.Floor(years))
	month := min(int((years-float64(age))*12), 11)

	out := make([]SudarshanaPosition, 0, len(sudarshanaTrackNames))
	for _, name := range sudarshanaTrackNames {
		natal, ok := dir.TrackStarts[name]
		if !ok {
			return nil, fmt.Errorf("%w: sudarshana track %s", ErrUnresolvableDirection, name)
		}
		year := natal.Add(age)
		out = append(out, SudarshanaPosition{
			Track:     name,
			NatalSign: natal,
			Age:       age,
			YearSign:  year,
			House:     natal.House(year),
			MonthSign: year.Add(month),
		})
	}
	return out, nil
}

// ageYears measures the time from birth to t in years of the basis. Whole
// centuries are stepped off first to stay inside time.Duration.
func ageYears(birth, t time.Time, basis YearBasis) float64 {
	const chunk = 100
	years := 0.0
	for {
		next := basis.AddYears(birth, chunk)
		if next.After(t) {
			break
		}
		birth = next
		years += chunk
	}
	return years + float64(t.Sub(birth))/float64(basis.Year())
}
