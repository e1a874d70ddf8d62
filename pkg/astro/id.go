package astro

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// chartNamespace scopes content-addressed chart ids.
var chartNamespace = uuid.MustParse("6f1c2a4e-9b0d-5c3e-8a7f-2d4b6e8c0a11")

// ID returns a content-addressed identifier over the chart's birth data.
// Identical birth data always yields the same id; the display name is not
// part of the key.
func (c *Chart) ID() string {
	return uuid.NewSHA1(chartNamespace, []byte(c.canonical())).String()
}

func (c *Chart) canonical() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	_, offset := c.Birth.Time.Zone()

	var b strings.Builder
	b.WriteString(c.Birth.Time.UTC().Format(time.RFC3339Nano))
	b.WriteString("|" + strconv.Itoa(offset))
	b.WriteString("|" + f(c.Birth.Latitude) + "," + f(c.Birth.Longitude))
	b.WriteString("|sun=" + f(c.Birth.SunLongitude) + "|moon=" + f(c.Birth.MoonLongitude))
	b.WriteString("|ayanamsa=" + f(c.Birth.Ayanamsa))
	if !c.Birth.Sunrise.IsZero() {
		b.WriteString("|rise=" + c.Birth.Sunrise.UTC().Format(time.RFC3339Nano))
	}
	if !c.Birth.Sunset.IsZero() {
		b.WriteString("|set=" + c.Birth.Sunset.UTC().Format(time.RFC3339Nano))
	}
	if c.HasAscendant {
		b.WriteString("|asc=" + f(c.Ascendant))
	}

	planets := make([]int, 0, len(c.Positions))
	for p := range c.Positions {
		planets = append(planets, int(p))
	}
	sort.Ints(planets)
	for _, p := range planets {
		b.WriteString("|" + Planet(p).String() + "=" + f(c.Positions[Planet(p)]))
	}
	return b.String()
}
