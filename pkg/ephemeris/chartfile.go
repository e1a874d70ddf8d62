package ephemeris

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/sw33tLie/dasha/pkg/astro"
)

// chartFile is the on-disk TOML form of a chart.
type chartFile struct {
	Name      string             `toml:"name"`
	Birth     birthFile          `toml:"birth"`
	Ascendant *float64           `toml:"ascendant,omitempty"`
	Positions map[string]float64 `toml:"positions"`
}

type birthFile struct {
	Time      time.Time  `toml:"time"`
	Latitude  float64    `toml:"latitude"`
	Longitude float64    `toml:"longitude"`
	Ayanamsa  float64    `toml:"ayanamsa,omitempty"`
	Sunrise   *time.Time `toml:"sunrise,omitempty"`
	Sunset    *time.Time `toml:"sunset,omitempty"`
}

// ParseChart decodes a TOML chart. Positions are sidereal longitudes keyed
// by planet name and must include the Sun and Moon.
func ParseChart(data []byte) (*astro.Chart, error) {
	var f chartFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing chart file: %w", err)
	}

	ps := &Positions{Longitudes: make(map[astro.Planet]float64), Ayanamsa: f.Birth.Ayanamsa}
	for name, lon := range f.Positions {
		p, err := astro.ParsePlanet(name)
		if err != nil {
			return nil, fmt.Errorf("parsing chart file: %w", err)
		}
		ps.Longitudes[p] = lon
	}
	if f.Ascendant != nil {
		ps.Ascendant, ps.HasAscendant = *f.Ascendant, true
	}

	c, err := ps.Chart(f.Name, f.Birth.Time, f.Birth.Latitude, f.Birth.Longitude)
	if err != nil {
		return nil, err
	}
	if f.Birth.Sunrise != nil {
		c.Birth.Sunrise = *f.Birth.Sunrise
	}
	if f.Birth.Sunset != nil {
		c.Birth.Sunset = *f.Birth.Sunset
	}
	return c, nil
}

// MarshalChart encodes a chart as TOML.
func MarshalChart(c *astro.Chart) ([]byte, error) {
	f := chartFile{
		Name: c.Name,
		Birth: birthFile{
			Time:      c.Birth.Time,
			Latitude:  c.Birth.Latitude,
			Longitude: c.Birth.Longitude,
			Ayanamsa:  c.Birth.Ayanamsa,
		},
		Positions: make(map[string]float64),
	}
	if !c.Birth.Sunrise.IsZero() {
		f.Birth.Sunrise = &c.Birth.Sunrise
	}
	if !c.Birth.Sunset.IsZero() {
		f.Birth.Sunset = &c.Birth.Sunset
	}
	if c.HasAscendant {
		asc := c.Ascendant
		f.Ascendant = &asc
	}
	for _, p := range astro.Planets() {
		if lon, ok := c.Positions[p]; ok {
			f.Positions[p.String()] = lon
		}
	}
	f.Positions[astro.Sun.String()] = c.Birth.SunLongitude
	f.Positions[astro.Moon.String()] = c.Birth.MoonLongitude
	return toml.Marshal(f)
}

// LoadChartFile reads a chart from a TOML file.
func LoadChartFile(path string) (*astro.Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chart file: %w", err)
	}
	return ParseChart(data)
}

// SaveChartFile writes the chart atomically (write temp + rename).
func SaveChartFile(path string, c *astro.Chart) error {
	data, err := MarshalChart(c)
	if err != nil {
		return fmt.Errorf("marshaling chart: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp chart file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming chart file: %w", err)
	}
	return nil
}

// LoadChartDir reads every *.toml chart in dir, sorted by file name. Files
// that fail to parse are returned in errs and skipped.
func LoadChartDir(dir string) (charts []*astro.Chart, errs []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		c, err := LoadChartFile(filepath.Join(dir, n))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n, err))
			continue
		}
		charts = append(charts, c)
	}
	return charts, errs
}

// GlobChartFiles expands a pattern that may use ** to match directories
// recursively, e.g. "charts/**/*.toml". A pattern without metacharacters
// must name an existing file.
func GlobChartFiles(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad chart pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no chart files match %q", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}
