package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/dasha/pkg/astro"
)

const objectDoc = `{
	"time": "1990-05-14T01:00:00Z",
	"zodiac": "sidereal",
	"ayanamsa": 23.71,
	"ascendant": 45.3,
	"planets": {"Sun": 29.8, "Moon": {"longitude": 5.48}, "Rahu": 292.4, "Uranus": 250}
}`

const arrayDoc = `{
	"zodiac": "tropical",
	"ayanamsa": 24,
	"planets": [
		{"name": "Sun", "longitude": 10},
		{"name": "Moon", "longitude": 100}
	]
}`

func TestParsePositionsObject(t *testing.T) {
	ps, err := ParsePositions([]byte(objectDoc))
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 14, 1, 0, 0, 0, time.UTC), ps.Time)
	assert.InDelta(t, 29.8, ps.Longitudes[astro.Sun], 1e-9)
	assert.InDelta(t, 5.48, ps.Longitudes[astro.Moon], 1e-9)
	assert.Len(t, ps.Longitudes, 3, "unknown bodies are ignored")
	assert.True(t, ps.HasAscendant)
	assert.InDelta(t, 45.3, ps.Ascendant, 1e-9)
}

func TestParsePositionsArrayTropical(t *testing.T) {
	ps, err := ParsePositions([]byte(arrayDoc))
	require.NoError(t, err)
	assert.InDelta(t, 346, ps.Longitudes[astro.Sun], 1e-9, "tropical 10° less 24° ayanamsa wraps")
	assert.InDelta(t, 76, ps.Longitudes[astro.Moon], 1e-9)
	assert.False(t, ps.HasAscendant)
}

func TestParsePositionsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"planets":`},
		{"no planets", `{"time": "1990-05-14T01:00:00Z"}`},
		{"bad longitude", `{"planets": {"Sun": "east"}}`},
		{"bad time", `{"time": "yesterday", "planets": {}}`},
		{"scalar planets", `{"planets": 4}`},
		{"bad ascendant", `{"ascendant": "leo", "planets": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePositions([]byte(tt.doc))
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestPositionsChart(t *testing.T) {
	ps, err := ParsePositions([]byte(objectDoc))
	require.NoError(t, err)
	c, err := ps.Chart("sample", ps.Time, 27.7, 85.3)
	require.NoError(t, err)
	assert.Equal(t, 5.48, c.Birth.MoonLongitude)
	assert.NotContains(t, c.Positions, astro.Sun)
	assert.Contains(t, c.Positions, astro.Rahu)

	delete(ps.Longitudes, astro.Moon)
	_, err = ps.Chart("sample", ps.Time, 27.7, 85.3)
	assert.True(t, errors.Is(err, astro.ErrMissingPosition))
}

func TestClientNatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		assert.Equal(t, "1990-05-14T01:00:00Z", r.URL.Query().Get("time"))
		assert.Equal(t, "27.7", r.URL.Query().Get("lat"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, objectDoc)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 1, time.Second)
	ps, err := c.Natal(context.Background(), time.Date(1990, 5, 14, 1, 0, 0, 0, time.UTC), 27.7, 85.3)
	require.NoError(t, err)
	assert.True(t, ps.HasAscendant)
}

func TestClientRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, arrayDoc)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2, time.Second)
	ps, err := c.Transits(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Len(t, ps.Transits(), 2)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such date", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0, time.Second).Transits(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	_, err = NewClient("", 0, time.Second).Transits(context.Background(), time.Now())
	assert.Error(t, err)
}

func sampleChart() *astro.Chart {
	zone := time.FixedZone("NPT", 5*3600+45*60)
	birth := time.Date(1990, 5, 14, 6, 42, 0, 0, zone)
	return &astro.Chart{
		Name: "sample",
		Birth: astro.BirthMoment{
			Time:          birth,
			Latitude:      27.7172,
			Longitude:     85.324,
			SunLongitude:  29.8,
			MoonLongitude: 5.48,
			Ayanamsa:      23.71,
			Sunrise:       birth.Add(-90 * time.Minute),
		},
		Positions:    map[astro.Planet]float64{astro.Mars: 310.2, astro.Rahu: 292.4},
		Ascendant:    45.3,
		HasAscendant: true,
	}
}

func TestChartFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	c := sampleChart()
	require.NoError(t, SaveChartFile(path, c))

	got, err := LoadChartFile(path)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.True(t, c.Birth.Time.Equal(got.Birth.Time))
	assert.True(t, c.Birth.Sunrise.Equal(got.Birth.Sunrise))
	assert.True(t, got.Birth.Sunset.IsZero())
	assert.Equal(t, c.Positions, got.Positions)
	assert.Equal(t, c.ID(), got.ID())
}

func TestLoadChartDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveChartFile(filepath.Join(dir, "a.toml"), sampleChart()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.toml"), []byte("name = 3"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	charts, errs := LoadChartDir(dir)
	assert.Len(t, charts, 1)
	assert.Len(t, errs, 1)
}

func TestGlobChartFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "family", "elders"), 0755))
	for _, p := range []string{"a.toml", "family/b.toml", "family/elders/c.toml", "family/notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, p), []byte("x"), 0644))
	}

	got, err := GlobChartFiles(filepath.Join(dir, "**", "*.toml"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.toml"),
		filepath.Join(dir, "family", "b.toml"),
		filepath.Join(dir, "family", "elders", "c.toml"),
	}, got)

	got, err = GlobChartFiles(filepath.Join(dir, "a.toml"))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = GlobChartFiles(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
