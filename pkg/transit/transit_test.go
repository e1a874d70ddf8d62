package transit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
)

func natalChart() *astro.Chart {
	return &astro.Chart{
		Name: "sample",
		Birth: astro.BirthMoment{
			Time:          time.Date(1990, 5, 14, 1, 0, 0, 0, time.UTC),
			Latitude:      27.7172,
			Longitude:     85.324,
			SunLongitude:  29.8,
			MoonLongitude: 5.48,
		},
		Positions: map[astro.Planet]float64{
			astro.Mars:    310.2,
			astro.Mercury: 15,
			astro.Jupiter: 75,
			astro.Venus:   50,
			astro.Saturn:  294.1,
			astro.Rahu:    292.4,
		},
		Ascendant:    45.3,
		HasAscendant: true,
	}
}

func TestBAVTableTotals(t *testing.T) {
	want := map[astro.Planet]int{
		astro.Sun: 48, astro.Moon: 49, astro.Mars: 39, astro.Mercury: 54,
		astro.Jupiter: 56, astro.Venus: 52, astro.Saturn: 39,
	}
	for p, n := range want {
		got := 0
		for _, houses := range bavTables[p] {
			got += len(houses)
		}
		assert.Equal(t, n, got, p.String())
	}
}

func TestAshtakavargaTotals(t *testing.T) {
	av, err := ComputeAshtakavarga(natalChart())
	require.NoError(t, err)
	assert.Equal(t, 337, av.Total())

	sum := 0
	for _, bav := range av.BAV {
		for _, b := range bav {
			assert.GreaterOrEqual(t, b, 0)
			assert.LessOrEqual(t, b, 8)
			sum += b
		}
	}
	assert.Equal(t, 337, sum)

	_, ok := av.Bindus(astro.Rahu, astro.Aries)
	assert.False(t, ok)
}

func TestAshtakavargaNeedsPositions(t *testing.T) {
	c := natalChart()
	delete(c.Positions, astro.Venus)
	_, err := ComputeAshtakavarga(c)
	assert.True(t, errors.Is(err, astro.ErrMissingPosition))

	c = natalChart()
	c.HasAscendant = false
	_, err = ComputeAshtakavarga(c)
	assert.True(t, errors.Is(err, astro.ErrMissingPosition))
}

func TestGochara(t *testing.T) {
	tests := []struct {
		name string
		p    astro.Planet
		sign astro.Sign
		want bool
	}{
		{"saturn third from moon", astro.Saturn, astro.Gemini, true},
		{"saturn on the moon", astro.Saturn, astro.Aries, false},
		{"jupiter eleventh", astro.Jupiter, astro.Aquarius, true},
		{"jupiter eighth", astro.Jupiter, astro.Scorpio, false},
		{"moon in the first", astro.Moon, astro.Aries, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GocharaOf(tt.p, astro.Aries, tt.sign)
			assert.Equal(t, tt.want, g.Favourable)
		})
	}
}

func TestPositionsDeriveKetu(t *testing.T) {
	ps := Positions{astro.Rahu: 10}
	s, ok := ps.Sign(astro.Ketu)
	require.True(t, ok)
	assert.Equal(t, astro.Libra, s)
	assert.Equal(t, []string{"Ketu"}, ps.Occupants(astro.Libra))

	all := GocharaAll(natalChart(), ps)
	assert.Len(t, all, 2)
}

func TestOverlay(t *testing.T) {
	natal := natalChart()
	tree, err := dasha.Build(dasha.Vimshottari, natal, dasha.Options{})
	require.NoError(t, err)
	path, err := tree.Active(tree.Birth.AddDate(10, 0, 0))
	require.NoError(t, err)

	transits := Positions{
		astro.Sun: 200, astro.Moon: 10, astro.Mars: 100, astro.Mercury: 190,
		astro.Jupiter: 95, astro.Venus: 220, astro.Saturn: 300, astro.Rahu: 20,
	}
	notes := Overlay(path, natal, transits)
	require.Len(t, notes, len(path))
	for i, a := range notes {
		assert.Equal(t, path[i].Ruler, a.Ruler)
		assert.Equal(t, i+1, a.Depth)
		require.NotNil(t, a.Sign)
		require.NotNil(t, a.Favourable)
		require.NotNil(t, a.SAV)
		if a.Planet != "Rahu" && a.Planet != "Ketu" {
			require.NotNil(t, a.Bindus)
		}
	}

	// Without an Ascendant the Ashtakavarga is skipped but Gochara remains.
	natal.HasAscendant = false
	notes = Overlay(path, natal, transits)
	assert.Nil(t, notes[0].SAV)
	assert.NotNil(t, notes[0].Favourable)
}

func TestOverlaySignRulers(t *testing.T) {
	natal := natalChart()
	tree, err := dasha.Build(dasha.Chara, natal, dasha.Options{})
	require.NoError(t, err)
	path, err := tree.Active(tree.Birth)
	require.NoError(t, err)

	notes := Overlay(path, natal, Positions{astro.Saturn: 5, astro.Jupiter: 15})
	require.NotEmpty(t, notes)
	md := notes[0]
	assert.Empty(t, md.Planet)
	require.NotNil(t, md.Sign)
	assert.Equal(t, astro.Aries, *md.Sign)
	assert.Equal(t, []string{"Jupiter", "Saturn"}, md.Transiting)
	assert.Equal(t, 1, md.HouseFromMoon)
	require.NotNil(t, md.SAV)
}
