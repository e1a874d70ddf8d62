package dasha

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/dasha/pkg/astro"
)

var kathmandu = time.FixedZone("NPT", 5*3600+45*60)

// sampleChart has a self-ruled Taurus Lagna (Venus in Taurus) and the Moon
// at the given longitude.
func sampleChart(moon float64) *astro.Chart {
	birth := time.Date(1990, 5, 14, 6, 42, 0, 0, kathmandu)
	return &astro.Chart{
		Name: "sample",
		Birth: astro.BirthMoment{
			Time:          birth,
			Latitude:      27.7172,
			Longitude:     85.324,
			SunLongitude:  29.8,
			MoonLongitude: moon,
			Ayanamsa:      23.71,
			Sunrise:       birth.Add(-90 * time.Minute),
			Sunset:        birth.Add(12 * time.Hour),
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

func mustBuild(t *testing.T, id SystemID, c *astro.Chart, opts Options) *Tree {
	t.Helper()
	tree, err := Build(id, c, opts)
	require.NoError(t, err)
	return tree
}

func years(basis YearBasis, d time.Duration) float64 {
	return float64(d) / float64(basis.Year())
}

// assertPartition checks that children tile their parent exactly.
func assertPartition(t *testing.T, parent *Node, children []*Node) {
	t.Helper()
	require.NotEmpty(t, children)
	assert.True(t, children[0].Start.Equal(parent.Start), "first child must start with parent")
	assert.True(t, children[len(children)-1].End.Equal(parent.End), "last child must end with parent")
	var sum time.Duration
	for i, c := range children {
		assert.Equal(t, parent.Depth+1, c.Depth)
		assert.Same(t, parent, c.Parent())
		assert.True(t, c.End.After(c.Start), "child %d has no length", i)
		if i > 0 {
			assert.True(t, c.Start.Equal(children[i-1].End), "gap before child %d", i)
		}
		sum += c.Duration()
	}
	assert.Equal(t, parent.Duration(), sum)
}
