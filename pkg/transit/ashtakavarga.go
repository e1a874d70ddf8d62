package transit

import (
	"fmt"

	"github.com/sw33tLie/dasha/pkg/astro"
)

// lagnaRef indexes the Lagna among the eight Ashtakavarga reference points;
// indices 0..6 are Sun through Saturn.
const lagnaRef = 7

// bavTables gives, for each planet, the houses counted from each reference
// point that contribute a bindu to its Bhinnashtakavarga.
var bavTables = map[astro.Planet][8][]int{
	astro.Sun: {
		{1, 2, 4, 7, 8, 9, 10, 11},
		{3, 6, 10, 11},
		{1, 2, 4, 7, 8, 9, 10, 11},
		{3, 5, 6, 9, 10, 11, 12},
		{5, 6, 9, 11},
		{6, 7, 12},
		{1, 2, 4, 7, 8, 9, 10, 11},
		{3, 4, 6, 10, 11, 12},
	},
	astro.Moon: {
		{3, 6, 7, 8, 10, 11},
		{1, 3, 6, 7, 10, 11},
		{2, 3, 5, 6, 9, 10, 11},
		{1, 3, 4, 5, 7, 8, 10, 11},
		{1, 4, 7, 8, 10, 11, 12},
		{3, 4, 5, 7, 9, 10, 11},
		{3, 5, 6, 11},
		{3, 6, 10, 11},
	},
	astro.Mars: {
		{3, 5, 6, 10, 11},
		{3, 6, 11},
		{1, 2, 4, 7, 8, 10, 11},
		{3, 5, 6, 11},
		{6, 10, 11, 12},
		{6, 8, 11, 12},
		{1, 4, 7, 8, 9, 10, 11},
		{1, 3, 6, 10, 11},
	},
	astro.Mercury: {
		{5, 6, 9, 11, 12},
		{2, 4, 6, 8, 10, 11},
		{1, 2, 4, 7, 8, 9, 10, 11},
		{1, 3, 5, 6, 9, 10, 11, 12},
		{6, 8, 11, 12},
		{1, 2, 3, 4, 5, 8, 9, 11},
		{1, 2, 4, 7, 8, 9, 10, 11},
		{1, 2, 4, 6, 8, 10, 11},
	},
	astro.Jupiter: {
		{1, 2, 3, 4, 7, 8, 9, 10, 11},
		{2, 5, 7, 9, 11},
		{1, 2, 4, 7, 8, 10, 11},
		{1, 2, 4, 5, 6, 9, 10, 11},
		{1, 2, 3, 4, 7, 8, 10, 11},
		{2, 5, 6, 9, 10, 11},
		{3, 5, 6, 12},
		{1, 2, 4, 5, 6, 7, 9, 10, 11},
	},
	astro.Venus: {
		{8, 11, 12},
		{1, 2, 3, 4, 5, 8, 9, 11, 12},
		{3, 5, 6, 9, 11, 12},
		{3, 5, 6, 9, 11},
		{5, 8, 9, 10, 11},
		{1, 2, 3, 4, 5, 8, 9, 10, 11},
		{3, 4, 5, 8, 9, 10, 11},
		{1, 2, 3, 4, 5, 8, 9, 11},
	},
	astro.Saturn: {
		{1, 2, 4, 7, 8, 10, 11},
		{3, 6, 11},
		{3, 5, 6, 10, 11, 12},
		{6, 8, 9, 10, 11, 12},
		{5, 6, 11, 12},
		{6, 11, 12},
		{3, 5, 6, 11},
		{1, 3, 4, 6, 10, 11},
	},
}

// Ashtakavarga holds the bindus of a natal chart.
type Ashtakavarga struct {
	// BAV is the Bhinnashtakavarga of each of the seven planets, indexed by
	// sign.
	BAV map[astro.Planet][12]int
	// SAV is the Sarvashtakavarga: the per-sign sum of every BAV.
	SAV [12]int
}

// ComputeAshtakavarga builds the tables from natal positions. Every planet
// from the Sun to Saturn and the Ascendant must be known.
func ComputeAshtakavarga(c *astro.Chart) (*Ashtakavarga, error) {
	var refs [8]astro.Sign
	for i, p := range astro.SevenPlanets() {
		s, err := c.SignOf(p)
		if err != nil {
			return nil, fmt.Errorf("ashtakavarga: %w", err)
		}
		refs[i] = s
	}
	lagna, err := c.LagnaSign()
	if err != nil {
		return nil, fmt.Errorf("ashtakavarga: %w", err)
	}
	refs[lagnaRef] = lagna

	av := &Ashtakavarga{BAV: make(map[astro.Planet][12]int, 7)}
	for _, p := range astro.SevenPlanets() {
		var bav [12]int
		for ref, houses := range bavTables[p] {
			for _, h := range houses {
				bav[refs[ref].Add(h-1)]++
			}
		}
		av.BAV[p] = bav
		for s, n := range bav {
			av.SAV[s] += n
		}
	}
	return av, nil
}

// Bindus returns the BAV bindus of p in sign s. Planets without a table
// (the nodes) have none.
func (a *Ashtakavarga) Bindus(p astro.Planet, s astro.Sign) (int, bool) {
	bav, ok := a.BAV[p]
	if !ok {
		return 0, false
	}
	return bav[s], true
}

// Total returns the sum of the SAV.
func (a *Ashtakavarga) Total() int {
	n := 0
	for _, v := range a.SAV {
		n += v
	}
	return n
}
