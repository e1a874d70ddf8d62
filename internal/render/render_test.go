package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/transit"
)

func init() {
	color.NoColor = true
}

func sampleTree(t *testing.T) *dasha.Tree {
	t.Helper()
	c := &astro.Chart{
		Name: "sample",
		Birth: astro.BirthMoment{
			Time:          time.Date(1990, 5, 14, 1, 0, 0, 0, time.UTC),
			Latitude:      27.7172,
			Longitude:     85.324,
			SunLongitude:  29.8,
			MoonLongitude: 5.48,
		},
	}
	tree, err := dasha.Build(dasha.Vimshottari, c, dasha.Options{Depth: 1})
	require.NoError(t, err)
	return tree
}

func TestTreePlain(t *testing.T) {
	tree := sampleTree(t)
	now := tree.Birth.AddDate(10, 0, 0)
	out := New(false).Tree(tree, 2, now)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	// Each Mahadasha is followed by its nine Antardashas.
	require.Len(t, lines, len(tree.Periods())*10)
	assert.True(t, strings.HasPrefix(lines[0], "1\tKetu\t1990-05-14T01:00:00Z\t"))
	assert.True(t, strings.HasPrefix(lines[1], "2\tKetu\t"))

	var active []string
	for _, l := range lines {
		if strings.HasSuffix(l, "\ttrue") {
			active = append(active, l)
		}
	}
	require.Len(t, active, 2)
	assert.Contains(t, active[0], "\tVenus\t")
}

func TestTreePretty(t *testing.T) {
	tree := sampleTree(t)
	out := New(true).Tree(tree, 1, tree.Birth.AddDate(10, 0, 0))
	assert.True(t, strings.HasPrefix(out, "Vimshottari Dasha\n"))
	assert.Contains(t, out, "Venus        1994-")
	assert.Equal(t, 1, strings.Count(out, "◀"))
}

func TestPathAndFailure(t *testing.T) {
	tree := sampleTree(t)
	path, err := tree.ActiveDepth(tree.Birth.AddDate(10, 0, 0), 2)
	require.NoError(t, err)

	plain := New(false).Path(dasha.Vimshottari, path, nil)
	assert.True(t, strings.HasPrefix(plain, "vimshottari\tVenus/"))
	assert.Empty(t, New(false).Path(dasha.Vimshottari, nil, nil))

	sd := &dasha.Sandhi{Outgoing: tree.Periods()[0], Incoming: tree.Periods()[1], Boundary: tree.Periods()[0].End}
	pretty := New(true).Path(dasha.Vimshottari, path[:1], sd)
	assert.Contains(t, pretty, "sandhi Ketu → Venus")

	fail := New(false).Failure(dasha.Chara, errors.New("missing ascendant"))
	assert.Equal(t, "chara\tDASHA_CALCULATION_FAILED\tmissing ascendant\n", fail)
}

func TestApplicability(t *testing.T) {
	as := []dasha.Applicability{
		{System: dasha.Vimshottari, Applicable: true, Primary: true, Reasons: []dasha.Reason{dasha.ReasonUniversal}},
		{System: dasha.Ashtottari, Applicable: false, Primary: true, Reasons: []dasha.Reason{dasha.ReasonDayShukla}},
	}
	plain := New(false).Applicability(as)
	assert.Equal(t, "vimshottari\ttrue\ttrue\tUNIVERSAL\nashtottari\tfalse\ttrue\tDAY_BIRTH_SHUKLA_PAKSHA\n", plain)

	pretty := New(true).Applicability(as)
	assert.Contains(t, pretty, "✗ ashtottari")
}

func TestTransitAndSudarshana(t *testing.T) {
	sign := astro.Capricorn
	bindus, sav := 5, 31
	good := true
	as := []transit.Annotation{
		{Level: "Mahadasha", Ruler: "Saturn", Sign: &sign, HouseFromMoon: 10, Favourable: &good, Bindus: &bindus, SAV: &sav, Score: 2},
		{Level: "Antardasha", Ruler: "Aries", Score: -1},
	}
	plain := New(false).Transit(dasha.Vimshottari, as)
	assert.Equal(t, "Mahadasha\tSaturn\tCapricorn\t10\t5\t31\t2\nAntardasha\tAries\t-\t-\t-\t-\t-1\n", plain)
	assert.Contains(t, New(true).Transit(dasha.Vimshottari, as), "score +2")

	ps := []dasha.SudarshanaPosition{{Track: "lagna", NatalSign: astro.Taurus, Age: 5, YearSign: astro.Libra, House: 6, MonthSign: astro.Scorpio}}
	assert.Equal(t, "lagna\tTaurus\t5\tLibra\t6\tScorpio\n", New(false).Sudarshana(ps))
}
