package dasha

import (
	"fmt"

	"github.com/sw33tLie/dasha/pkg/astro"
)

// kind selects the construction strategy of a system.
type kind int

const (
	fixedSequence kind = iota
	kalachakraSequence
	charaSequence
	sudarshanaTracks
)

// Entry is the static catalog record of one system.
type Entry struct {
	System SystemID
	// TotalCycleYears is the length of one full rotation of Rulers. For
	// Kalachakra it is the Purnayu (100), individual padas run shorter; for
	// Chara it is the twelve-sign double cycle.
	TotalCycleYears int
	Rulers          []Ruler
	// Years holds fixed per-ruler durations. Rule-based systems leave it nil
	// and provide YearsFor instead.
	Years    map[Ruler]int
	YearsFor func(*astro.Chart) (map[Ruler]int, error)
	// Depth is the deepest subdivision level the system defines (1..5).
	Depth int

	kind kind
}

// RulerYears returns the per-ruler durations for a chart.
func (e *Entry) RulerYears(c *astro.Chart) (map[Ruler]int, error) {
	if e.YearsFor != nil {
		return e.YearsFor(c)
	}
	return e.Years, nil
}

// Validate checks the static invariants of the entry: a non-empty sequence,
// positive durations, and, for fixed durations, an exact cycle sum.
func (e *Entry) Validate() error {
	if len(e.Rulers) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyRulerSequence, e.System)
	}
	if e.Depth < 1 || e.Depth > 5 {
		return fmt.Errorf("%s: depth %d outside 1..5", e.System, e.Depth)
	}
	if e.Years == nil {
		return nil
	}
	sum := 0
	for _, r := range e.Rulers {
		y := e.Years[r]
		if y <= 0 {
			return fmt.Errorf("%w: %s ruler %s has %d years", ErrNonPositiveDuration, e.System, r, y)
		}
		sum += y
	}
	if e.kind == fixedSequence && sum != e.TotalCycleYears {
		return fmt.Errorf("%s: rulers sum to %d years, cycle is %d", e.System, sum, e.TotalCycleYears)
	}
	if e.kind == kalachakraSequence {
		for _, t := range kalachakraTables() {
			if err := t.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// sequence returns the catalog's ruler order with durations.
func (e *Entry) sequence(years map[Ruler]int) (*sequence, error) {
	seq := &sequence{}
	for _, r := range e.Rulers {
		y, ok := years[r]
		if !ok || y <= 0 {
			return nil, fmt.Errorf("%w: %s ruler %s", ErrNonPositiveDuration, e.System, r)
		}
		seq.rulers = append(seq.rulers, r)
		seq.years = append(seq.years, int64(y))
		seq.total += int64(y)
	}
	if len(seq.rulers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRulerSequence, e.System)
	}
	return seq, nil
}

func planetRulers(ps ...astro.Planet) []Ruler {
	out := make([]Ruler, len(ps))
	for i, p := range ps {
		out[i] = PlanetRuler(p)
	}
	return out
}

func signRulers() []Ruler {
	out := make([]Ruler, 12)
	for i, s := range astro.Signs() {
		out[i] = SignRuler(s)
	}
	return out
}

// kalachakraSignYears are the fixed sign durations used by Kalachakra.
var kalachakraSignYears = map[astro.Sign]int{
	astro.Aries: 7, astro.Taurus: 16, astro.Gemini: 9, astro.Cancer: 21,
	astro.Leo: 5, astro.Virgo: 9, astro.Libra: 16, astro.Scorpio: 7,
	astro.Sagittarius: 10, astro.Capricorn: 4, astro.Aquarius: 4, astro.Pisces: 10,
}

var catalog = map[SystemID]*Entry{
	Vimshottari: {
		System:          Vimshottari,
		TotalCycleYears: 120,
		Rulers:          planetRulers(astro.Ketu, astro.Venus, astro.Sun, astro.Moon, astro.Mars, astro.Rahu, astro.Jupiter, astro.Saturn, astro.Mercury),
		Years: map[Ruler]int{
			"Ketu": 7, "Venus": 20, "Sun": 6, "Moon": 10, "Mars": 7,
			"Rahu": 18, "Jupiter": 16, "Saturn": 19, "Mercury": 17,
		},
		Depth: 5,
		kind:  fixedSequence,
	},
	Yogini: {
		System:          Yogini,
		TotalCycleYears: 36,
		// Rooted at Ashwini's Yogini so the start is nakshatra index mod 8.
		Rulers: []Ruler{Bhramari, Bhadrika, Ulka, Siddha, Sankata, Mangala, Pingala, Dhanya},
		Years: map[Ruler]int{
			Mangala: 1, Pingala: 2, Dhanya: 3, Bhramari: 4,
			Bhadrika: 5, Ulka: 6, Siddha: 7, Sankata: 8,
		},
		Depth: 3,
		kind:  fixedSequence,
	},
	Ashtottari: {
		System:          Ashtottari,
		TotalCycleYears: 108,
		Rulers:          planetRulers(astro.Sun, astro.Moon, astro.Mars, astro.Mercury, astro.Saturn, astro.Jupiter, astro.Rahu, astro.Venus),
		Years: map[Ruler]int{
			"Sun": 6, "Moon": 15, "Mars": 8, "Mercury": 17,
			"Saturn": 10, "Jupiter": 19, "Rahu": 12, "Venus": 21,
		},
		Depth: 3,
		kind:  fixedSequence,
	},
	Kalachakra: {
		System:          Kalachakra,
		TotalCycleYears: 100,
		Rulers:          signRulers(),
		Years:           signYears(kalachakraSignYears),
		Depth:           2,
		kind:            kalachakraSequence,
	},
	Chara: {
		System:          Chara,
		TotalCycleYears: 144,
		Rulers:          signRulers(),
		YearsFor:        CharaYears,
		Depth:           2,
		kind:            charaSequence,
	},
	Sudarshana: {
		System:          Sudarshana,
		TotalCycleYears: 12,
		Rulers:          signRulers(),
		Years:           signYears(nil),
		Depth:           1,
		kind:            sudarshanaTracks,
	},
}

// ashtottariBlocks is the number of consecutive nakshatras owned by each
// Ashtottari ruler, in catalog order, starting at Ardra.
var ashtottariBlocks = []int{4, 3, 4, 3, 3, 3, 4, 3}

const ashtottariFirstNakshatra = 5 // Ardra

func signYears(m map[astro.Sign]int) map[Ruler]int {
	out := make(map[Ruler]int, 12)
	for _, s := range astro.Signs() {
		y := 1
		if m != nil {
			y = m[s]
		}
		out[SignRuler(s)] = y
	}
	return out
}

// Catalog returns the static entry for a system.
func Catalog(id SystemID) (*Entry, error) {
	e, ok := catalog[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSystem, int(id))
	}
	return e, nil
}

// ValidateCatalog checks every entry. It is run once when an engine is
// constructed.
func ValidateCatalog() error {
	for _, id := range Systems() {
		e, err := Catalog(id)
		if err != nil {
			return err
		}
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}
