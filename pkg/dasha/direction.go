package dasha

import (
	"fmt"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/nakshatra"
)

// UI labels for the direction annotation.
const (
	LabelCharaDirect       = "CHARA_DASHA_DIRECT"
	LabelCharaIndirect     = "CHARA_DASHA_INDIRECT"
	LabelKalachakraSavya   = "KALACHAKRA_SAVYA"
	LabelKalachakraApsavya = "KALACHAKRA_APSAVYA"
)

// Track names for Sudarshana Chakra.
const (
	TrackMain  = "main"
	TrackLagna = "lagna"
	TrackMoon  = "moon"
	TrackSun   = "sun"
)

// Direction is the resolved starting point and traversal order of a system
// for one chart.
type Direction struct {
	Forward bool `json:"forward"`
	// StartIndex indexes the catalog ruler order (fixed systems) or the
	// Kalachakra pada sequence.
	StartIndex int   `json:"start_index"`
	StartRuler Ruler `json:"start_ruler,omitempty"`
	// Elapsed is the fraction of the governing unit (nakshatra, Ashtottari
	// block or pada) already traversed at birth.
	Elapsed   float64            `json:"elapsed"`
	Nakshatra nakshatra.Position `json:"nakshatra"`

	// Kalachakra.
	Group *KalachakraGroup `json:"kalachakra_group,omitempty"`

	// Chara.
	StartSign *astro.Sign `json:"start_sign,omitempty"`
	CarveOut  bool        `json:"carve_out,omitempty"`

	// Sudarshana: per-track starting signs.
	TrackStarts map[string]astro.Sign `json:"track_starts,omitempty"`

	Label string `json:"label,omitempty"`
}

// Resolve computes the direction of a system for a chart.
func Resolve(id SystemID, c *astro.Chart) (Direction, error) {
	e, err := Catalog(id)
	if err != nil {
		return Direction{}, err
	}
	pos, err := nakshatra.Locate(c.Birth.MoonLongitude)
	if err != nil {
		return Direction{}, err
	}

	d := Direction{Forward: true, Nakshatra: pos}
	switch id {
	case Vimshottari:
		d.StartRuler = PlanetRuler(pos.Lord())
		d.StartIndex = indexOf(e.Rulers, d.StartRuler)
		d.Elapsed = pos.FractionElapsed
	case Yogini:
		d.StartIndex = pos.Index % len(e.Rulers)
		d.StartRuler = e.Rulers[d.StartIndex]
		d.Elapsed = pos.FractionElapsed
	case Ashtottari:
		block, offset := ashtottariBlock(pos.Index)
		d.StartIndex = block
		d.StartRuler = e.Rulers[block]
		d.Elapsed = (float64(offset) + pos.FractionElapsed) / float64(ashtottariBlocks[block])
	case Kalachakra:
		g := KalachakraGroupOf(pos.Index)
		d.Group = &g
		d.Forward = g.Savya
		d.Elapsed = pos.PadaFraction()
		d.Label = LabelKalachakraApsavya
		if g.Savya {
			d.Label = LabelKalachakraSavya
		}
		t := kalachakraTableFor(pos.Index, pos.Pada)
		d.StartIndex, _ = kalachakraRunning(t, d.Elapsed)
		d.StartRuler = SignRuler(t.signs[d.StartIndex])
	case Chara:
		start, forward, carved, err := charaStart(c)
		if err != nil {
			return Direction{}, err
		}
		d.Forward, d.StartSign, d.CarveOut = forward, &start, carved
		d.StartIndex = int(start)
		d.StartRuler = SignRuler(start)
		d.Label = LabelCharaIndirect
		if forward {
			d.Label = LabelCharaDirect
		}
	case Sudarshana:
		lagna, err := c.LagnaSign()
		if err != nil {
			return Direction{}, err
		}
		d.TrackStarts = map[string]astro.Sign{
			TrackLagna: lagna,
			TrackMoon:  astro.SignOf(c.Birth.MoonLongitude),
			TrackSun:   astro.SignOf(c.Birth.SunLongitude),
		}
		d.StartSign = &lagna
		d.StartIndex = int(lagna)
		d.StartRuler = SignRuler(lagna)
	default:
		return Direction{}, fmt.Errorf("%w: %d", ErrUnknownSystem, int(id))
	}
	if d.StartIndex < 0 {
		return Direction{}, fmt.Errorf("%w: %s start ruler %s not in catalog", ErrUnresolvableDirection, id, d.StartRuler)
	}
	return d, nil
}

// ashtottariBlock returns the ruler index owning a nakshatra and the
// nakshatra's offset inside that ruler's block.
func ashtottariBlock(index int) (block, offset int) {
	rel := ((index-ashtottariFirstNakshatra)%nakshatra.Count + nakshatra.Count) % nakshatra.Count
	for i, n := range ashtottariBlocks {
		if rel < n {
			return i, rel
		}
		rel -= n
	}
	// Unreachable: the blocks cover all 27 nakshatras.
	return len(ashtottariBlocks) - 1, 0
}

// kalachakraRunning locates the sign running after the given fraction of a
// pada's paramayus has elapsed, and how many years of it remain.
func kalachakraRunning(t kalachakraTable, elapsed float64) (idx int, remaining float64) {
	gone := elapsed * float64(t.paramayus)
	cum := 0.0
	for i, s := range t.signs {
		y := float64(kalachakraSignYears[s])
		if gone < cum+y {
			return i, cum + y - gone
		}
		cum += y
	}
	last := len(t.signs) - 1
	return last, 0
}

func indexOf(rulers []Ruler, r Ruler) int {
	for i, x := range rulers {
		if x == r {
			return i
		}
	}
	return -1
}
