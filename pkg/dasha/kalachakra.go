package dasha

import (
	"fmt"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/nakshatra"
)

// kalachakraTable is the nine-sign Mahadasha sequence of one pada.
type kalachakraTable struct {
	signs     [9]astro.Sign
	paramayus int
}

func (t kalachakraTable) validate() error {
	sum := 0
	for _, s := range t.signs {
		sum += kalachakraSignYears[s]
	}
	if sum != t.paramayus {
		return fmt.Errorf("kalachakra: pada sequence %v sums to %d, paramayus is %d", t.signs, sum, t.paramayus)
	}
	return nil
}

func (t kalachakraTable) sequence() *sequence {
	seq := &sequence{}
	for _, s := range t.signs {
		y := int64(kalachakraSignYears[s])
		seq.rulers = append(seq.rulers, SignRuler(s))
		seq.years = append(seq.years, y)
		seq.total += y
	}
	return seq
}

func (t kalachakraTable) reversed() kalachakraTable {
	out := kalachakraTable{paramayus: t.paramayus}
	for i, s := range t.signs {
		out.signs[8-i] = s
	}
	return out
}

const (
	ar = astro.Aries
	ta = astro.Taurus
	ge = astro.Gemini
	cn = astro.Cancer
	le = astro.Leo
	vi = astro.Virgo
	li = astro.Libra
	sc = astro.Scorpio
	sg = astro.Sagittarius
	cp = astro.Capricorn
	aq = astro.Aquarius
	pi = astro.Pisces
)

// Savya pada tables. The Ashwini family (Ashwini, Punarvasu, Hasta, Mula,
// Purva Bhadrapada and the Krittika family) uses savyaA, the Bharani family
// uses savyaB.
var (
	savyaA = [4]kalachakraTable{
		{[9]astro.Sign{ar, ta, ge, cn, le, vi, li, sc, sg}, 100},
		{[9]astro.Sign{cp, aq, pi, sc, li, vi, cn, le, ge}, 85},
		{[9]astro.Sign{ta, ar, pi, aq, cp, sg, ar, ta, ge}, 83},
		{[9]astro.Sign{cn, le, vi, li, sc, sg, cp, aq, pi}, 86},
	}
	savyaB = [4]kalachakraTable{
		{[9]astro.Sign{sc, li, vi, cn, le, ge, ta, ar, pi}, 100},
		{[9]astro.Sign{aq, cp, sg, ar, ta, ge, cn, le, vi}, 85},
		{[9]astro.Sign{li, sc, sg, cp, aq, pi, sc, li, vi}, 83},
		{[9]astro.Sign{cn, le, ge, ta, ar, pi, aq, cp, sg}, 86},
	}
)

// mirror builds an Apasavya family: pada k runs the reversed sequence of
// savya pada 5-k.
func mirror(src [4]kalachakraTable) [4]kalachakraTable {
	var out [4]kalachakraTable
	for k := 0; k < 4; k++ {
		out[k] = src[3-k].reversed()
	}
	return out
}

var (
	apasavyaRohini     = mirror(savyaB)
	apasavyaMrigashira = mirror(savyaA)
)

func kalachakraTables() []kalachakraTable {
	var out []kalachakraTable
	for _, fam := range [][4]kalachakraTable{savyaA, savyaB, apasavyaRohini, apasavyaMrigashira} {
		out = append(out, fam[:]...)
	}
	return out
}

// KalachakraGroup describes where a nakshatra sits in the Kalachakra scheme.
// Nakshatras fall into three groups of nine (index mod 3); the groups
// alternate Savya and Apasavya in runs of three nakshatras, so the pattern
// position is (index / 3) mod 2.
type KalachakraGroup struct {
	GroupID         int  `json:"group_id"`
	PatternPosition int  `json:"pattern_position"`
	Savya           bool `json:"savya"`
}

// KalachakraGroupOf returns the group of a nakshatra index.
func KalachakraGroupOf(index int) KalachakraGroup {
	pos := (index / 3) % 2
	return KalachakraGroup{GroupID: index % 3, PatternPosition: pos, Savya: pos == 0}
}

// kalachakraTableFor returns the Mahadasha sequence for a nakshatra pada.
func kalachakraTableFor(index, pada int) kalachakraTable {
	g := KalachakraGroupOf(index)
	var fam [4]kalachakraTable
	switch {
	case g.Savya && g.GroupID == 1:
		fam = savyaB
	case g.Savya:
		fam = savyaA
	case g.GroupID == 1:
		fam = apasavyaMrigashira
	default:
		fam = apasavyaRohini
	}
	return fam[pada-1]
}

// globalPada numbers the 108 padas of the zodiac from 0.
func globalPada(index, pada int) int { return index*nakshatra.PadaCount + pada - 1 }

func padaAt(g int) (index, pada int) {
	g = ((g % 108) + 108) % 108
	return g / nakshatra.PadaCount, g%nakshatra.PadaCount + 1
}
