package dasha

import (
	"github.com/sw33tLie/dasha/pkg/astro"
)

// Reason codes attached to an applicability verdict.
type Reason string

const (
	ReasonDayKrishna         Reason = "DAY_BIRTH_KRISHNA_PAKSHA"
	ReasonNightShukla        Reason = "NIGHT_BIRTH_SHUKLA_PAKSHA"
	ReasonDayShukla          Reason = "DAY_BIRTH_SHUKLA_PAKSHA"
	ReasonNightKrishna       Reason = "NIGHT_BIRTH_KRISHNA_PAKSHA"
	ReasonRahuFromLagnaLord  Reason = "RAHU_KENDRA_TRIKONA_FROM_LAGNA_LORD"
	ReasonSupplementary      Reason = "SUPPLEMENTARY_SYSTEM"
	ReasonUniversal          Reason = "UNIVERSAL"
	ReasonCalculationFailure Reason = "DASHA_CALCULATION_FAILED"
)

// Applicability annotates how much weight a system's tree deserves for a
// chart. It never gates construction.
type Applicability struct {
	System     SystemID `json:"system"`
	Applicable bool     `json:"applicable"`
	Primary    bool     `json:"primary"`
	Reasons    []Reason `json:"reasons"`
}

// Evaluate computes the applicability of a system for a chart.
func Evaluate(id SystemID, c *astro.Chart) Applicability {
	a := Applicability{System: id, Applicable: true, Primary: true}
	switch id {
	case Ashtottari:
		day := astro.IsDayBirth(c.Birth)
		paksha := astro.PakshaOf(c.Birth.SunLongitude, c.Birth.MoonLongitude)
		switch {
		case day && paksha == astro.Krishna:
			a.Reasons = append(a.Reasons, ReasonDayKrishna)
		case !day && paksha == astro.Shukla:
			a.Reasons = append(a.Reasons, ReasonNightShukla)
		case day:
			a.Applicable = false
			a.Reasons = append(a.Reasons, ReasonDayShukla)
		default:
			a.Applicable = false
			a.Reasons = append(a.Reasons, ReasonNightKrishna)
		}
		if rahuFromLagnaLord(c) {
			a.Reasons = append(a.Reasons, ReasonRahuFromLagnaLord)
		}
	case Chara:
		a.Primary = false
		a.Reasons = append(a.Reasons, ReasonSupplementary)
	default:
		a.Reasons = append(a.Reasons, ReasonUniversal)
	}
	return a
}

// EvaluateAll returns the applicability of every system in display order.
func EvaluateAll(c *astro.Chart) []Applicability {
	out := make([]Applicability, 0, len(Systems()))
	for _, id := range Systems() {
		out = append(out, Evaluate(id, c))
	}
	return out
}

// rahuFromLagnaLord reports whether Rahu, not in the Lagna, sits in a kendra
// or trikona counted from the Lagna lord. Missing positions yield false.
func rahuFromLagnaLord(c *astro.Chart) bool {
	lagna, err := c.LagnaSign()
	if err != nil {
		return false
	}
	rahu, err := c.SignOf(astro.Rahu)
	if err != nil || rahu == lagna {
		return false
	}
	lord, err := c.SignOf(lagna.Lord())
	if err != nil {
		return false
	}
	switch lord.House(rahu) {
	case 1, 4, 5, 7, 9, 10:
		return true
	}
	return false
}
