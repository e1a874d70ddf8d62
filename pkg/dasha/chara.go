package dasha

import (
	"fmt"

	"github.com/sw33tLie/dasha/pkg/astro"
)

const (
	charaMinYears = 1
	charaMaxYears = 12
	// charaSelfRuledYears is the duration of a sign whose lord occupies it.
	charaSelfRuledYears = 12
)

// CharaYears computes the first-cycle Chara Dasha duration of every sign.
//
// The count runs from the sign to the sign of its lord, forward for odd
// signs and backward for even signs, and the duration is the count less one.
// A lord in its own sign gives twelve years. An exalted lord adds a year, a
// debilitated lord removes one, and the result is kept within 1..12.
func CharaYears(c *astro.Chart) (map[Ruler]int, error) {
	out := make(map[Ruler]int, 12)
	for _, s := range astro.Signs() {
		y, err := charaSignYears(c, s)
		if err != nil {
			return nil, err
		}
		out[SignRuler(s)] = y
	}
	return out, nil
}

func charaSignYears(c *astro.Chart, s astro.Sign) (int, error) {
	lord, err := charaLord(c, s)
	if err != nil {
		return 0, err
	}
	ls, err := c.SignOf(lord)
	if err != nil {
		return 0, err
	}
	if ls == s {
		return charaSelfRuledYears, nil
	}
	y := s.Distance(ls, s.IsOdd()) - 1
	switch {
	case lord.Exalted(ls):
		y++
	case lord.Debilitated(ls):
		y--
	}
	if y < charaMinYears {
		y = charaMinYears
	}
	if y > charaMaxYears {
		y = charaMaxYears
	}
	return y, nil
}

// charaLord picks the lord used for counting. Scorpio and Aquarius have two
// lords: if exactly one occupies the sign the other is used, otherwise the
// one with more companions in its sign, then the one more advanced in its
// sign. A co-lord without a known position falls back to the primary lord.
func charaLord(c *astro.Chart, s astro.Sign) (astro.Planet, error) {
	lords := s.CoLords()
	primary := lords[0]
	if _, err := c.SignOf(primary); err != nil {
		return 0, err
	}
	if len(lords) == 1 {
		return primary, nil
	}
	co := lords[1]
	coLon, ok := c.Longitude(co)
	if !ok {
		return primary, nil
	}
	pLon, _ := c.Longitude(primary)
	pSign, coSign := astro.SignOf(pLon), astro.SignOf(coLon)

	switch {
	case pSign == s && coSign != s:
		return co, nil
	case coSign == s && pSign != s:
		return primary, nil
	}
	pCount, coCount := len(c.Occupants(pSign)), len(c.Occupants(coSign))
	switch {
	case pCount > coCount:
		return primary, nil
	case coCount > pCount:
		return co, nil
	}
	if astro.DegreeInSign(coLon) > astro.DegreeInSign(pLon) {
		return co, nil
	}
	return primary, nil
}

// charaSelfRuled reports whether the sign's counting lord occupies it.
func charaSelfRuled(c *astro.Chart, s astro.Sign) (bool, error) {
	lord, err := charaLord(c, s)
	if err != nil {
		return false, err
	}
	ls, err := c.SignOf(lord)
	if err != nil {
		return false, err
	}
	return ls == s, nil
}

// charaStart resolves the direction and first sign of the Mahadasha chain.
// Odd Lagnas run forward, even Lagnas in reverse. When the Lagna is
// self-ruled the chain starts at the next sign in that direction that is
// not self-ruled.
func charaStart(c *astro.Chart) (start astro.Sign, forward, carved bool, err error) {
	lagna, err := c.LagnaSign()
	if err != nil {
		return 0, false, false, err
	}
	forward = lagna.IsOdd()
	step := 1
	if !forward {
		step = -1
	}
	for i := 0; i < 12; i++ {
		s := lagna.Add(i * step)
		self, err := charaSelfRuled(c, s)
		if err != nil {
			return 0, false, false, err
		}
		if !self {
			return s, forward, i > 0, nil
		}
	}
	return 0, false, false, fmt.Errorf("%w: chara: every sign from %s is self-ruled", ErrUnresolvableDirection, lagna)
}

// charaSubSequence is the Antardasha order inside a sign: twelve equal parts
// starting at the sign itself, forward for odd signs and backward for even.
func charaSubSequence(s astro.Sign) *sequence {
	step := 1
	if !s.IsOdd() {
		step = -1
	}
	seq := &sequence{total: 12}
	for i := 0; i < 12; i++ {
		seq.rulers = append(seq.rulers, SignRuler(s.Add(i*step)))
		seq.years = append(seq.years, 1)
	}
	return seq
}
