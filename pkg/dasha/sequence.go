package dasha

import (
	"math/bits"
	"time"
)

// sequence is an ordered cycle of rulers with integer year weights. Nodes
// subdivide proportionally to these weights, starting at their own position.
type sequence struct {
	rulers []Ruler
	years  []int64
	total  int64
}

func (s *sequence) len() int { return len(s.rulers) }

func (s *sequence) at(i int) (Ruler, int64) {
	i = ((i % len(s.rulers)) + len(s.rulers)) % len(s.rulers)
	return s.rulers[i], s.years[i]
}

// boundaries splits [start, start+d) into len(weights) contiguous parts
// proportional to weights. The last boundary is exactly start+d, so the
// parts always sum to d with no drift.
func boundaries(start time.Time, d time.Duration, weights []int64) []time.Time {
	var total int64
	for _, w := range weights {
		total += w
	}
	out := make([]time.Time, len(weights)+1)
	out[0] = start
	var cum int64
	for i, w := range weights {
		cum += w
		out[i+1] = start.Add(time.Duration(mulDiv(uint64(d), uint64(cum), uint64(total))))
	}
	return out
}

// mulDiv computes a*b/c with a 128-bit intermediate. Callers guarantee
// b <= c, so the quotient fits in 64 bits.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, c)
	return q
}
