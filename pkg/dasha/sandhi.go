package dasha

import (
	"time"
)

// DefaultSandhiFraction is the share of a Mahadasha treated as its junction
// zone.
const DefaultSandhiFraction = 0.1

// Sandhi is the junction between two consecutive Mahadashas.
type Sandhi struct {
	Outgoing *Node     `json:"outgoing"`
	Incoming *Node     `json:"incoming"`
	Boundary time.Time `json:"boundary"`
}

// Sandhi reports the Mahadasha junction around at, if any. The zone extends
// fraction of the outgoing period before the boundary and fraction of the
// incoming period after it. The second result is false outside any zone.
func (t *Tree) Sandhi(at time.Time, fraction float64) (*Sandhi, bool) {
	if fraction <= 0 {
		fraction = DefaultSandhiFraction
	}
	periods := t.Periods()
	for i := 0; i+1 < len(periods); i++ {
		out, in := periods[i], periods[i+1]
		before := time.Duration(float64(out.Duration()) * fraction)
		after := time.Duration(float64(in.Duration()) * fraction)
		if at.Before(out.End.Add(-before)) {
			// Periods are ordered; later boundaries are further away.
			return nil, false
		}
		if at.Before(in.Start.Add(after)) {
			return &Sandhi{Outgoing: out, Incoming: in, Boundary: out.End}, true
		}
	}
	return nil, false
}
