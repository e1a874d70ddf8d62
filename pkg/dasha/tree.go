package dasha

import (
	"time"
)

// Tree is the immutable period tree of one system for one chart.
type Tree struct {
	System    SystemID  `json:"system"`
	ChartID   string    `json:"chart_id"`
	Birth     time.Time `json:"birth"`
	Horizon   time.Time `json:"horizon"`
	YearBasis YearBasis `json:"year_basis"`
	Depth     int       `json:"depth"`
	Direction Direction `json:"direction"`
	// Tracks holds the top-level chains. Every system has a single "main"
	// track except Sudarshana, which has lagna, moon and sun.
	Tracks []*Track `json:"tracks"`

	opts Options
}

// Track is one chain of contiguous top-level periods.
type Track struct {
	Name    string  `json:"name"`
	Periods []*Node `json:"periods"`
}

// Periods returns the top-level periods of the first track.
func (t *Tree) Periods() []*Node {
	if len(t.Tracks) == 0 {
		return nil
	}
	return t.Tracks[0].Periods
}

// Track returns the named track, or nil.
func (t *Tree) Track(name string) *Track {
	for _, tr := range t.Tracks {
		if tr.Name == name {
			return tr
		}
	}
	return nil
}

// Options returns the options the tree was built with.
func (t *Tree) Options() Options { return t.opts }

// Walk visits every built node of every track, depth first.
func (t *Tree) Walk(fn func(track string, n *Node) bool) {
	for _, tr := range t.Tracks {
		for _, p := range tr.Periods {
			p.Walk(func(n *Node) bool { return fn(tr.Name, n) })
		}
	}
}

// Count returns the number of built nodes.
func (t *Tree) Count() int {
	n := 0
	t.Walk(func(string, *Node) bool {
		n++
		return true
	})
	return n
}
