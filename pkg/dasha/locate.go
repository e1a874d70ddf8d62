package dasha

import (
	"fmt"
	"sort"
	"time"
)

// Active returns the path of periods running at t on the first track, from
// the Mahadasha down to the deepest built level.
func (t *Tree) Active(at time.Time) ([]*Node, error) {
	if len(t.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %s tree has no tracks", ErrEmptyRulerSequence, t.System)
	}
	return t.ActiveIn(t.Tracks[0].Name, at)
}

// ActiveIn is Active for a named track.
func (t *Tree) ActiveIn(track string, at time.Time) ([]*Node, error) {
	return t.locate(track, at, t.Depth)
}

// ActiveDepth returns the active path down to depth, deriving levels below
// the built depth on the fly. Depth is capped at the system's catalog depth.
func (t *Tree) ActiveDepth(at time.Time, depth int) ([]*Node, error) {
	if len(t.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %s tree has no tracks", ErrEmptyRulerSequence, t.System)
	}
	return t.locate(t.Tracks[0].Name, at, depth)
}

// ActiveTracks returns the active path of every track.
func (t *Tree) ActiveTracks(at time.Time) (map[string][]*Node, error) {
	out := make(map[string][]*Node, len(t.Tracks))
	for _, tr := range t.Tracks {
		path, err := t.ActiveIn(tr.Name, at)
		if err != nil {
			return nil, err
		}
		out[tr.Name] = path
	}
	return out, nil
}

func (t *Tree) locate(track string, at time.Time, depth int) ([]*Node, error) {
	tr := t.Track(track)
	if tr == nil {
		return nil, fmt.Errorf("%s: unknown track %q", t.System, track)
	}
	if at.Before(t.Birth) || !at.Before(t.Horizon) {
		return nil, &RangeError{At: at, Start: t.Birth, Horizon: t.Horizon}
	}
	if depth < 1 {
		depth = 1
	}

	var path []*Node
	level := tr.Periods
	for len(level) > 0 {
		n := find(level, at)
		if n == nil {
			// Unreachable for a well-formed tree: siblings partition their parent.
			return nil, &RangeError{At: at, Start: t.Birth, Horizon: t.Horizon}
		}
		path = append(path, n)
		if n.Depth >= depth {
			break
		}
		level = n.Subdivide()
	}
	return path, nil
}

// find binary-searches contiguous, ordered siblings for the one containing at.
func find(nodes []*Node, at time.Time) *Node {
	i := sort.Search(len(nodes), func(i int) bool { return nodes[i].End.After(at) })
	if i == len(nodes) || at.Before(nodes[i].Start) {
		return nil
	}
	return nodes[i]
}
