package dasha

import (
	"time"
)

// Node is one period in a Dasha tree. Children are owned by their parent;
// the parent pointer exists only for upward lookup and is never serialized.
type Node struct {
	Ruler    Ruler     `json:"ruler"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Depth    int       `json:"depth"`
	Children []*Node   `json:"children,omitempty"`

	parent *Node
	// seq and pos describe how the node subdivides: children follow seq
	// starting at pos, the node's own ruler.
	seq    *sequence
	pos    int
	scheme *scheme
}

// scheme carries the per-system subdivision rules shared by every node of a
// tree.
type scheme struct {
	maxDepth int
	// child returns the sequence and position a child subdivides with, given
	// its ruler's index in the parent's sequence.
	child func(parent *sequence, idx int) (*sequence, int)
}

// sameSequence is the self-similar rule: a child subdivides with its
// parent's sequence, starting at its own ruler.
func sameSequence(parent *sequence, idx int) (*sequence, int) { return parent, idx }

// Duration is End minus Start.
func (n *Node) Duration() time.Duration { return n.End.Sub(n.Start) }

// Contains reports whether t falls in [Start, End).
func (n *Node) Contains(t time.Time) bool {
	return !t.Before(n.Start) && t.Before(n.End)
}

// Parent returns the enclosing period, or nil at depth 1.
func (n *Node) Parent() *Node { return n.parent }

// Ancestor walks up to the given depth. It returns nil when depth is below
// 1 or deeper than the node.
func (n *Node) Ancestor(depth int) *Node {
	if depth < 1 || depth > n.Depth {
		return nil
	}
	cur := n
	for cur != nil && cur.Depth > depth {
		cur = cur.parent
	}
	return cur
}

// Level returns the conventional name of the node's depth.
func (n *Node) Level() string { return LevelName(n.Depth) }

// CanSubdivide reports whether the system defines a level below this node.
func (n *Node) CanSubdivide() bool {
	return n.scheme != nil && n.seq != nil && n.Depth < n.scheme.maxDepth
}

// Subdivide returns the node's children. Built children are returned as is;
// otherwise they are derived without modifying the node, so a tree stays
// immutable while deeper levels are explored. Children that round to zero
// length in a very short period are left out.
func (n *Node) Subdivide() []*Node {
	if n.Children != nil {
		return n.Children
	}
	if !n.CanSubdivide() {
		return nil
	}
	k := n.seq.len()
	weights := make([]int64, k)
	for i := 0; i < k; i++ {
		_, weights[i] = n.seq.at(n.pos + i)
	}
	bounds := boundaries(n.Start, n.Duration(), weights)
	children := make([]*Node, 0, k)
	for i := 0; i < k; i++ {
		if !bounds[i+1].After(bounds[i]) {
			continue
		}
		idx := (n.pos + i) % k
		r, _ := n.seq.at(idx)
		seq, pos := n.scheme.child(n.seq, idx)
		children = append(children, &Node{
			Ruler:  r,
			Start:  bounds[i],
			End:    bounds[i+1],
			Depth:  n.Depth + 1,
			parent: n,
			seq:    seq,
			pos:    pos,
			scheme: n.scheme,
		})
	}
	return children
}

// materialize builds children down to depth.
func (n *Node) materialize(depth int) {
	if n.Depth >= depth || !n.CanSubdivide() {
		return
	}
	n.Children = n.Subdivide()
	for _, c := range n.Children {
		c.materialize(depth)
	}
}

// Walk visits n and every built descendant in order. Returning false from
// fn stops the descent below that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
