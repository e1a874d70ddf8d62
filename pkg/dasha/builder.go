package dasha

import (
	"fmt"
	"time"

	"github.com/sw33tLie/dasha/pkg/astro"
)

// Build constructs the period tree of a system for a chart. The top-level
// chain starts at birth and runs past the horizon derived from opts; the
// first opts.Depth levels are built eagerly.
func Build(id SystemID, c *astro.Chart, opts Options) (*Tree, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil chart", astro.ErrInvalidChart)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	e, err := Catalog(id)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	dir, err := Resolve(id, c)
	if err != nil {
		return nil, err
	}

	birth := c.Birth.Time.UTC()
	depth := min(opts.Depth, e.Depth)
	ch := &chain{
		basis:   opts.YearBasis,
		horizon: opts.horizon(birth, e.TotalCycleYears),
		cursor:  birth,
		scheme:  &scheme{maxDepth: e.Depth, child: sameSequence},
	}

	tree := &Tree{
		System:    id,
		ChartID:   c.ID(),
		Birth:     birth,
		YearBasis: opts.YearBasis,
		Depth:     depth,
		Direction: dir,
		opts:      opts,
	}

	switch e.kind {
	case fixedSequence:
		err = buildFixed(ch, e, c, dir)
	case kalachakraSequence:
		buildKalachakra(ch, dir)
	case charaSequence:
		err = buildChara(ch, c, dir)
	case sudarshanaTracks:
		tree.Tracks = buildSudarshana(ch, dir)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownSystem, id)
	}
	if err != nil {
		return nil, err
	}
	if tree.Tracks == nil {
		tree.Tracks = []*Track{{Name: TrackMain, Periods: ch.nodes}}
	}

	for _, tr := range tree.Tracks {
		if len(tr.Periods) == 0 {
			return nil, fmt.Errorf("%w: %s produced no periods", ErrEmptyRulerSequence, id)
		}
		for _, n := range tr.Periods {
			n.materialize(depth)
		}
		if end := tr.Periods[len(tr.Periods)-1].End; tree.Horizon.IsZero() || end.Before(tree.Horizon) {
			tree.Horizon = end
		}
	}
	return tree, nil
}

// Extend rebuilds the tree so that it covers until. The rebuilt tree has the
// same prefix as the original; a tree already covering until is returned
// unchanged.
func Extend(t *Tree, c *astro.Chart, until time.Time) (*Tree, error) {
	if until.Before(t.Horizon) {
		return t, nil
	}
	if id := c.ID(); id != t.ChartID {
		return nil, fmt.Errorf("%w: chart %s does not match tree chart %s", astro.ErrInvalidChart, id, t.ChartID)
	}
	opts := t.opts
	opts.Until = until
	return Build(t.System, c, opts)
}

// chain accumulates contiguous top-level periods until the horizon is
// passed.
type chain struct {
	basis   YearBasis
	horizon time.Time
	cursor  time.Time
	scheme  *scheme
	nodes   []*Node
}

func (ch *chain) done() bool { return ch.cursor.After(ch.horizon) }

// add appends a period of the given length. Periods that round to zero
// length are dropped so the chain never holds an empty node.
func (ch *chain) add(r Ruler, years float64, seq *sequence, pos int) {
	end := ch.basis.AddYears(ch.cursor, years)
	if !end.After(ch.cursor) {
		return
	}
	ch.nodes = append(ch.nodes, &Node{
		Ruler:  r,
		Start:  ch.cursor,
		End:    end,
		Depth:  1,
		seq:    seq,
		pos:    pos,
		scheme: ch.scheme,
	})
	ch.cursor = end
}

func buildFixed(ch *chain, e *Entry, c *astro.Chart, dir Direction) error {
	years, err := e.RulerYears(c)
	if err != nil {
		return err
	}
	seq, err := e.sequence(years)
	if err != nil {
		return err
	}
	k := seq.len()
	start := dir.StartIndex % k
	r, y := seq.at(start)
	ch.add(r, (1-dir.Elapsed)*float64(y), seq, start)
	for i := start + 1; !ch.done(); i++ {
		idx := i % k
		r, y := seq.at(idx)
		ch.add(r, float64(y), seq, idx)
	}
	return nil
}

// buildKalachakra runs the birth pada's sequence from the running sign, then
// continues through the sequences of the following padas.
func buildKalachakra(ch *chain, dir Direction) {
	g := globalPada(dir.Nakshatra.Index, dir.Nakshatra.Pada)
	t := kalachakraTableFor(dir.Nakshatra.Index, dir.Nakshatra.Pada)
	start, remaining := kalachakraRunning(t, dir.Elapsed)
	seq := t.sequence()
	ch.add(SignRuler(t.signs[start]), remaining, seq, start)

	i := start + 1
	for !ch.done() {
		if i == len(t.signs) {
			g++
			t = kalachakraTableFor(padaAt(g))
			seq = t.sequence()
			i = 0
		}
		s := t.signs[i]
		ch.add(SignRuler(s), float64(kalachakraSignYears[s]), seq, i)
		i++
	}
}

// buildChara alternates the first-cycle durations with their complements
// to twelve. A sign whose complement is zero is skipped in that cycle.
func buildChara(ch *chain, c *astro.Chart, dir Direction) error {
	y1, err := CharaYears(c)
	if err != nil {
		return err
	}
	if dir.StartSign == nil {
		return fmt.Errorf("%w: chara start sign", ErrUnresolvableDirection)
	}
	step := 1
	if !dir.Forward {
		step = -1
	}
	// Antardashas are equal twelfths and do not subdivide further.
	ch.scheme.child = func(*sequence, int) (*sequence, int) { return nil, 0 }
	for cycle := 0; !ch.done(); cycle++ {
		for i := 0; i < 12 && !ch.done(); i++ {
			s := dir.StartSign.Add(i * step)
			y := y1[SignRuler(s)]
			if cycle%2 == 1 {
				y = charaMaxYears - y
			}
			if y <= 0 {
				continue
			}
			ch.add(SignRuler(s), float64(y), charaSubSequence(s), 0)
		}
	}
	return nil
}
