// Package engine builds and caches the Dasha trees of charts. The six
// systems of a chart are built concurrently; the cache always holds either
// all of a chart's trees or none of them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Config holds everything an Engine needs.
type Config struct {
	Options     dasha.Options
	Concurrency int    // defaults to the number of systems if <= 0
	Log         Logger // optional; nil = no logging

	// OnSystemDone is called per system after its tree is built (from worker
	// goroutines). Nil = no callback.
	OnSystemDone func(chartID string, id dasha.SystemID, err error)
}

// Result holds every tree of one chart. A system that failed to build has
// an entry in Errors instead of Trees; the other systems are unaffected.
type Result struct {
	ChartID       string
	Trees         map[dasha.SystemID]*dasha.Tree
	Applicability []dasha.Applicability
	Errors        map[dasha.SystemID]error
	BuiltAt       time.Time
}

// Tree returns the tree of a system or the error that prevented it.
func (r *Result) Tree(id dasha.SystemID) (*dasha.Tree, error) {
	if err, ok := r.Errors[id]; ok {
		return nil, err
	}
	t, ok := r.Trees[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s not built", dasha.ErrUnknownSystem, id)
	}
	return t, nil
}

// clone copies the maps so a cached Result is never mutated in place.
func (r *Result) clone() *Result {
	out := *r
	out.Trees = make(map[dasha.SystemID]*dasha.Tree, len(r.Trees))
	for k, v := range r.Trees {
		out.Trees[k] = v
	}
	out.Errors = make(map[dasha.SystemID]error, len(r.Errors))
	for k, v := range r.Errors {
		out.Errors[k] = v
	}
	return &out
}

// Engine builds trees and caches them per chart.
type Engine struct {
	cfg Config
	log Logger

	mu    sync.RWMutex
	cache map[string]*Result
}

// New validates the system catalog and returns an engine.
func New(cfg Config) (*Engine, error) {
	if err := dasha.ValidateCatalog(); err != nil {
		return nil, fmt.Errorf("invalid system catalog: %w", err)
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = len(dasha.Systems())
	}
	return &Engine{cfg: cfg, log: log, cache: make(map[string]*Result)}, nil
}

// BuildAll returns the trees of every system for a chart, building them on
// a cache miss. Per-system failures are reported in the Result; the error
// is reserved for an invalid chart or a cancelled context.
func (e *Engine) BuildAll(ctx context.Context, c *astro.Chart) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	id := c.ID()
	if r, ok := e.Cached(id); ok {
		e.log.Debugf("Cache hit for chart %s", id)
		return r, nil
	}

	r, err := e.build(ctx, c)
	if err != nil {
		return nil, err
	}
	e.Put(r)
	return r, nil
}

func (e *Engine) build(ctx context.Context, c *astro.Chart) (*Result, error) {
	chartID := c.ID()
	systems := dasha.Systems()
	jobs := make(chan dasha.SystemID, len(systems))

	r := &Result{
		ChartID:       chartID,
		Trees:         make(map[dasha.SystemID]*dasha.Tree, len(systems)),
		Applicability: dasha.EvaluateAll(c),
		Errors:        make(map[dasha.SystemID]error),
	}
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < min(e.cfg.Concurrency, len(systems)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if ctx.Err() != nil {
					continue
				}
				tree, err := dasha.Build(id, c, e.cfg.Options)
				mu.Lock()
				if err != nil {
					e.log.Warnf("Failed to build %s for chart %s: %v", id, chartID, err)
					r.Errors[id] = err
				} else {
					r.Trees[id] = tree
				}
				mu.Unlock()

				if e.cfg.OnSystemDone != nil {
					e.cfg.OnSystemDone(chartID, id, err)
				}
			}
		}()
	}

	for _, id := range systems {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.BuiltAt = time.Now().UTC()
	e.log.Debugf("Built %d trees for chart %s (%d failed)", len(r.Trees), chartID, len(r.Errors))
	return r, nil
}

// Tree returns one system's tree for a chart, building all systems on a
// cache miss.
func (e *Engine) Tree(ctx context.Context, c *astro.Chart, id dasha.SystemID) (*dasha.Tree, error) {
	r, err := e.BuildAll(ctx, c)
	if err != nil {
		return nil, err
	}
	return r.Tree(id)
}

// Active returns the active path at t down to depth (0 = the built depth).
// When t lies beyond the tree's horizon the tree is extended and the cache
// updated; instants before birth remain an error.
func (e *Engine) Active(ctx context.Context, c *astro.Chart, id dasha.SystemID, at time.Time, depth int) ([]*dasha.Node, error) {
	tree, err := e.Tree(ctx, c, id)
	if err != nil {
		return nil, err
	}
	path, err := activePath(tree, at, depth)
	if !errors.Is(err, dasha.ErrHorizonExceeded) {
		return path, err
	}

	e.log.Debugf("Extending %s for chart %s to %s", id, tree.ChartID, at.Format(time.RFC3339))
	ext, err := dasha.Extend(tree, c, at)
	if err != nil {
		return nil, err
	}
	e.replace(ext)
	return activePath(ext, at, depth)
}

func activePath(t *dasha.Tree, at time.Time, depth int) ([]*dasha.Node, error) {
	if depth <= 0 {
		return t.Active(at)
	}
	return t.ActiveDepth(at, depth)
}

// replace swaps one extended tree into a cached result. The chart's other
// trees are kept; if the chart was invalidated meanwhile nothing is stored.
func (e *Engine) replace(t *dasha.Tree) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.cache[t.ChartID]
	if !ok {
		return
	}
	next := r.clone()
	next.Trees[t.System] = t
	e.cache[t.ChartID] = next
}

// Cached returns the cached result of a chart, if any.
func (e *Engine) Cached(chartID string) (*Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.cache[chartID]
	return r, ok
}

// Put stores a complete result, replacing every tree of the chart at once.
func (e *Engine) Put(r *Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[r.ChartID] = r
}

// Invalidate drops every tree of a chart.
func (e *Engine) Invalidate(chartID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cache, chartID)
}

// Rebuild invalidates the old chart id and builds the edited chart from
// scratch, so a profile edit never leaves a mix of old and new trees.
func (e *Engine) Rebuild(ctx context.Context, oldID string, c *astro.Chart) (*Result, error) {
	e.Invalidate(oldID)
	e.Invalidate(c.ID())
	return e.BuildAll(ctx, c)
}

// Len returns the number of cached charts.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
