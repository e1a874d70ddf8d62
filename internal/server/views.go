package server

import (
	"time"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/engine"
	"github.com/sw33tLie/dasha/pkg/nakshatra"
	"github.com/sw33tLie/dasha/pkg/storage"
)

// Failure reports a system whose tree could not be built. It takes the
// place of that system's data; the other systems are still returned.
type Failure struct {
	System  dasha.SystemID `json:"system"`
	Reason  dasha.Reason   `json:"reason"`
	Message string         `json:"message"`
}

func failure(id dasha.SystemID, err error) *Failure {
	return &Failure{System: id, Reason: dasha.ReasonCalculationFailure, Message: err.Error()}
}

type chartView struct {
	Name      string      `json:"name"`
	ChartID   string      `json:"chart_id"`
	Birth     time.Time   `json:"birth"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	MoonSign  astro.Sign  `json:"moon_sign"`
	Nakshatra string      `json:"nakshatra,omitempty"`
	Pada      int         `json:"pada,omitempty"`
	Lagna     *astro.Sign `json:"lagna,omitempty"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
	UpdatedAt time.Time   `json:"updated_at,omitempty"`
}

func newChartView(rec *storage.ChartRecord) chartView {
	c := rec.Chart
	v := chartView{
		Name:      rec.Name,
		ChartID:   rec.ChartID,
		Birth:     c.Birth.Time,
		Latitude:  c.Birth.Latitude,
		Longitude: c.Birth.Longitude,
		MoonSign:  astro.SignOf(c.Birth.MoonLongitude),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if pos, err := nakshatra.Locate(c.Birth.MoonLongitude); err == nil {
		v.Nakshatra, v.Pada = pos.Name(), pos.Pada
	}
	if lagna, err := c.LagnaSign(); err == nil {
		v.Lagna = &lagna
	}
	return v
}

type periodView struct {
	Ruler    dasha.Ruler  `json:"ruler"`
	Level    string       `json:"level"`
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Children []periodView `json:"children,omitempty"`
}

// render converts n and its descendants down to depth. Levels that were
// not built are derived on the fly.
func render(n *dasha.Node, depth int) periodView {
	v := periodView{Ruler: n.Ruler, Level: n.Level(), Start: n.Start, End: n.End}
	if n.Depth >= depth {
		return v
	}
	for _, c := range n.Subdivide() {
		v.Children = append(v.Children, render(c, depth))
	}
	return v
}

func renderPath(path []*dasha.Node) []periodView {
	out := make([]periodView, 0, len(path))
	for _, n := range path {
		out = append(out, render(n, n.Depth))
	}
	return out
}

type trackView struct {
	Name    string       `json:"name"`
	Periods []periodView `json:"periods"`
}

type treeView struct {
	System    dasha.SystemID   `json:"system"`
	ChartID   string           `json:"chart_id,omitempty"`
	Horizon   *time.Time       `json:"horizon,omitempty"`
	YearBasis dasha.YearBasis  `json:"year_basis,omitempty"`
	Direction *dasha.Direction `json:"direction,omitempty"`
	Tracks    []trackView      `json:"tracks,omitempty"`
	Failure   *Failure         `json:"failure,omitempty"`
}

func newTreeView(t *dasha.Tree, depth int) treeView {
	v := treeView{
		System:    t.System,
		ChartID:   t.ChartID,
		Horizon:   &t.Horizon,
		YearBasis: t.YearBasis,
		Direction: &t.Direction,
	}
	for _, tr := range t.Tracks {
		tv := trackView{Name: tr.Name, Periods: make([]periodView, 0, len(tr.Periods))}
		for _, n := range tr.Periods {
			tv.Periods = append(tv.Periods, render(n, depth))
		}
		v.Tracks = append(v.Tracks, tv)
	}
	return v
}

type sandhiView struct {
	Outgoing dasha.Ruler `json:"outgoing"`
	Incoming dasha.Ruler `json:"incoming"`
	Boundary time.Time   `json:"boundary"`
}

type activeView struct {
	System  dasha.SystemID          `json:"system"`
	Path    []periodView            `json:"path,omitempty"`
	Tracks  map[string][]periodView `json:"tracks,omitempty"`
	Sandhi  *sandhiView             `json:"sandhi,omitempty"`
	Failure *Failure                `json:"failure,omitempty"`
}

// applicability merges the static verdicts with build failures, which mark
// a system as not applicable for this chart.
func applicability(r *engine.Result) []dasha.Applicability {
	out := make([]dasha.Applicability, 0, len(r.Applicability))
	for _, a := range r.Applicability {
		a.Reasons = append([]dasha.Reason(nil), a.Reasons...)
		if _, failed := r.Errors[a.System]; failed {
			a.Applicable = false
			a.Reasons = append(a.Reasons, dasha.ReasonCalculationFailure)
		}
		out = append(out, a)
	}
	return out
}

func failures(r *engine.Result) []Failure {
	var out []Failure
	for _, id := range dasha.Systems() {
		if err, ok := r.Errors[id]; ok {
			out = append(out, *failure(id, err))
		}
	}
	return out
}
