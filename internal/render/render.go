// Package render formats Dasha trees and readings for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/transit"
)

const dateLayout = "2006-01-02"

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer. Without pretty output every line is plain
// and tab-separated.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Tree formats the periods of every track down to depth, marking the ones
// running at now.
func (r *Renderer) Tree(t *dasha.Tree, depth int, now time.Time) string {
	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("%s Dasha", title(t.System.String())))
		if t.Direction.Label != "" {
			fmt.Fprintf(&sb, " %s", color.HiBlackString("(%s)", t.Direction.Label))
		}
		sb.WriteString("\n" + strings.Repeat("─", 60) + "\n")
	}
	for _, tr := range t.Tracks {
		if len(t.Tracks) > 1 {
			if r.pretty {
				sb.WriteString(color.YellowString("[%s]\n", tr.Name))
			} else {
				fmt.Fprintf(&sb, "# %s\n", tr.Name)
			}
		}
		for _, n := range tr.Periods {
			r.node(&sb, n, depth, now)
		}
	}
	return sb.String()
}

func (r *Renderer) node(sb *strings.Builder, n *dasha.Node, depth int, now time.Time) {
	active := n.Contains(now)
	if r.pretty {
		indent := strings.Repeat("  ", n.Depth-1)
		line := fmt.Sprintf("%s%-12s %s → %s", indent, n.Ruler, n.Start.Format(dateLayout), n.End.Format(dateLayout))
		if active {
			line = color.GreenString("%s  ◀", line)
		}
		sb.WriteString(line + "\n")
	} else {
		fmt.Fprintf(sb, "%d\t%s\t%s\t%s\t%t\n", n.Depth, n.Ruler, n.Start.Format(time.RFC3339), n.End.Format(time.RFC3339), active)
	}
	if n.Depth >= depth {
		return
	}
	for _, c := range n.Subdivide() {
		r.node(sb, c, depth, now)
	}
}

// Path formats an active path as "Venus / Sun / Moon" with the end of the
// deepest period.
func (r *Renderer) Path(system dasha.SystemID, path []*dasha.Node, sandhi *dasha.Sandhi) string {
	if len(path) == 0 {
		return ""
	}
	rulers := make([]string, 0, len(path))
	for _, n := range path {
		rulers = append(rulers, n.Ruler.String())
	}
	last := path[len(path)-1]
	var sb strings.Builder
	if r.pretty {
		fmt.Fprintf(&sb, "%-12s %s  %s", system, color.GreenString(strings.Join(rulers, " / ")),
			color.HiBlackString("until %s", last.End.Format(dateLayout)))
		if sandhi != nil {
			fmt.Fprintf(&sb, "  %s", color.YellowString("sandhi %s → %s at %s", sandhi.Outgoing.Ruler, sandhi.Incoming.Ruler, sandhi.Boundary.Format(dateLayout)))
		}
	} else {
		fmt.Fprintf(&sb, "%s\t%s\t%s", system, strings.Join(rulers, "/"), last.End.Format(time.RFC3339))
		if sandhi != nil {
			fmt.Fprintf(&sb, "\tsandhi=%s/%s", sandhi.Outgoing.Ruler, sandhi.Incoming.Ruler)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// Failure formats a system that could not be built.
func (r *Renderer) Failure(system dasha.SystemID, err error) string {
	if r.pretty {
		return fmt.Sprintf("%-12s %s %v\n", system, color.RedString("✗"), err)
	}
	return fmt.Sprintf("%s\t%s\t%v\n", system, dasha.ReasonCalculationFailure, err)
}

// Applicability formats the verdicts of every system.
func (r *Renderer) Applicability(as []dasha.Applicability) string {
	var sb strings.Builder
	for _, a := range as {
		reasons := make([]string, 0, len(a.Reasons))
		for _, reason := range a.Reasons {
			reasons = append(reasons, string(reason))
		}
		if !r.pretty {
			fmt.Fprintf(&sb, "%s\t%t\t%t\t%s\n", a.System, a.Applicable, a.Primary, strings.Join(reasons, ","))
			continue
		}
		mark := color.GreenString("✓")
		if !a.Applicable {
			mark = color.RedString("✗")
		}
		kind := "primary"
		if !a.Primary {
			kind = "supplementary"
		}
		fmt.Fprintf(&sb, "%s %-12s %-13s %s\n", mark, a.System, kind, color.HiBlackString(strings.Join(reasons, ", ")))
	}
	return sb.String()
}

// Sudarshana formats the running signs of the three tracks.
func (r *Renderer) Sudarshana(ps []dasha.SudarshanaPosition) string {
	var sb strings.Builder
	for _, p := range ps {
		if r.pretty {
			fmt.Fprintf(&sb, "%-6s %-11s age %-3d year %-11s house %-2d month %s\n",
				p.Track, p.NatalSign, p.Age, color.GreenString("%-11s", p.YearSign), p.House, p.MonthSign)
		} else {
			fmt.Fprintf(&sb, "%s\t%s\t%d\t%s\t%d\t%s\n", p.Track, p.NatalSign, p.Age, p.YearSign, p.House, p.MonthSign)
		}
	}
	return sb.String()
}

// Transit formats the overlay annotations of one active path.
func (r *Renderer) Transit(system dasha.SystemID, as []transit.Annotation) string {
	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("%s\n", title(system.String())))
	}
	for _, a := range as {
		sign, house, bindus, sav := "-", "-", "-", "-"
		if a.Sign != nil {
			sign = a.Sign.String()
		}
		if a.HouseFromMoon > 0 {
			house = fmt.Sprint(a.HouseFromMoon)
		}
		if a.Bindus != nil {
			bindus = fmt.Sprint(*a.Bindus)
		}
		if a.SAV != nil {
			sav = fmt.Sprint(*a.SAV)
		}
		if !r.pretty {
			fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n", a.Level, a.Ruler, sign, house, bindus, sav, a.Score)
			continue
		}
		score := fmt.Sprintf("%+d", a.Score)
		switch {
		case a.Score > 0:
			score = color.GreenString(score)
		case a.Score < 0:
			score = color.RedString(score)
		}
		fmt.Fprintf(&sb, "  %-14s %-12s in %-11s house %-2s bindus %-2s sav %-2s score %s\n",
			a.Level, a.Ruler, sign, house, bindus, sav, score)
	}
	return sb.String()
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
