package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/sim"
)

// Summary renders a run result: totals, metrics and up to limit bodies,
// deorbited ones first in order of deorbit time.
func Summary(res *sim.Result, surfaceRadius float64, limit int) string {
	var s strings.Builder

	s.WriteString(HeaderStyle.Render("run summary") + "\n")
	s.WriteString(Metric("steps", fmt.Sprintf("%d", res.Steps)) + "\n")
	s.WriteString(Metric("sim time", fmt.Sprintf("%.1fs", res.Time)) + "\n")
	s.WriteString(Metric("bodies", fmt.Sprintf("%d", len(res.Bodies))) + "\n")
	s.WriteString(Metric("deorbited", fmt.Sprintf("%d", res.Deorbits)) + "\n")
	if len(res.NonFinite) > 0 {
		s.WriteString(Metric("non-finite", StatusDeorbited.Render(strings.Join(res.NonFinite, ", "))) + "\n")
	}

	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.WriteString(Metric(name, fmt.Sprintf("%.6g", res.Metrics[name])) + "\n")
	}

	bodies := make([]sim.BodySummary, len(res.Bodies))
	copy(bodies, res.Bodies)
	sort.SliceStable(bodies, func(i, j int) bool {
		if bodies[i].Deorbited != bodies[j].Deorbited {
			return bodies[i].Deorbited
		}
		return bodies[i].Deorbited && bodies[i].DeorbitTime < bodies[j].DeorbitTime
	})

	s.WriteString("\n" + Subtle.Render(fmt.Sprintf("%-16s %8s %12s %12s", "body", "steps", "status", "alt (km)")) + "\n")
	for i, b := range bodies {
		if limit > 0 && i == limit {
			s.WriteString(Subtle.Render(fmt.Sprintf("... %d more", len(bodies)-limit)) + "\n")
			break
		}
		status := StatusRunning.Render(fmt.Sprintf("%12s", "active"))
		if b.Deorbited {
			status = StatusDeorbited.Render(fmt.Sprintf("%12s", fmt.Sprintf("@%.0fs", b.DeorbitTime)))
		}
		alt := (r3.Norm(b.Pos) - surfaceRadius) / 1000
		s.WriteString(fmt.Sprintf("%-16s %8d %s %12.1f\n", b.Name, b.Steps, status, alt))
	}

	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

// Plot draws a series with asciigraph, dropping non-finite samples.
func Plot(data []float64, caption string, width, height int) string {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return Subtle.Render("(no data)")
	}
	return asciigraph.Plot(clean,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
