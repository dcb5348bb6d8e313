package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/storage"
)

var palette = []string{"#00ff9f", "#ffb000", "#00b8ff", "#ff3c6e", "#c77dff", "#f4f4f4"}

// TracksToSVG draws the x-y projection of each track around a filled disk
// of the given surface radius. The view is centred on the origin and
// scaled to the farthest recorded point.
func TracksToSVG(tracks []*storage.Track, surfaceRadius float64, size int) string {
	extent := surfaceRadius
	for _, tr := range tracks {
		for _, p := range tr.Pos {
			if finite(p) {
				extent = math.Max(extent, math.Max(math.Abs(p.X), math.Abs(p.Y)))
			}
		}
	}
	extent *= 1.1

	half := float64(size) / 2
	scale := half / extent
	px := func(v r3.Vec) (float64, float64) {
		return half + v.X*scale, half - v.Y*scale
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#1b3a5c"/>
`, size, size, size, size, half, half, surfaceRadius*scale))

	for i, tr := range tracks {
		color := palette[i%len(palette)]

		// a non-finite sample ends the current subpath
		var d strings.Builder
		var last r3.Vec
		pen, drawn := false, false
		for _, p := range tr.Pos {
			if !finite(p) {
				pen = false
				continue
			}
			x, y := px(p)
			cmd := " L"
			if !pen {
				cmd = " M"
			}
			d.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, x, y))
			pen, drawn, last = true, true, p
		}
		if !drawn {
			continue
		}

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="%s"/>
`, color, strings.TrimPrefix(d.String(), " ")))

		x, y := px(last)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"><title>%s</title></circle>
`, x, y, color, escape(tr.Name)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func finite(p r3.Vec) bool {
	r := r3.Norm(p)
	return !math.IsNaN(r) && !math.IsInf(r, 0)
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
