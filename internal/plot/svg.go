package plot

import (
	"fmt"
	"strings"

	"github.com/san-kum/loopsim/internal/analysis"
)

// PhaseSVG draws an error phase portrait (e on x, de/dt on y) as a single
// SVG path.
func PhaseSVG(p *analysis.PhasePortrait, width, height int, strokeColor string) string {
	if p == nil || len(p.E) < 2 {
		return ""
	}

	minX, maxX := bounds(p.E)
	minY, maxY := bounds(p.EDot)
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	// axes through the origin when visible
	if minX <= 0 && maxX >= 0 {
		x := -minX / rangeX * float64(width)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="#444"/>
`, x, x, height))
	}
	if minY <= 0 && maxY >= 0 {
		y := float64(height) + minY/rangeY*float64(height)
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444"/>
`, y, width, y))
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))
	for i := range p.E {
		x := (p.E[i] - minX) / rangeX * float64(width)
		y := float64(height) - (p.EDot[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// bounds returns the data range padded by 10% on each side.
func bounds(v []float64) (float64, float64) {
	lo, hi := v[0], v[0]
	for _, x := range v {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - 0.1*r, hi + 0.1*r
}
