package analysis

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// PhasePortrait holds (e, de/dt) pairs of a tracking error.
type PhasePortrait struct {
	E    []float64
	EDot []float64
}

// NewPhasePortrait builds the error phase plane from reference and
// response, differentiating with central differences.
func NewPhasePortrait(t, reference, response []float64) *PhasePortrait {
	n := len(t)
	if n < 3 || len(reference) != n || len(response) != n {
		return nil
	}
	e := make([]float64, n)
	floats.SubTo(e, reference, response)

	p := &PhasePortrait{E: e[1 : n-1], EDot: make([]float64, n-2)}
	for i := 1; i < n-1; i++ {
		p.EDot[i-1] = (e[i+1] - e[i-1]) / (t[i+1] - t[i-1])
	}
	return p
}

// ASCII renders the portrait on a width x height character canvas with
// axes drawn where they cross the visible area.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.E) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := padded(floats.Min(p.E), floats.Max(p.E))
	minY, maxY := padded(floats.Min(p.EDot), floats.Max(p.EDot))

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	col := func(x float64) int { return int((x - minX) / (maxX - minX) * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/(maxY-minY)*float64(height-1)) }

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			canvas[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			canvas[r][c] = '─'
		}
	}
	for i := range p.E {
		canvas[row(p.EDot[i])][col(p.E[i])] = '•'
	}

	var sb strings.Builder
	for _, r := range canvas {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func padded(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - 0.1*span, hi + 0.1*span
}
