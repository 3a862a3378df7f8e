// Package plot renders closed-loop runs to image files.
package plot

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/san-kum/loopsim/internal/loop"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var ErrNoData = errors.New("plot: nothing to draw")

var (
	referenceColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	responseColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	controlColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	rawColor       = color.RGBA{R: 255, G: 152, B: 150, A: 255}
)

// Options controls the PNG canvas.
type Options struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

func DefaultOptions() Options {
	return Options{Width: 8 * vg.Inch, Height: 6 * vg.Inch, DPI: 96}
}

// SavePNG draws response over reference on top and the saturated control
// (with the unsaturated command dashed) below.
func SavePNG(path, title string, res *loop.Result, opts Options) error {
	if res == nil || len(res.Times) == 0 {
		return ErrNoData
	}

	top := plot.New()
	top.Title.Text = title
	top.Y.Label.Text = "output"
	top.Add(plotter.NewGrid())
	if err := addLine(top, "reference", res.Times, res.Reference, referenceColor, true); err != nil {
		return err
	}
	if err := addLine(top, "response", res.Times, res.Response, responseColor, false); err != nil {
		return err
	}
	top.Legend.Top = true

	bottom := plot.New()
	bottom.X.Label.Text = "time (s)"
	bottom.Y.Label.Text = "control"
	bottom.Add(plotter.NewGrid())
	if len(res.Raw) == len(res.Times) {
		if err := addLine(bottom, "command", res.Times, res.Raw, rawColor, true); err != nil {
			return err
		}
	}
	if err := addLine(bottom, "control", res.Times, res.Control, controlColor, false); err != nil {
		return err
	}
	bottom.Legend.Top = true
	if len(res.Raw) == len(res.Times) {
		// keep the saturated trace readable when the command is huge
		bottom.Y.Min, bottom.Y.Max = span(res.Control)
	}

	c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows: 2, Cols: 1,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(10), PadBottom: vg.Points(10),
		PadLeft: vg.Points(10), PadRight: vg.Points(10),
	}
	plots := [][]*plot.Plot{{top}, {bottom}}
	canvases := plot.Align(plots, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func addLine(p *plot.Plot, name string, xs, ys []float64, c color.Color, dashed bool) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("plot: %s has %d samples, want %d", name, len(ys), len(xs))
	}
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1.5)
	if dashed {
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	}
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

func span(v []float64) (float64, float64) {
	lo, hi := v[0], v[0]
	for _, x := range v {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	pad := 0.1 * (hi - lo)
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
