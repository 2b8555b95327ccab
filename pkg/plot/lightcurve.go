// Package plot renders light curves to PNG with gonum/plot.
package plot

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Span marks an inclusive index range drawn in the highlight colour.
type Span struct {
	From, To int
}

type options struct {
	width, height vg.Length
	title         string
	xLabel        string
	yLabel        string
	line          color.Color
	highlight     color.Color
}

type Option func(*options)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width = vg.Length(width) * vg.Inch / 96
			o.height = vg.Length(height) * vg.Inch / 96
		}
	}
}

func WithTitle(t string) Option {
	return func(o *options) { o.title = t }
}

// WithColors overrides the curve and highlight colours.
func WithColors(line, highlight color.Color) Option {
	return func(o *options) {
		if line != nil {
			o.line = line
		}
		if highlight != nil {
			o.highlight = highlight
		}
	}
}

// RenderPNG draws y against x and overlays the samples inside spans.
func RenderPNG(x, y []float64, spans []Span, opts ...Option) ([]byte, error) {
	o := &options{
		width:     vg.Length(900) * vg.Inch / 96,
		height:    vg.Length(320) * vg.Inch / 96,
		xLabel:    "Time (days)",
		yLabel:    "Normalized flux",
		line:      color.RGBA{R: 70, G: 130, B: 220, A: 255},
		highlight: color.RGBA{R: 230, G: 70, B: 60, A: 255},
	}
	for _, opt := range opts {
		opt(o)
	}

	n := min(len(x), len(y))
	if n == 0 {
		return nil, fmt.Errorf("plot: empty series")
	}

	p, err := plot.New()
	if err != nil {
		return nil, fmt.Errorf("plot: new: %w", err)
	}
	p.Title.Text = o.title
	p.X.Label.Text = o.xLabel
	p.Y.Label.Text = o.yLabel

	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i].X, pts[i].Y = x[i], y[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("plot: line: %w", err)
	}
	line.Color = o.line
	line.Width = vg.Points(1)
	p.Add(line)

	var marked plotter.XYs
	for _, s := range spans {
		from, to := max(s.From, 0), min(s.To, n-1)
		for i := from; i <= to; i++ {
			marked = append(marked, plotter.XY{X: x[i], Y: y[i]})
		}
	}
	if len(marked) > 0 {
		sc, err := plotter.NewScatter(marked)
		if err != nil {
			return nil, fmt.Errorf("plot: scatter: %w", err)
		}
		sc.GlyphStyle.Color = o.highlight
		sc.GlyphStyle.Radius = vg.Points(1.6)
		p.Add(sc)
	}

	wt, err := p.WriterTo(o.width, o.height, "png")
	if err != nil {
		return nil, fmt.Errorf("plot: writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("plot: encode: %w", err)
	}
	return buf.Bytes(), nil
}
