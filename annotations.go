package grapher

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Span fills are blended so curves behind them stay visible.
const spanAlpha = 0.4

// VLine draws a vertical line across the full height of the plot area.
type VLine struct {
	X float64
	draw.LineStyle
}

var (
	_ plot.Plotter     = (*VLine)(nil)
	_ plot.DataRanger  = (*VLine)(nil)
	_ plot.Thumbnailer = (*VLine)(nil)
)

func NewVLine(x float64, c color.Color) *VLine {
	style := plotter.DefaultLineStyle
	style.Color = c

	return &VLine{X: x, LineStyle: style}
}

func (l *VLine) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, _ := plt.Transforms(&c)
	x := trX(l.X)
	if !c.ContainsX(x) {
		return
	}

	c.StrokeLine2(l.LineStyle, x, c.Min.Y, x, c.Max.Y)
}

// Only the x position takes part in axis autoscaling; the infinite y bounds
// leave the y axis to the curves.
func (l *VLine) DataRange() (xmin, xmax, ymin, ymax float64) {
	return l.X, l.X, math.Inf(1), math.Inf(-1)
}

func (l *VLine) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(l.LineStyle, c.Min.X, y, c.Max.X, y)
}

// VSpan shades the x interval [X1, X2] across the full height of the plot
// area. An inverted interval draws nothing.
type VSpan struct {
	X1, X2 float64
	Color  color.Color
}

var (
	_ plot.Plotter    = (*VSpan)(nil)
	_ plot.DataRanger = (*VSpan)(nil)
)

func NewVSpan(x1, x2 float64, c color.Color) *VSpan {
	return &VSpan{X1: x1, X2: x2, Color: translucent(c, spanAlpha)}
}

func (s *VSpan) Empty() bool {
	return s.X1 > s.X2
}

func (s *VSpan) Plot(c draw.Canvas, plt *plot.Plot) {
	if s.Empty() {
		return
	}

	trX, _ := plt.Transforms(&c)
	left := Max(trX(s.X1), c.Min.X)
	right := Min(trX(s.X2), c.Max.X)
	if left >= right {
		return
	}

	c.FillPolygon(s.Color, []vg.Point{
		{X: left, Y: c.Min.Y},
		{X: right, Y: c.Min.Y},
		{X: right, Y: c.Max.Y},
		{X: left, Y: c.Max.Y},
	})
}

func (s *VSpan) DataRange() (xmin, xmax, ymin, ymax float64) {
	if s.Empty() {
		return math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	}
	return s.X1, s.X2, math.Inf(1), math.Inf(-1)
}

func translucent(c color.Color, alpha float64) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(math.Round(alpha * 0xff)),
	}
}
