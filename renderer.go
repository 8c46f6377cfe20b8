package grapher

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Default output size in inches.
const (
	DefaultWidth  = 6.4
	DefaultHeight = 4.8
)

var seriesLineWidth = vg.Points(1.5)

type ElementKind string

const (
	ElementSeries ElementKind = "series"
	ElementMarker ElementKind = "marker"
	ElementSpan   ElementKind = "span"
)

// One drawn element of a chart, in the order the renderer produced it.
type Element struct {
	Kind  ElementKind `json:"kind"`
	Label string      `json:"label,omitempty"`
	Color string      `json:"color"`

	// Color group the marker or span belongs to.
	Group int `json:"group"`

	// Marker position or span start.
	X float64 `json:"x,omitempty"`
	// Span end.
	X2 float64 `json:"x2,omitempty"`

	// Number of points of a series.
	Points int `json:"points,omitempty"`
}

// A plotted series, in data coordinates.
type Curve struct {
	Label string
	XYs   plotter.XYs
}

// A rendered chart. Nothing changes it after Render returns.
type Chart struct {
	Spec ChartSpec
	Plot *plot.Plot

	elements []Element
	curves   []Curve
}

// Render loads every series of spec and draws it together with its markers
// and ranges. Colors come from a fresh ColorCycle in this order: series,
// marker groups, range groups. Any load error aborts the whole chart.
func Render(ctx context.Context, spec ChartSpec) (*Chart, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"tag":  "Renderer",
		"kind": spec.Kind,
	})

	chart := &Chart{
		Spec: spec,
		Plot: plot.New(),
	}

	p := chart.Plot
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Legend.Top = true

	cycle := NewColorCycle(nil)

	// Spans are added first so they sit behind curves and markers, but they
	// still take their colors last.
	var lines, markers, spans []plot.Plotter

	for _, series := range spec.Series {
		xys, err := loadSeries(ctx, spec.Kind, series.Path)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", series.Label, err)
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q (%s): %w", series.Label, series.Path, err)
		}

		if spec.Kind == KindCDF {
			line.StepStyle = plotter.PostStep
		}

		line.LineStyle.Color = cycle.Next()
		line.LineStyle.Width = seriesLineWidth

		lines = append(lines, line)
		if series.Label != "" {
			p.Legend.Add(series.Label, line)
		}

		chart.curves = append(chart.curves, Curve{Label: series.Label, XYs: xys})
		chart.elements = append(chart.elements, Element{
			Kind:   ElementSeries,
			Label:  series.Label,
			Color:  HexColor(line.LineStyle.Color),
			Points: len(xys),
		})

		logger.WithFields(logrus.Fields{
			"path":   series.Path,
			"label":  series.Label,
			"points": len(xys),
		}).Debug("drew series")
	}

	for i, group := range spec.Markers {
		c := cycle.Next()
		for _, marker := range group {
			vline := NewVLine(marker.X, c)
			markers = append(markers, vline)
			if marker.Label != "" {
				p.Legend.Add(marker.Label, vline)
			}

			chart.elements = append(chart.elements, Element{
				Kind:  ElementMarker,
				Label: marker.Label,
				Color: HexColor(c),
				Group: i,
				X:     marker.X,
			})
		}
	}

	for i, group := range spec.Ranges {
		c := cycle.Next()
		for _, span := range group {
			vspan := NewVSpan(span.X1, span.X2, c)
			if vspan.Empty() {
				logger.WithFields(logrus.Fields{
					"x1": span.X1,
					"x2": span.X2,
				}).Debug("inverted range, nothing to shade")
			}
			spans = append(spans, vspan)

			chart.elements = append(chart.elements, Element{
				Kind:  ElementSpan,
				Color: HexColor(c),
				Group: i,
				X:     span.X1,
				X2:    span.X2,
			})
		}
	}

	p.Add(spans...)
	p.Add(lines...)
	p.Add(markers...)

	logger.WithFields(logrus.Fields{
		"series":  len(lines),
		"markers": len(markers),
		"ranges":  len(spans),
	}).Info("rendered chart")

	return chart, nil
}

func loadSeries(ctx context.Context, kind ChartKind, path string) (plotter.XYs, error) {
	if kind == KindCDF {
		samples, err := LoadSamples(ctx, path)
		if err != nil {
			return nil, err
		}
		return EmpiricalCDF(samples), nil
	}

	return LoadXY(ctx, path)
}

// Every drawn element in draw order: series, then markers, then spans.
func (c *Chart) Elements() []Element {
	elements := make([]Element, len(c.elements))
	copy(elements, c.elements)
	return elements
}

// Plotted series in input order. The returned points must not be modified.
func (c *Chart) Curves() []Curve {
	curves := make([]Curve, len(c.curves))
	copy(curves, c.curves)
	return curves
}

// Output size in inches, with defaults applied.
func (c *Chart) Inches() (float64, float64) {
	width, height := c.Spec.Width, c.Spec.Height
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}

	return width, height
}

func (c *Chart) Size() (vg.Length, vg.Length) {
	width, height := c.Inches()
	return vg.Length(width) * vg.Inch, vg.Length(height) * vg.Inch
}

// Encodes the chart in the given format: png, svg, pdf, eps, jpg or tif.
func (c *Chart) WriteTo(w io.Writer, format string) (int64, error) {
	width, height := c.Size()
	writerTo, err := c.Plot.WriterTo(width, height, strings.ToLower(format))
	if err != nil {
		return 0, err
	}

	return writerTo.WriteTo(w)
}

// Saves the chart to path. The format is taken from the file extension.
func (c *Chart) Save(path string) error {
	if filepath.Ext(path) == "" {
		return fmt.Errorf("%s: cannot pick an image format without a file extension", path)
	}

	width, height := c.Size()
	return c.Plot.Save(width, height, path)
}
