package grapher

import (
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/recorder"
)

var red = color.RGBA{R: 0xff, A: 0xff}

// A 100x100 point canvas showing x in [0, 10].
func recordingCanvas() (*recorder.Canvas, draw.Canvas, *plot.Plot) {
	rec := &recorder.Canvas{}
	c := draw.Canvas{
		Canvas:    rec,
		Rectangle: vg.Rectangle{Max: vg.Point{X: 100, Y: 100}},
	}

	p := plot.New()
	p.X.Min, p.X.Max = 0, 10
	p.Y.Min, p.Y.Max = 0, 1

	return rec, c, p
}

func TestVLine(t *testing.T) {
	t.Run("DataRangeOnlyX", func(t *testing.T) {
		xmin, xmax, ymin, ymax := NewVLine(3, red).DataRange()
		if xmin != 3 || xmax != 3 {
			t.Fatalf("expected x range [3,3], got [%v,%v]", xmin, xmax)
		}
		if !math.IsInf(ymin, 1) || !math.IsInf(ymax, -1) {
			t.Fatalf("expected empty y range, got [%v,%v]", ymin, ymax)
		}
	})

	t.Run("DrawsInsideCanvas", func(t *testing.T) {
		rec, c, p := recordingCanvas()
		NewVLine(5, red).Plot(c, p)
		if len(rec.Actions) == 0 {
			t.Fatal("expected the line to be drawn")
		}
	})

	t.Run("SkipsOutsideCanvas", func(t *testing.T) {
		rec, c, p := recordingCanvas()
		NewVLine(50, red).Plot(c, p)
		if len(rec.Actions) != 0 {
			t.Fatalf("expected nothing drawn, got %d actions", len(rec.Actions))
		}
	})

	t.Run("ExtendsAxis", func(t *testing.T) {
		p := plot.New()
		p.Add(NewVLine(-4, red), NewVLine(7, red))
		if p.X.Min != -4 || p.X.Max != 7 {
			t.Fatalf("expected x axis [-4,7], got [%v,%v]", p.X.Min, p.X.Max)
		}
		if !math.IsInf(p.Y.Min, 1) || !math.IsInf(p.Y.Max, -1) {
			t.Fatalf("y axis should be untouched, got [%v,%v]", p.Y.Min, p.Y.Max)
		}
	})
}

func TestVSpan(t *testing.T) {
	t.Run("Draws", func(t *testing.T) {
		rec, c, p := recordingCanvas()
		NewVSpan(2, 4, red).Plot(c, p)
		if len(rec.Actions) == 0 {
			t.Fatal("expected the span to be filled")
		}
	})

	t.Run("InvertedDrawsNothing", func(t *testing.T) {
		rec, c, p := recordingCanvas()
		s := NewVSpan(4, 2, red)
		if !s.Empty() {
			t.Fatal("expected inverted span to be empty")
		}

		s.Plot(c, p)
		if len(rec.Actions) != 0 {
			t.Fatalf("expected nothing drawn, got %d actions", len(rec.Actions))
		}

		xmin, xmax, _, _ := s.DataRange()
		if !math.IsInf(xmin, 1) || !math.IsInf(xmax, -1) {
			t.Fatalf("inverted span should not take part in autoscaling, got [%v,%v]", xmin, xmax)
		}
	})

	t.Run("ClippedOutsideCanvas", func(t *testing.T) {
		rec, c, p := recordingCanvas()
		NewVSpan(20, 30, red).Plot(c, p)
		if len(rec.Actions) != 0 {
			t.Fatalf("expected nothing drawn, got %d actions", len(rec.Actions))
		}
	})

	t.Run("Translucent", func(t *testing.T) {
		s := NewVSpan(0, 1, red)
		_, _, _, a := s.Color.RGBA()
		if a == 0 || a == 0xffff {
			t.Fatalf("expected a translucent fill, got alpha %d", a)
		}
	})
}
