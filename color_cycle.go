package grapher

import (
	"fmt"
	"image/color"
)

// The default matplotlib property cycle ("tab10").
var DefaultPalette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	color.RGBA{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	color.RGBA{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	color.RGBA{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

// Hands out colors in palette order, wrapping around when exhausted. Every
// chart gets its own cycle so renders are reproducible.
type ColorCycle struct {
	palette []color.Color
	next    int
}

// A nil or empty palette falls back to DefaultPalette.
func NewColorCycle(palette []color.Color) *ColorCycle {
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	return &ColorCycle{palette: palette}
}

func (c *ColorCycle) Next() color.Color {
	col := c.palette[c.next%len(c.palette)]
	c.next++
	return col
}

// Formats the color as #rrggbb, ignoring alpha.
func HexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
