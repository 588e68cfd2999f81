package color

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mazznoer/csscolorparser"
)

// Diagram palette.
const (
	Stroke    = "#1f1f1f"
	Fill      = "#ffffff"
	Label     = "#1f1f1f"
	Selection = "#4573c4"
	Highlight = "#45b36b"
	Ghost     = "#9e9e9e"
	Spark     = "#e3892b"
	Group     = "#f2f4f8"
	Marquee   = "rgba(69, 115, 196, 0.15)"

	// Special
	Empty = ""
	None  = "none"
)

func Darken(colorString string) (string, error) {
	return Adjust(colorString, -.1)
}

// Adjust shifts the HSL luminance of colorString by dl.
func Adjust(colorString string, dl float64) (string, error) {
	c, err := csscolorparser.Parse(colorString)
	if err != nil {
		return "", err
	}
	h, s, l := colorful.Color{R: c.R, G: c.G, B: c.B}.Hsl()
	return colorful.Hsl(h, s, l+dl).Clamped().Hex(), nil
}

// RGBA parses a CSS color for raster output. Unparseable colors come back black.
func RGBA(colorString string) color.RGBA {
	c, err := csscolorparser.Parse(colorString)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: to255(c.R), G: to255(c.G), B: to255(c.B), A: to255(c.A)}
}

func to255(v float64) uint8 {
	return uint8(v*255 + .5)
}
