// Package label places element name labels around their shapes.
package label

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"oss.terrastruct.com/stockflow/lib/geo"
)

// Approximate font metrics. Labels are never measured against a real font.
const (
	CharWidth  = 6
	LineHeight = 14

	// This is the space between a shape border and its outside label
	PADDING = 3
)

type Side int8

const (
	Bottom Side = iota
	Top
	Left
	Right
)

func FromString(s string) (Side, error) {
	switch s {
	case "bottom", "":
		return Bottom, nil
	case "top":
		return Top, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Bottom, fmt.Errorf("unknown label side %q", s)
}

func (s Side) String() string {
	switch s {
	case Top:
		return "top"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "bottom"
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	side, err := FromString(str)
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// SideFromAngle buckets θ (radians, from the shape center toward the pointer,
// y down) into one of four 90° sectors.
func SideFromAngle(θ float64) Side {
	θ = geo.NormalizeAngle(θ)
	switch {
	case θ >= -math.Pi/4 && θ < math.Pi/4:
		return Right
	case θ >= math.Pi/4 && θ < 3*math.Pi/4:
		return Bottom
	case θ >= -3*math.Pi/4 && θ < -math.Pi/4:
		return Top
	default:
		return Left
	}
}

// SideFromPoint picks the side of the shape centered at c that p falls toward.
func SideFromPoint(c, p geo.Point) Side {
	return SideFromAngle(c.AngleTo(p))
}

func Lines(text string) []string {
	return strings.Split(text, "\n")
}

// Size approximates the rendered width and height of text.
func Size(text string) (w, h float64) {
	lines := Lines(text)
	longest := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > longest {
			longest = n
		}
	}
	return float64(longest * CharWidth), float64(len(lines) * LineHeight)
}

// Bounds is the label rect for text drawn on side of a shape centered at
// (cx, cy) with half extents rw, rh.
func Bounds(cx, cy, rw, rh float64, side Side, text string) geo.Rect {
	w, h := Size(text)
	switch side {
	case Top:
		bottom := cy - rh - PADDING
		return geo.Rect{Top: bottom - h, Left: cx - w/2, Right: cx + w/2, Bottom: bottom}
	case Left:
		right := cx - rw - PADDING
		return geo.Rect{Top: cy - h/2, Left: right - w, Right: right, Bottom: cy + h/2}
	case Right:
		left := cx + rw + PADDING
		return geo.Rect{Top: cy - h/2, Left: left, Right: left + w, Bottom: cy + h/2}
	default:
		top := cy + rh + PADDING
		return geo.Rect{Top: top, Left: cx - w/2, Right: cx + w/2, Bottom: top + h}
	}
}

// Anchor describes where renderers start each line of a label.
type Anchor struct {
	// X is the text anchor x; Align is "start", "middle" or "end".
	X     float64
	Align string
	// Baselines holds one y per line.
	Baselines []float64
}

func Layout(cx, cy, rw, rh float64, side Side, text string) Anchor {
	r := Bounds(cx, cy, rw, rh, side, text)
	a := Anchor{}
	switch side {
	case Left:
		a.X, a.Align = r.Right, "end"
	case Right:
		a.X, a.Align = r.Left, "start"
	default:
		a.X, a.Align = (r.Left+r.Right)/2, "middle"
	}
	for i := range Lines(text) {
		// baseline sits 3px above the bottom of each line box
		a.Baselines = append(a.Baselines, r.Top+float64(i+1)*LineHeight-3)
	}
	return a
}
