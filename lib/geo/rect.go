package geo

import "fmt"

// Rect is an axis-aligned bounding box with Top <= Bottom and Left <= Right.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// NewRect builds a Rect from any two opposite corners.
func NewRect(a, b Point) Rect {
	return Rect{
		Top:    minf(a.Y, b.Y),
		Left:   minf(a.X, b.X),
		Right:  maxf(a.X, b.X),
		Bottom: maxf(a.Y, b.Y),
	}
}

// RectAround is the rect of half extents rw, rh centered at (cx, cy).
func RectAround(cx, cy, rw, rh float64) Rect {
	return Rect{
		Top:    cy - rh,
		Left:   cx - rw,
		Right:  cx + rw,
		Bottom: cy + rh,
	}
}

func (r Rect) Width() float64 {
	return r.Right - r.Left
}

func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

func (r Rect) Center() Point {
	return NewPoint((r.Left+r.Right)/2, (r.Top+r.Bottom)/2)
}

func (r Rect) Contains(p Point) bool {
	return r.Left <= p.X && p.X <= r.Right && r.Top <= p.Y && p.Y <= r.Bottom
}

func (r Rect) Corners() [4]Point {
	return [4]Point{
		NewPoint(r.Left, r.Top),
		NewPoint(r.Right, r.Top),
		NewPoint(r.Right, r.Bottom),
		NewPoint(r.Left, r.Bottom),
	}
}

// Edges returns the four sides clockwise starting at the top edge.
func (r Rect) Edges() [4]Segment {
	c := r.Corners()
	return [4]Segment{
		{Start: c[0], End: c[1]},
		{Start: c[1], End: c[2]},
		{Start: c[2], End: c[3]},
		{Start: c[3], End: c[0]},
	}
}

func (r Rect) Intersections(s Segment) []Point {
	pts := []Point{}
	for _, e := range r.Edges() {
		if p := IntersectionPoint(s.Start, s.End, e.Start, e.End); p != nil {
			pts = append(pts, *p)
		}
	}
	return pts
}

func (r Rect) Pad(n float64) Rect {
	return Rect{Top: r.Top - n, Left: r.Left - n, Right: r.Right + n, Bottom: r.Bottom + n}
}

func (r Rect) ToString() string {
	return fmt.Sprintf("{Top: %v, Left: %v, Right: %v, Bottom: %v}", r.Top, r.Left, r.Right, r.Bottom)
}

// MergeRect is the component-wise union of a and b.
func MergeRect(a, b Rect) Rect {
	return Rect{
		Top:    minf(a.Top, b.Top),
		Left:   minf(a.Left, b.Left),
		Right:  maxf(a.Right, b.Right),
		Bottom: maxf(a.Bottom, b.Bottom),
	}
}

// CalcViewBox is the union of every non-nil rect, or nil when there are none.
func CalcViewBox(rects []*Rect) *Rect {
	var out *Rect
	for _, r := range rects {
		if r == nil {
			continue
		}
		if out == nil {
			cp := *r
			out = &cp
			continue
		}
		merged := MergeRect(*out, *r)
		out = &merged
	}
	return out
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
