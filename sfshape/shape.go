// Package sfshape implements per-kind hit testing and bounds for view elements.
package sfshape

import (
	"fmt"
	"math"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/label"
	"oss.terrastruct.com/stockflow/sfview"
)

const (
	StockWidth   = 45.
	StockHeight  = 35.
	AuxRadius    = 9.
	CloudRadius  = 13.5
	ModuleWidth  = 55.
	ModuleHeight = 45.

	// Flow valves are drawn as auxiliary-sized circles.
	ValveRadius = AuxRadius
)

// Shape is the outline of an element.
type Shape interface {
	IsRectangular() bool
	GetBox() geo.Rect
	Contains(p geo.Point) bool
	// HalfExtents is (r, r) for circles.
	HalfExtents() (rw, rh float64)
}

type rectShape struct {
	cx, cy, rw, rh float64
}

func NewRect(cx, cy, width, height float64) Shape {
	return rectShape{cx, cy, width / 2, height / 2}
}

func (s rectShape) IsRectangular() bool {
	return true
}

func (s rectShape) GetBox() geo.Rect {
	return geo.RectAround(s.cx, s.cy, s.rw, s.rh)
}

func (s rectShape) Contains(p geo.Point) bool {
	return s.GetBox().Contains(p)
}

func (s rectShape) HalfExtents() (float64, float64) {
	return s.rw, s.rh
}

type circleShape struct {
	geo.Circle
}

func NewCircle(cx, cy, r float64) Shape {
	return circleShape{geo.Circle{X: cx, Y: cy, R: r}}
}

func (s circleShape) IsRectangular() bool {
	return false
}

func (s circleShape) GetBox() geo.Rect {
	return s.Circle.Bounds()
}

func (s circleShape) HalfExtents() (float64, float64) {
	return s.R, s.R
}

// Of returns the outline of el. Links have no outline of their own.
// Zero-radius elements are a point at their raw center.
func Of(el sfview.Element) (Shape, bool) {
	c := el.GetCenter()
	if el.ZeroRadius() {
		return NewCircle(c.X, c.Y, 0), true
	}
	switch el := el.(type) {
	case sfview.Stock:
		return NewRect(c.X, c.Y, StockWidth, StockHeight), true
	case sfview.Module:
		return NewRect(c.X, c.Y, ModuleWidth, ModuleHeight), true
	case sfview.Group:
		return NewRect(c.X, c.Y, el.Width, el.Height), true
	case sfview.Aux, sfview.Alias, sfview.Flow:
		return NewCircle(c.X, c.Y, AuxRadius), true
	case sfview.Cloud:
		return NewCircle(c.X, c.Y, CloudRadius), true
	case sfview.Link:
		return nil, false
	}
	panic(fmt.Sprintf("sfshape: unknown element %T", el))
}

// Contains reports whether p hits el's shape. For flows only the valve counts.
func Contains(el sfview.Element, p geo.Point) bool {
	if el.ZeroRadius() {
		return false
	}
	s, ok := Of(el)
	if !ok {
		return false
	}
	return s.Contains(p)
}

// IsRectangular reports whether connectors should clip against el's edges
// rather than a circle.
func IsRectangular(el sfview.Element) bool {
	s, ok := Of(el)
	return ok && s.IsRectangular()
}

// Radius is the circular radius connectors clip against. Rectangular shapes
// report their larger half extent.
func Radius(el sfview.Element) float64 {
	s, ok := Of(el)
	if !ok {
		return 0
	}
	rw, rh := s.HalfExtents()
	return math.Max(rw, rh)
}

// VisualCenter is where connectors aim. Every kind stores its center
// directly, zero-radius placeholders included.
func VisualCenter(el sfview.Element) geo.Point {
	return el.GetCenter()
}

// LabelBounds is the rect of el's name label, or false if el has no label.
func LabelBounds(el sfview.Element) (geo.Rect, bool) {
	named, ok := el.(sfview.Named)
	if !ok || named.GetName() == "" || el.ZeroRadius() {
		return geo.Rect{}, false
	}
	s, ok := Of(el)
	if !ok {
		return geo.Rect{}, false
	}
	rw, rh := s.HalfExtents()
	c := el.GetCenter()
	return label.Bounds(c.X, c.Y, rw, rh, named.GetLabelSide(), named.GetName()), true
}

// Bounds is the shape merged with its label. Flows include their whole
// polyline. Links return nil; their bounds depend on the endpoints.
func Bounds(el sfview.Element) *geo.Rect {
	s, ok := Of(el)
	if !ok {
		return nil
	}
	b := s.GetBox()
	if f, ok := el.(sfview.Flow); ok && len(f.Points) > 0 {
		b = geo.MergeRect(b, f.Route().GetBoundingBox())
	}
	if lb, ok := LabelBounds(el); ok {
		b = geo.MergeRect(b, lb)
	}
	return &b
}
