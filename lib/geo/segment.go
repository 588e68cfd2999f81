package geo

import (
	"fmt"
	"math"
)

type Intersectable interface {
	Intersections(segment Segment) []Point
}

type Segment struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

func NewSegment(from, to Point) Segment {
	return Segment{from, to}
}

func (s Segment) IsHorizontal() bool {
	return IsZero(s.Start.Y - s.End.Y)
}

func (s Segment) IsVertical() bool {
	return IsZero(s.Start.X - s.End.X)
}

func (s Segment) Midpoint() Point {
	return s.Start.Interpolate(s.End, 0.5)
}

func (segment Segment) Intersects(otherSegment Segment) bool {
	return IntersectionPoint(segment.Start, segment.End, otherSegment.Start, otherSegment.End) != nil
}

func (s Segment) ToString() string {
	return fmt.Sprintf("%v -> %v", s.Start.ToString(), s.End.ToString())
}

func (segment Segment) Intersections(otherSegment Segment) []Point {
	point := IntersectionPoint(segment.Start, segment.End, otherSegment.Start, otherSegment.End)
	if point == nil {
		return nil
	}
	return []Point{*point}
}

// DistanceToPoint is the shortest distance from p to the segment.
// Axis-aligned segments measure against the clamped extent directly so that
// long horizontal or vertical runs do not lose precision in the projection.
func (s Segment) DistanceToPoint(p Point) float64 {
	switch {
	case s.IsHorizontal() && s.IsVertical():
		return Distance(p, s.Start)
	case s.IsHorizontal():
		x := Clamp(p.X, math.Min(s.Start.X, s.End.X), math.Max(s.Start.X, s.End.X))
		return EuclideanDistance(p.X, p.Y, x, s.Start.Y)
	case s.IsVertical():
		y := Clamp(p.Y, math.Min(s.Start.Y, s.End.Y), math.Max(s.Start.Y, s.End.Y))
		return EuclideanDistance(p.X, p.Y, s.Start.X, y)
	}
	return p.DistanceToLine(s.Start, s.End)
}

func (segment Segment) Length() float64 {
	return EuclideanDistance(segment.Start.X, segment.Start.Y, segment.End.X, segment.End.Y)
}

func (s Segment) Bounds() Rect {
	return NewRect(s.Start, s.End)
}
