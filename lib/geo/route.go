package geo

import (
	"math"
)

// Route is an ordered polyline.
type Route []Point

func (route Route) Length() float64 {
	l := 0.
	for i := 0; i < len(route)-1; i++ {
		l += EuclideanDistance(
			route[i].X, route[i].Y,
			route[i+1].X, route[i+1].Y,
		)
	}
	return l
}

func (route Route) Segments() []Segment {
	if len(route) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(route)-1)
	for i := 0; i < len(route)-1; i++ {
		segs = append(segs, NewSegment(route[i], route[i+1]))
	}
	return segs
}

// IsOrthogonal reports whether every segment is horizontal or vertical.
func (route Route) IsOrthogonal() bool {
	for _, s := range route.Segments() {
		if !s.IsHorizontal() && !s.IsVertical() {
			return false
		}
	}
	return true
}

// return the point at _distance_ along the route, and the index of the segment it's on
func (route Route) GetPointAtDistance(distance float64) (Point, int) {
	remaining := distance
	for i := 0; i < len(route)-1; i++ {
		curr, next := route[i], route[i+1]
		length := EuclideanDistance(curr.X, curr.Y, next.X, next.Y)

		if remaining <= length {
			if length == 0 {
				return curr, i
			}
			return curr.Interpolate(next, remaining/length), i
		}
		remaining -= length
	}

	return Point{}, -1
}

// Midpoint is the point halfway along the route.
func (route Route) Midpoint() Point {
	if len(route) == 0 {
		return Point{}
	}
	p, i := route.GetPointAtDistance(route.Length() / 2)
	if i < 0 {
		return route[len(route)-1]
	}
	return p
}

func (route Route) GetBoundingBox() Rect {
	minX := math.Inf(1)
	minY := math.Inf(1)
	maxX := math.Inf(-1)
	maxY := math.Inf(-1)

	for _, p := range route {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{Top: minY, Left: minX, Right: maxX, Bottom: maxY}
}
