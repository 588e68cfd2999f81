package geo

import (
	"fmt"
	"math"
)

// Circle is used for connector arcs.
type Circle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

func (c Circle) Center() Point {
	return NewPoint(c.X, c.Y)
}

// PointAt returns the point on the circle at angle θ (radians, clockwise on screen).
func (c Circle) PointAt(θ float64) Point {
	return NewPoint(c.X+c.R*math.Cos(θ), c.Y+c.R*math.Sin(θ))
}

// AngleOf returns the angle of p as seen from the center.
func (c Circle) AngleOf(p Point) float64 {
	return math.Atan2(p.Y-c.Y, p.X-c.X)
}

func (c Circle) Contains(p Point) bool {
	return Square(p.X-c.X)+Square(p.Y-c.Y) <= Square(c.R)
}

// Bounds is the full bounding square of the circle.
func (c Circle) Bounds() Rect {
	return RectAround(c.X, c.Y, c.R, c.R)
}

// SegmentIntersections returns where the circle crosses the segment s.
func (c Circle) SegmentIntersections(s Segment) []Point {
	d := s.End.Sub(s.Start)
	f := s.Start.Sub(c.Center())

	a := d.X*d.X + d.Y*d.Y
	if IsZero(a) {
		return nil
	}
	b := 2 * (f.X*d.X + f.Y*d.Y)
	cc := f.X*f.X + f.Y*f.Y - c.R*c.R

	disc := b*b - 4*a*cc
	if disc < 0 {
		return nil
	}
	root := math.Sqrt(disc)

	var pts []Point
	for i, t := range []float64{(-b - root) / (2 * a), (-b + root) / (2 * a)} {
		if t < -PRECISION || t > 1+PRECISION {
			continue
		}
		if i == 1 && IsZero(root) {
			// tangent, single intersection
			break
		}
		pts = append(pts, s.Start.Add(d.Scale(t)))
	}
	return pts
}

func (c Circle) ToString() string {
	return fmt.Sprintf("{X: %v, Y: %v, R: %v}", c.X, c.Y, c.R)
}
