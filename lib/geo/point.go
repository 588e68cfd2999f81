package geo

import (
	"fmt"
	"math"
	"strings"
)

// Point is a position in model coordinates. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p1 Point) Equals(p2 Point) bool {
	return (p1.X == p2.X) && (p1.Y == p2.Y)
}

// ApproxEquals reports whether both coordinates are within PRECISION.
func (p1 Point) ApproxEquals(p2 Point) bool {
	return IsZero(p1.X-p2.X) && IsZero(p1.Y-p2.Y)
}

func (p1 Point) Compare(p2 Point) int {
	xCompare := Sign(p1.X - p2.X)
	if xCompare == 0 {
		return Sign(p1.Y - p2.Y)
	}
	return xCompare
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// AngleTo is the direction from p to o in radians, clockwise on screen.
func (p Point) AngleTo(o Point) float64 {
	return math.Atan2(o.Y-p.Y, o.X-p.X)
}

// Cross is the z component of (a-p) × (b-p). Its sign tells which side of the
// line p→a the point b falls on.
func (p Point) Cross(a, b Point) float64 {
	return (a.X-p.X)*(b.Y-p.Y) - (a.Y-p.Y)*(b.X-p.X)
}

type Points []Point

// GetOrientation gets orientation of pFrom to pTo
// E.g. pFrom ---> pTo, here, pFrom is to the left of pTo, so Left would be returned
func (pFrom Point) GetOrientation(pTo Point) Orientation {
	if pFrom.Y < pTo.Y {
		if pFrom.X < pTo.X {
			return TopLeft
		}
		if pFrom.X > pTo.X {
			return TopRight
		}
		return Top
	}

	if pFrom.Y > pTo.Y {
		if pFrom.X < pTo.X {
			return BottomLeft
		}
		if pFrom.X > pTo.X {
			return BottomRight
		}
		return Bottom
	}

	if pFrom.X < pTo.X {
		return Left
	}

	if pFrom.X > pTo.X {
		return Right
	}

	return NONE
}

func (p Point) ToString() string {
	return fmt.Sprintf("(%v, %v)", p.X, p.Y)
}

func (points Points) ToString() string {
	strs := make([]string, 0, len(points))
	for _, p := range points {
		strs = append(strs, p.ToString())
	}
	return strings.Join(strs, ", ")
}

// ProjectOntoLine returns the closest point to p on the segment p1→p2 along with the
// segment parameter t in [0, 1].
// https://stackoverflow.com/questions/849211/shortest-distance-between-a-point-and-a-line-segment
func (p Point) ProjectOntoLine(p1, p2 Point) (Point, float64) {
	a := p.X - p1.X
	b := p.Y - p1.Y
	c := p2.X - p1.X
	d := p2.Y - p1.Y

	dot := (a * c) + (b * d)
	lenSq := (c * c) + (d * d)

	param := -1.0
	if lenSq != 0 {
		param = dot / lenSq
	}

	if param < 0.0 {
		return p1, 0
	} else if param > 1.0 {
		return p2, 1
	}
	return Point{X: p1.X + (param * c), Y: p1.Y + (param * d)}, param
}

func (p Point) DistanceToLine(p1, p2 Point) float64 {
	closest, _ := p.ProjectOntoLine(p1, p2)
	return Distance(p, closest)
}

// get the point of intersection between line segments u and v (or nil if they do not intersect)
func IntersectionPoint(u0, u1, v0, v1 Point) *Point {
	// s*udx - t*vdx = uvdx
	// s*udy - t*vdy = uvdy
	udx := u1.X - u0.X
	vdx := v1.X - v0.X
	uvdx := v0.X - u0.X
	udy := u1.Y - u0.Y
	vdy := v1.Y - v0.Y
	uvdy := v0.Y - u0.Y

	denom := (udy*vdx - udx*vdy)
	if denom == 0 {
		// lines are parallel
		return nil
	}
	// Cramer's rule
	s := (vdx*uvdy - vdy*uvdx) / denom
	t := (udx*uvdy - udy*uvdx) / denom

	if s < 0 || s > 1 || t < 0 || t > 1 {
		return nil
	}

	return &Point{
		X: u0.X + s*udx,
		Y: u0.Y + s*udy,
	}
}

// point t% of the way between a and b
func (a Point) Interpolate(b Point, t float64) Point {
	return NewPoint(
		a.X*(1.0-t)+b.X*t,
		a.Y*(1.0-t)+b.Y*t,
	)
}
