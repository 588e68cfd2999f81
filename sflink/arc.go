// Package sflink computes connector geometry: straight lines or circular arcs
// between two elements, clipped to each element's outline.
package sflink

import (
	"errors"
	"math"

	"oss.terrastruct.com/stockflow/lib/geo"
)

// StraightThreshold is how close, in degrees, the takeoff angle must be to
// the center line for an arc to be drawn straight.
const StraightThreshold = 6.

// ErrDegenerate is returned when points are collinear or coincide and no
// circle can be fit. Callers draw a straight line instead.
var ErrDegenerate = errors.New("degenerate geometry")

// CircleFromPoints returns the circle through a, b and c.
func CircleFromPoints(a, b, c geo.Point) (geo.Circle, error) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if geo.IsZero(d) {
		return geo.Circle{}, ErrDegenerate
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	x := (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d
	y := (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d
	r := geo.EuclideanDistance(x, y, a.X, a.Y)
	if geo.IsInf(x) || geo.IsInf(y) || geo.IsInf(r) {
		return geo.Circle{}, ErrDegenerate
	}
	return geo.Circle{X: x, Y: y, R: r}, nil
}

// ArcCircle solves for the circle that leaves from in direction θ and passes
// through to. The center lies both on the normal to θ at from and on the
// perpendicular bisector of from and to.
func ArcCircle(θ float64, from, to geo.Point) (geo.Circle, error) {
	n := geo.NewPoint(-math.Sin(θ), math.Cos(θ))
	d := from.Sub(to)
	nd := n.X*d.X + n.Y*d.Y
	if geo.IsZero(nd) {
		// θ runs along the chord
		return geo.Circle{}, ErrDegenerate
	}
	s := -(d.X*d.X + d.Y*d.Y) / (2 * nd)
	if geo.IsInf(s) {
		return geo.Circle{}, ErrDegenerate
	}
	c := from.Add(n.Scale(s))
	return geo.Circle{X: c.X, Y: c.Y, R: math.Abs(s)}, nil
}

// TakeoffAngle is the display direction, in radians, a connector leaves from
// in. A live arcPoint wins over the stored arc. arc is in degrees,
// counter-clockwise, and display angles grow clockwise because y points down.
func TakeoffAngle(arc *float64, from, to geo.Point, arcPoint *geo.Point) (float64, error) {
	if arcPoint != nil {
		c, err := CircleFromPoints(from, to, *arcPoint)
		if err != nil {
			return from.AngleTo(to), err
		}
		α := c.AngleOf(from)
		toArc := geo.PositiveAngle(c.AngleOf(*arcPoint) - α)
		toEnd := geo.PositiveAngle(c.AngleOf(to) - α)
		if toArc < toEnd {
			return geo.NormalizeAngle(α + math.Pi/2), nil
		}
		return geo.NormalizeAngle(α - math.Pi/2), nil
	}
	if arc != nil {
		return geo.NormalizeAngle(geo.DegToRad(-*arc)), nil
	}
	return from.AngleTo(to), nil
}

// ArcDegrees converts a live arc point into the stored arc convention.
func ArcDegrees(from, to, arcPoint geo.Point) (float64, error) {
	θ, err := TakeoffAngle(nil, from, to, &arcPoint)
	if err != nil {
		return 0, err
	}
	return -geo.RadToDeg(θ), nil
}

// IsStraightLine reports whether a connector should be drawn as a line.
func IsStraightLine(arc *float64, from, to geo.Point, arcPoint *geo.Point) bool {
	if arc == nil && arcPoint == nil {
		return true
	}
	θ, err := TakeoffAngle(arc, from, to, arcPoint)
	if err != nil {
		return true
	}
	mid := from.AngleTo(to)
	return math.Abs(geo.NormalizeAngle(θ-mid)) < geo.DegToRad(StraightThreshold)
}

// UpdateArcAngle keeps a curved connector's bend relative to its center line
// when an endpoint moves from oldFrom/oldTo to newFrom/newTo.
func UpdateArcAngle(arc *float64, oldFrom, oldTo, newFrom, newTo geo.Point) *float64 {
	if arc == nil {
		return nil
	}
	oldMid := geo.RadToDeg(oldFrom.AngleTo(oldTo))
	newMid := geo.RadToDeg(newFrom.AngleTo(newTo))
	out := geo.RadToDeg(geo.NormalizeAngle(geo.DegToRad(*arc - (newMid - oldMid))))
	return &out
}
