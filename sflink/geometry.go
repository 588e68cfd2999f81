package sflink

import (
	"math"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/svg"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

// Geometry is everything needed to draw a connector.
type Geometry struct {
	IsStraight bool
	Start      geo.Point
	End        geo.Point

	// Arc only.
	Circle   geo.Circle
	Sweep    bool
	LargeArc bool
	// Inverted arcs travel counter-clockwise on screen.
	Inverted bool

	// ArrowAngle is the direction of travel at End, in radians.
	ArrowAngle float64
	Bounds     geo.Rect
}

func (g Geometry) PathData() string {
	c := svg.NewPathContext()
	c.StartAt(g.Start)
	if g.IsStraight {
		c.L(g.End)
	} else {
		c.A(g.Circle.R, g.LargeArc, g.Sweep, g.End)
	}
	return c.PathData()
}

// CircleRectIntersections returns the points where c crosses the edges of r.
// Corners shared by two edges are reported once.
func CircleRectIntersections(c geo.Circle, r geo.Rect) []geo.Point {
	var pts []geo.Point
	for _, e := range r.Edges() {
	next:
		for _, p := range c.SegmentIntersections(e) {
			for _, p2 := range pts {
				if p.ApproxEquals(p2) {
					continue next
				}
			}
			pts = append(pts, p)
		}
	}
	return pts
}

// RayRectIntersection returns where the segment from the center of r toward
// p leaves r. It reports false when p is inside r.
func RayRectIntersection(r geo.Rect, p geo.Point) (geo.Point, bool) {
	c := r.Center()
	pts := r.Intersections(geo.NewSegment(c, p))
	if len(pts) == 0 {
		return c, false
	}
	best := pts[0]
	for _, p2 := range pts[1:] {
		if geo.Distance(c, p2) < geo.Distance(c, best) {
			best = p2
		}
	}
	return best, true
}

// Compute lays out link from one element to another. arcPoint is the live
// drag point, if any. Degenerate arcs fall back to straight lines.
func Compute(link sfview.Link, from, to sfview.Element, arcPoint *geo.Point) Geometry {
	fc := sfshape.VisualCenter(from)
	tc := sfshape.VisualCenter(to)

	if IsStraightLine(link.Arc, fc, tc, arcPoint) {
		return straight(from, to, fc, tc)
	}
	θ, err := TakeoffAngle(link.Arc, fc, tc, arcPoint)
	if err != nil {
		return straight(from, to, fc, tc)
	}
	circ, err := ArcCircle(θ, fc, tc)
	if err != nil {
		return straight(from, to, fc, tc)
	}

	// positive travel is clockwise on screen
	r := fc.Sub(circ.Center())
	t := geo.NewPoint(math.Cos(θ), math.Sin(θ))
	sweep := r.X*t.Y-r.Y*t.X > 0
	dir := 1.
	if !sweep {
		dir = -1
	}

	startθ := clipArc(circ, from, circ.AngleOf(fc), dir)
	endθ := clipArc(circ, to, circ.AngleOf(tc), -dir)

	span := geo.PositiveAngle(dir * (endθ - startθ))
	arrow := endθ + math.Pi/2
	if !sweep {
		arrow += math.Pi
	}

	return Geometry{
		Start:      circ.PointAt(startθ),
		End:        circ.PointAt(endθ),
		Circle:     circ,
		Sweep:      sweep,
		LargeArc:   span > math.Pi,
		Inverted:   !sweep,
		ArrowAngle: geo.NormalizeAngle(arrow),
		Bounds:     circ.Bounds(),
	}
}

// clipArc returns the angle on circ where the arc leaves el, starting from
// the element's angle θ and moving in dir.
func clipArc(circ geo.Circle, el sfview.Element, θ, dir float64) float64 {
	radius := sfshape.Radius(el)
	if radius == 0 || circ.R == 0 {
		return θ
	}
	// atan stays bounded where tan would blow up for large shapes
	ref := θ + dir*math.Atan(radius/circ.R)
	if !sfshape.IsRectangular(el) {
		return ref
	}
	s, _ := sfshape.Of(el)
	pts := CircleRectIntersections(circ, s.GetBox())
	if len(pts) == 0 {
		return ref
	}
	best := circ.AngleOf(pts[0])
	for _, p := range pts[1:] {
		a := circ.AngleOf(p)
		if math.Abs(geo.NormalizeAngle(a-ref)) < math.Abs(geo.NormalizeAngle(best-ref)) {
			best = a
		}
	}
	return best
}

func straight(from, to sfview.Element, fc, tc geo.Point) Geometry {
	return Geometry{
		IsStraight: true,
		Start:      clipLine(from, fc, tc),
		End:        clipLine(to, tc, fc),
		ArrowAngle: fc.AngleTo(tc),
		Bounds:     geo.NewRect(fc, tc),
	}
}

// clipLine returns where the line from c toward other leaves el.
func clipLine(el sfview.Element, c, other geo.Point) geo.Point {
	radius := sfshape.Radius(el)
	if radius == 0 || c.ApproxEquals(other) {
		return c
	}
	if sfshape.IsRectangular(el) {
		s, _ := sfshape.Of(el)
		if p, ok := RayRectIntersection(s.GetBox(), other); ok {
			return p
		}
		return c
	}
	d := other.Sub(c)
	return c.Add(d.Scale(radius / d.Length()))
}

// Bounds looks up both ends of link in r. Links with a missing end have no
// bounds and are skipped by callers.
func Bounds(r sfview.Reader, link sfview.Link) *geo.Rect {
	from, ok := r.Get(link.FromUID)
	if !ok {
		return nil
	}
	to, ok := r.Get(link.ToUID)
	if !ok {
		return nil
	}
	b := Compute(link, from, to, nil).Bounds
	return &b
}

// Arrowhead is the triangle with its tip at tip pointing along θ.
func Arrowhead(tip geo.Point, θ, length, width float64) [3]geo.Point {
	dir := geo.NewPoint(math.Cos(θ), math.Sin(θ))
	n := geo.NewPoint(-dir.Y, dir.X)
	base := tip.Sub(dir.Scale(length))
	return [3]geo.Point{
		tip,
		base.Add(n.Scale(width / 2)),
		base.Sub(n.Scale(width / 2)),
	}
}
