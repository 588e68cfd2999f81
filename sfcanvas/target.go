package sfcanvas

import (
	"math"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/sfflow"
	"oss.terrastruct.com/stockflow/sflink"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

// handleRadius is how far, in screen pixels, a connector end handle reaches
// beyond the hit tolerance.
const handleRadius = 4.

type HitPart int

const (
	HitNone HitPart = iota
	HitBody
	HitLabel
	HitValve
	HitSegment
	// HitArc is the body of a link.
	HitArc
	// HitArrowhead is the sink end of a selected flow or the target end of
	// a selected link.
	HitArrowhead
	HitSource
)

func (p HitPart) String() string {
	switch p {
	case HitBody:
		return "body"
	case HitLabel:
		return "label"
	case HitValve:
		return "valve"
	case HitSegment:
		return "segment"
	case HitArc:
		return "arc"
	case HitArrowhead:
		return "arrowhead"
	case HitSource:
		return "source"
	}
	return "none"
}

type Hit struct {
	UID  int
	Part HitPart
	// Segment is the flow segment index for HitSegment.
	Segment int
}

// HitTest finds what model point p lands on. Handles of selected connectors
// win, then elements top to bottom, then groups. zoom scales the tolerance
// so it stays constant on screen.
func HitTest(r sfview.Reader, p geo.Point, zoom float64, selected func(uid int) bool) (Hit, bool) {
	if zoom <= 0 {
		zoom = 1
	}
	tol := sfflow.HitTolerance / zoom
	els := r.Elements()

	for i := len(els) - 1; i >= 0; i-- {
		el := els[i]
		if el.GetUID() < 0 || !selected(el.GetUID()) {
			continue
		}
		if part, ok := hitHandle(r, el, p, tol+handleRadius/zoom); ok {
			return Hit{UID: el.GetUID(), Part: part, Segment: -1}, true
		}
	}

	for i := len(els) - 1; i >= 0; i-- {
		el := els[i]
		if el.GetUID() < 0 || el.ZeroRadius() || el.Kind() == sfview.KindGroup {
			continue
		}
		if lb, ok := sfshape.LabelBounds(el); ok && lb.Contains(p) {
			return Hit{UID: el.GetUID(), Part: HitLabel, Segment: -1}, true
		}
		if h, ok := hitElement(r, el, p, tol); ok {
			return h, true
		}
	}

	for i := len(els) - 1; i >= 0; i-- {
		if g, ok := els[i].(sfview.Group); ok && sfshape.Contains(g, p) {
			return Hit{UID: g.UID, Part: HitBody, Segment: -1}, true
		}
	}
	return Hit{}, false
}

func hitHandle(r sfview.Reader, el sfview.Element, p geo.Point, reach float64) (HitPart, bool) {
	switch el := el.(type) {
	case sfview.Flow:
		if len(el.Points) < 2 {
			return HitNone, false
		}
		if geo.Distance(p, el.Points[len(el.Points)-1].Geo()) <= reach {
			return HitArrowhead, true
		}
		if geo.Distance(p, el.Points[0].Geo()) <= reach {
			return HitSource, true
		}
	case sfview.Link:
		g, ok := linkGeometry(r, el)
		if !ok {
			return HitNone, false
		}
		if geo.Distance(p, g.End) <= reach {
			return HitArrowhead, true
		}
		if geo.Distance(p, g.Start) <= reach {
			return HitSource, true
		}
	}
	return HitNone, false
}

func hitElement(r sfview.Reader, el sfview.Element, p geo.Point, tol float64) (Hit, bool) {
	switch el := el.(type) {
	case sfview.Flow:
		if geo.Distance(p, el.GetCenter()) <= sfshape.ValveRadius+tol {
			return Hit{UID: el.UID, Part: HitValve, Segment: -1}, true
		}
		i := sfflow.FindClosestSegment(p, el.Points)
		if i < 0 {
			return Hit{}, false
		}
		s := geo.NewSegment(el.Points[i].Geo(), el.Points[i+1].Geo())
		if s.DistanceToPoint(p) > tol {
			return Hit{}, false
		}
		if part, seg := sfflow.FindClickedSegment(el, p); part == sfflow.PartSegment {
			return Hit{UID: el.UID, Part: HitSegment, Segment: seg}, true
		}
		return Hit{UID: el.UID, Part: HitBody, Segment: -1}, true
	case sfview.Link:
		g, ok := linkGeometry(r, el)
		if ok && onConnector(g, p, tol) {
			return Hit{UID: el.UID, Part: HitArc, Segment: -1}, true
		}
		return Hit{}, false
	}
	if sfshape.Contains(el, p) {
		return Hit{UID: el.GetUID(), Part: HitBody, Segment: -1}, true
	}
	return Hit{}, false
}

func linkGeometry(r sfview.Reader, l sfview.Link) (sflink.Geometry, bool) {
	from, ok := r.Get(l.FromUID)
	if !ok {
		return sflink.Geometry{}, false
	}
	to, ok := r.Get(l.ToUID)
	if !ok {
		return sflink.Geometry{}, false
	}
	return sflink.Compute(l, from, to, nil), true
}

func onConnector(g sflink.Geometry, p geo.Point, tol float64) bool {
	if g.IsStraight {
		return geo.NewSegment(g.Start, g.End).DistanceToPoint(p) <= tol
	}
	if math.Abs(geo.Distance(p, g.Circle.Center())-g.Circle.R) > tol {
		return false
	}
	dir := 1.
	if !g.Sweep {
		dir = -1
	}
	a0 := g.Circle.AngleOf(g.Start)
	span := geo.PositiveAngle(dir * (g.Circle.AngleOf(g.End) - a0))
	return geo.PositiveAngle(dir*(g.Circle.AngleOf(p)-a0)) <= span
}

// IsValidTarget reports whether the dragged end of a connector may snap to
// candidate. For links, isSource picks which end is moving.
//
// Links snap to auxiliaries and flows only, never to their own other end,
// and never where a link with the same ends already exists. Flows snap to
// stocks only, never to the stock holding their other end, and only where
// the end segment stays aligned with the stock.
func IsValidTarget(r sfview.Reader, dragged sfview.Element, isSource bool, candidate sfview.Element) bool {
	if candidate == nil || candidate.GetUID() <= 0 || candidate.ZeroRadius() || candidate.GetUID() == dragged.GetUID() {
		return false
	}
	switch dragged := dragged.(type) {
	case sfview.Link:
		switch candidate.(type) {
		case sfview.Aux, sfview.Flow:
		default:
			if !isSource {
				return false
			}
			if _, ok := candidate.(sfview.Named); !ok {
				return false
			}
		}
		from, to := dragged.FromUID, candidate.GetUID()
		if isSource {
			from, to = candidate.GetUID(), dragged.ToUID
		}
		if from == to {
			return false
		}
		for _, l := range sfview.Links(r) {
			if l.UID != dragged.UID && l.FromUID == from && l.ToUID == to {
				return false
			}
		}
		return true
	case sfview.Flow:
		stock, ok := candidate.(sfview.Stock)
		if !ok {
			return false
		}
		end := len(dragged.Points) - 1
		if isSource {
			end = 0
		}
		return sfflow.CanAttach(dragged, end, stock)
	}
	return false
}

// InSelectRect reports whether a drag-select rect picks up el. Centers must
// fall inside the rect; an auxiliary is also picked up when the rect pokes
// into its circle.
func InSelectRect(el sfview.Element, rect geo.Rect) bool {
	if el.GetUID() <= 0 || el.ZeroRadius() {
		return false
	}
	switch el.(type) {
	case sfview.Link:
		return false
	case sfview.Aux:
		c := el.GetCenter()
		circ := geo.Circle{X: c.X, Y: c.Y, R: sfshape.AuxRadius}
		for _, corner := range rect.Corners() {
			if circ.Contains(corner) {
				return true
			}
		}
	}
	return rect.Contains(el.GetCenter())
}
