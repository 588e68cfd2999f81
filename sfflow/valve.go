package sfflow

import (
	"math"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/sfview"
)

const (
	// ValveMargin is the minimum distance between the valve and either end of its segment.
	ValveMargin = 10.
	// HitTolerance widens the valve's clickable radius.
	HitTolerance = 5.
	// ChannelSlack keeps straight flows this far from a stock's corners.
	ChannelSlack = 3.
)

func segments(pts []sfview.Point) []geo.Segment {
	if len(pts) < 2 {
		return nil
	}
	segs := make([]geo.Segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, geo.NewSegment(pts[i].Geo(), pts[i+1].Geo()))
	}
	return segs
}

// FindClosestSegment returns the index of the segment of pts nearest p, or -1
// when pts has fewer than two points. Ties go to the earlier segment.
func FindClosestSegment(p geo.Point, pts []sfview.Point) int {
	best := -1
	bestDist := math.Inf(1)
	for i, s := range segments(pts) {
		d := s.DistanceToPoint(p)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// ClampToSegment projects p onto s and keeps it at least ValveMargin from
// both ends. Segments shorter than twice the margin clamp to their midpoint.
func ClampToSegment(p geo.Point, s geo.Segment) geo.Point {
	l := s.Length()
	if l < 2*ValveMargin {
		return s.Midpoint()
	}
	switch {
	case s.IsHorizontal():
		lo := math.Min(s.Start.X, s.End.X) + ValveMargin
		hi := math.Max(s.Start.X, s.End.X) - ValveMargin
		return geo.NewPoint(geo.Clamp(p.X, lo, hi), s.Start.Y)
	case s.IsVertical():
		lo := math.Min(s.Start.Y, s.End.Y) + ValveMargin
		hi := math.Max(s.Start.Y, s.End.Y) - ValveMargin
		return geo.NewPoint(s.Start.X, geo.Clamp(p.Y, lo, hi))
	}
	_, t := p.ProjectOntoLine(s.Start, s.End)
	m := ValveMargin / l
	return s.Start.Interpolate(s.End, geo.Clamp(t, m, 1-m))
}

// ClampValve moves the valve onto the segment closest to its current position.
func ClampValve(f sfview.Flow) sfview.Flow {
	return clampValveFrom(f, f.GetCenter())
}

func clampValveFrom(f sfview.Flow, from geo.Point) sfview.Flow {
	i := FindClosestSegment(from, f.Points)
	if i < 0 {
		return f
	}
	return f.WithValve(ClampToSegment(from, segments(f.Points)[i]))
}

// ValveContained reports whether the valve lies on its closest segment,
// inside the margins.
func ValveContained(f sfview.Flow) bool {
	v := f.GetCenter()
	i := FindClosestSegment(v, f.Points)
	if i < 0 {
		return false
	}
	s := segments(f.Points)[i]
	if s.DistanceToPoint(v) > 1e-6 {
		return false
	}
	if s.Length() < 2*ValveMargin {
		return geo.Distance(v, s.Midpoint()) < 1e-6
	}
	return geo.Distance(v, s.Start) >= ValveMargin-1e-6 && geo.Distance(v, s.End) >= ValveMargin-1e-6
}
