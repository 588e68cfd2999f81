package sfflow

import (
	"math"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

// UpdateCloudAndFlow moves cloud by delta along with the flow end it terminates.
func UpdateCloudAndFlow(cloud sfview.Cloud, f sfview.Flow, delta geo.Point) (sfview.Cloud, sfview.Flow, error) {
	end, err := attachedEnd(f, cloud.UID)
	if err != nil {
		return cloud, f, err
	}
	f2, p := MoveEnd(f, end, cloud.GetCenter(), delta)
	return cloud.WithCenter(p), f2, nil
}

// MoveEnd drags endpoint end of f, which sits at base, by delta. It returns
// the new flow and where the endpoint landed.
//
// A two point flow that is horizontal keeps the endpoint's y and one that is
// vertical keeps its x. A brand new flow with both ends on the same spot takes
// whichever axis the drag moved further along. Longer flows move the endpoint
// freely and shift the adjacent corner to keep the end segment orthogonal.
func MoveEnd(f sfview.Flow, end int, base, delta geo.Point) (sfview.Flow, geo.Point) {
	n := len(f.Points)
	if n < 2 || (end != 0 && end != n-1) {
		return f, base
	}
	pts := f.Copy().Points
	endPt := pts[end]
	proposed := base.Add(delta)

	if n == 2 {
		anchor := pts[n-1-end]
		dx := endPt.X - anchor.X
		dy := endPt.Y - anchor.Y
		horizontal := geo.IsZero(dy) && !geo.IsZero(dx)
		vertical := geo.IsZero(dx) && !geo.IsZero(dy)
		if !horizontal && !vertical {
			horizontal = math.Abs(delta.X) > math.Abs(delta.Y)
		}
		if horizontal {
			proposed.Y = anchor.Y
		} else {
			proposed.X = anchor.X
		}
		pts[end] = endPt.WithXY(proposed.X, proposed.Y)
	} else {
		adjIdx := neighbor(end, n)
		adj := pts[adjIdx]
		if isHorizontal(endPt, adj) {
			pts[adjIdx] = adj.WithXY(adj.X, proposed.Y)
		} else {
			pts[adjIdx] = adj.WithXY(proposed.X, adj.Y)
		}
		pts[end] = endPt.WithXY(proposed.X, proposed.Y)
	}

	return clampValveFrom(f.WithPoints(pts), f.GetCenter()), proposed
}

// UpdateFlow applies a direct drag to f. With no segment index the valve moves
// by delta and is re-clamped; endpoints never move. With a segment index the
// interior segment moves perpendicular to itself, taking both of its corners
// along. Segments that touch an attached endpoint, or are diagonal, ignore the
// drag. The valve is re-clamped either way.
func UpdateFlow(f sfview.Flow, delta geo.Point, segmentIndex *int) sfview.Flow {
	if segmentIndex == nil {
		return clampValveFrom(f, f.GetCenter().Add(delta))
	}
	i := *segmentIndex
	if SegmentHasAttachedEndpoint(f, i) {
		return ClampValve(f)
	}
	pts := f.Copy().Points
	a, b := pts[i], pts[i+1]
	switch {
	case isHorizontal(a, b):
		pts[i] = a.WithXY(a.X, a.Y+delta.Y)
		pts[i+1] = b.WithXY(b.X, b.Y+delta.Y)
	case geo.IsZero(a.X - b.X):
		pts[i] = a.WithXY(a.X+delta.X, a.Y)
		pts[i+1] = b.WithXY(b.X+delta.X, b.Y)
	default:
		return ClampValve(f)
	}
	return ClampValve(f.WithPoints(pts))
}

// SegmentHasAttachedEndpoint reports whether segment i of f starts or ends at
// a stock or cloud. Out of range segments report true.
func SegmentHasAttachedEndpoint(f sfview.Flow, i int) bool {
	if i < 0 || i+1 >= len(f.Points) {
		return true
	}
	return f.Points[i].IsAttached() || f.Points[i+1].IsAttached()
}

type Part int

const (
	PartNone Part = iota
	// PartValve and PartWhole both drag the valve.
	PartValve
	PartWhole
	PartSegment
)

func (p Part) String() string {
	switch p {
	case PartValve:
		return "valve"
	case PartWhole:
		return "whole"
	case PartSegment:
		return "segment"
	}
	return "none"
}

// FindClickedSegment resolves a click on f. A click near the valve grabs the
// valve. Single segment flows drag as a whole. Otherwise the nearest segment
// is returned, unless it touches an attached endpoint, which yields PartNone.
func FindClickedSegment(f sfview.Flow, p geo.Point) (Part, int) {
	if geo.Distance(p, f.GetCenter()) <= sfshape.ValveRadius+HitTolerance {
		return PartValve, -1
	}
	if len(f.Points) <= 2 {
		return PartWhole, -1
	}
	i := FindClosestSegment(p, f.Points)
	if i < 0 || SegmentHasAttachedEndpoint(f, i) {
		return PartNone, -1
	}
	return PartSegment, i
}
