package sfflow

import (
	"math"

	"oss.terrastruct.com/stockflow/sfview"
)

// CanAttach reports whether endpoint end of f can snap onto stock without
// bending the segment next to it. The stock must not already hold the other
// end, and its center must lie within its half extent of the line through
// the adjacent point. A degenerate end segment accepts either axis.
func CanAttach(f sfview.Flow, end int, stock sfview.Stock) bool {
	n := len(f.Points)
	if n < 2 || (end != 0 && end != n-1) {
		return false
	}
	if f.Points[n-1-end].IsAttachedTo(stock.UID) {
		return false
	}
	rw, rh := stockHalfExtents(stock)
	endPt, adj := f.Points[end], f.Points[neighbor(end, n)]
	alignedH := math.Abs(stock.Y-adj.Y) <= rh
	alignedV := math.Abs(stock.X-adj.X) <= rw
	switch {
	case endPt.Geo().ApproxEquals(adj.Geo()):
		return alignedH || alignedV
	case isHorizontal(endPt, adj):
		return alignedH
	default:
		return alignedV
	}
}

// AttachEnd snaps endpoint end of f onto the edge of stock facing the
// adjacent point and attaches it. The adjacent point does not move.
func AttachEnd(f sfview.Flow, end int, stock sfview.Stock) sfview.Flow {
	n := len(f.Points)
	if n < 2 || (end != 0 && end != n-1) {
		return f
	}
	pts := f.Copy().Points
	rw, rh := stockHalfExtents(stock)
	endPt, adj := pts[end], pts[neighbor(end, n)]

	var horizontal bool
	if endPt.Geo().ApproxEquals(adj.Geo()) {
		horizontal = math.Abs(stock.Y-adj.Y) <= rh
	} else {
		horizontal = isHorizontal(endPt, adj)
	}

	p := sfview.AttachedPoint(stock.X, stock.Y, stock.UID)
	if horizontal {
		p.Y = adj.Y
		if adj.X < stock.X {
			p.X = stock.X - rw
		} else {
			p.X = stock.X + rw
		}
	} else {
		p.X = adj.X
		if adj.Y < stock.Y {
			p.Y = stock.Y - rh
		} else {
			p.Y = stock.Y + rh
		}
	}
	pts[end] = p
	return ClampValve(f.WithPoints(pts))
}

// Detach points endpoint end of f at uid, typically a new cloud, leaving
// the geometry alone.
func Detach(f sfview.Flow, end int, uid int) sfview.Flow {
	if end < 0 || end >= len(f.Points) {
		return f
	}
	pts := f.Copy().Points
	pts[end] = pts[end].WithAttachment(uid)
	return f.WithPoints(pts)
}
