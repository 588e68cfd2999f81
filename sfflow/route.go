// Package sfflow keeps flow pipes orthogonal and their valves on the pipe
// while the stocks and clouds they connect move.
package sfflow

import (
	"fmt"
	"math"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

func stockHalfExtents(s sfview.Stock) (float64, float64) {
	if s.IsZeroRadius {
		return 0, 0
	}
	return sfshape.StockWidth / 2, sfshape.StockHeight / 2
}

// attachedEnd returns the index of the endpoint of f attached to uid.
func attachedEnd(f sfview.Flow, uid int) (int, error) {
	n := len(f.Points)
	if n < 2 {
		return -1, fmt.Errorf("flow %d has %d points: %w", f.UID, n, sfview.ErrInvariant)
	}
	if f.Points[0].IsAttachedTo(uid) {
		return 0, nil
	}
	if f.Points[n-1].IsAttachedTo(uid) {
		return n - 1, nil
	}
	return -1, fmt.Errorf("flow %d is not attached to %d: %w", f.UID, uid, sfview.ErrInvariant)
}

// neighbor is the index next to end, toward the inside of the polyline.
func neighbor(end, n int) int {
	if end == 0 {
		return 1
	}
	return n - 2
}

func isHorizontal(a, b sfview.Point) bool {
	return geo.IsZero(a.Y - b.Y)
}

// ComputeFlowRoute reroutes f after the stock it is attached to moves so that
// its center is (newX, newY). Two and three point flows become either a
// straight pipe or an L with one corner. Longer flows keep their routing and
// only the endpoint and its adjacent corner move. The valve is re-clamped.
func ComputeFlowRoute(f sfview.Flow, stock sfview.Stock, newX, newY float64) (sfview.Flow, error) {
	end, err := attachedEnd(f, stock.UID)
	if err != nil {
		return f, err
	}
	n := len(f.Points)
	rw, rh := stockHalfExtents(stock)

	var pts []sfview.Point
	if n <= 3 {
		anchorIdx := n - 1 - end
		anchor := f.Points[anchorIdx]
		adjacent := f.Points[neighbor(anchorIdx, n)]
		endPt := f.Points[end]

		var route []sfview.Point
		if isHorizontal(anchor, adjacent) {
			route = horizontalRoute(anchor, endPt, newX, newY, rw, rh)
		} else {
			route = verticalRoute(anchor, endPt, newX, newY, rw, rh)
		}
		if end == 0 {
			// routes are built anchor first
			for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
				route[i], route[j] = route[j], route[i]
			}
		}
		pts = route
	} else {
		pts = f.Copy().Points
		adjIdx := neighbor(end, n)
		endPt, adj := pts[end], pts[adjIdx]
		if isHorizontal(endPt, adj) {
			x := newX - rw
			if adj.X > newX {
				x = newX + rw
			}
			pts[end] = endPt.WithXY(x, newY)
			pts[adjIdx] = adj.WithXY(adj.X, newY)
		} else {
			y := newY - rh
			if adj.Y > newY {
				y = newY + rh
			}
			pts[end] = endPt.WithXY(newX, y)
			pts[adjIdx] = adj.WithXY(newX, adj.Y)
		}
	}

	return clampValveFrom(f.WithPoints(pts), f.GetCenter()), nil
}

// horizontalRoute handles a flow that leaves its anchor horizontally.
func horizontalRoute(anchor, endPt sfview.Point, newX, newY, rw, rh float64) []sfview.Point {
	if math.Abs(newY-anchor.Y) < rh || (rh == 0 && geo.IsZero(newY-anchor.Y)) {
		x := newX - rw
		if anchor.X > newX {
			x = newX + rw
		}
		return []sfview.Point{anchor, endPt.WithXY(x, anchor.Y)}
	}
	y := newY - rh
	if anchor.Y > newY {
		y = newY + rh
	}
	if geo.IsZero(anchor.X - newX) {
		return []sfview.Point{anchor, endPt.WithXY(newX, y)}
	}
	return []sfview.Point{
		anchor,
		sfview.NewPoint(newX, anchor.Y),
		endPt.WithXY(newX, y),
	}
}

// verticalRoute handles a flow that leaves its anchor vertically.
func verticalRoute(anchor, endPt sfview.Point, newX, newY, rw, rh float64) []sfview.Point {
	if math.Abs(newX-anchor.X) < rw || (rw == 0 && geo.IsZero(newX-anchor.X)) {
		y := newY - rh
		if anchor.Y > newY {
			y = newY + rh
		}
		return []sfview.Point{anchor, endPt.WithXY(anchor.X, y)}
	}
	x := newX - rw
	if anchor.X > newX {
		x = newX + rw
	}
	if geo.IsZero(anchor.Y - newY) {
		return []sfview.Point{anchor, endPt.WithXY(x, newY)}
	}
	return []sfview.Point{
		anchor,
		sfview.NewPoint(anchor.X, newY),
		endPt.WithXY(x, newY),
	}
}

// AdjacentSide reports which side of stock f attaches to. A flow flush with
// an edge uses that edge; otherwise the direction from the stock center to the
// endpoint's neighbor decides.
func AdjacentSide(stock sfview.Stock, f sfview.Flow) (geo.Orientation, error) {
	end, err := attachedEnd(f, stock.UID)
	if err != nil {
		return geo.NONE, err
	}
	endPt := f.Points[end]
	adj := f.Points[neighbor(end, len(f.Points))]
	rw, rh := stockHalfExtents(stock)
	horizontal := isHorizontal(endPt, adj)

	switch {
	case horizontal && geo.IsZero(endPt.X-(stock.X-rw)):
		return geo.Left, nil
	case horizontal && geo.IsZero(endPt.X-(stock.X+rw)):
		return geo.Right, nil
	case !horizontal && geo.IsZero(endPt.Y-(stock.Y-rh)):
		return geo.Top, nil
	case !horizontal && geo.IsZero(endPt.Y-(stock.Y+rh)):
		return geo.Bottom, nil
	}

	if horizontal {
		if adj.X-stock.X < 0 {
			return geo.Left, nil
		}
		return geo.Right, nil
	}
	if adj.Y-stock.Y < 0 {
		return geo.Top, nil
	}
	return geo.Bottom, nil
}

func IsAdjacent(stock sfview.Stock, f sfview.Flow, side geo.Orientation) bool {
	s, err := AdjacentSide(stock, f)
	return err == nil && s == side
}

// UpdateStockAndFlows moves stock by delta and reroutes every attached flow.
// While a straight flow would stay straight, the stock is held at least
// ChannelSlack inside the flow's line so the pipe never meets a corner.
func UpdateStockAndFlows(stock sfview.Stock, flows []sfview.Flow, delta geo.Point) (sfview.Stock, []sfview.Flow, error) {
	rw, rh := stockHalfExtents(stock)
	c := stock.GetCenter().Add(delta)

	for _, f := range flows {
		if len(f.Points) != 2 {
			continue
		}
		side, err := AdjacentSide(stock, f)
		if err != nil {
			return stock, nil, err
		}
		end, _ := attachedEnd(f, stock.UID)
		endPt := f.Points[end]
		switch {
		case side.IsHorizontal() && math.Abs(c.Y-endPt.Y) < rh:
			slack := math.Max(rh-ChannelSlack, 0)
			c.Y = geo.Clamp(c.Y, endPt.Y-slack, endPt.Y+slack)
		case side.IsVertical() && math.Abs(c.X-endPt.X) < rw:
			slack := math.Max(rw-ChannelSlack, 0)
			c.X = geo.Clamp(c.X, endPt.X-slack, endPt.X+slack)
		}
	}

	moved := stock.WithCenter(c)
	out := make([]sfview.Flow, 0, len(flows))
	for _, f := range flows {
		f2, err := ComputeFlowRoute(f, stock, c.X, c.Y)
		if err != nil {
			return stock, nil, err
		}
		out = append(out, f2)
	}
	return moved, out, nil
}
