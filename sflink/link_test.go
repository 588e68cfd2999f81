package sflink

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/go2"
	"oss.terrastruct.com/stockflow/sfview"
)

func TestIsStraightLine(t *testing.T) {
	t.Parallel()

	ends := [][2]geo.Point{
		{{X: 0, Y: 0}, {X: 100, Y: 0}},
		{{X: 10, Y: 300}, {X: -40, Y: 7}},
		{{X: 5, Y: 5}, {X: 5, Y: 5}},
	}
	for _, e := range ends {
		assert.True(t, IsStraightLine(nil, e[0], e[1], nil))
	}

	from, to := geo.NewPoint(0, 0), geo.NewPoint(100, 0)
	assert.True(t, IsStraightLine(go2.Pointer(-3.), from, to, nil))
	assert.True(t, IsStraightLine(go2.Pointer(5.), from, to, nil))
	assert.False(t, IsStraightLine(go2.Pointer(45.), from, to, nil))
	assert.False(t, IsStraightLine(nil, from, to, &geo.Point{X: 50, Y: -50}))

	// collinear arc points can't bend the line
	assert.True(t, IsStraightLine(nil, from, to, &geo.Point{X: 50, Y: 0}))
}

func TestCircleFromPoints(t *testing.T) {
	t.Parallel()

	c, err := CircleFromPoints(geo.NewPoint(0, 0), geo.NewPoint(100, 0), geo.NewPoint(50, -50))
	assert.NoError(t, err)
	assert.InDelta(t, 50, c.X, geo.PRECISION)
	assert.InDelta(t, 0, c.Y, geo.PRECISION)
	assert.InDelta(t, 50, c.R, geo.PRECISION)

	_, err = CircleFromPoints(geo.NewPoint(0, 0), geo.NewPoint(10, 10), geo.NewPoint(20, 20))
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestArcCircle(t *testing.T) {
	t.Parallel()

	c, err := ArcCircle(-math.Pi/2, geo.NewPoint(0, 0), geo.NewPoint(100, 0))
	assert.NoError(t, err)
	assert.InDelta(t, 50, c.X, geo.PRECISION)
	assert.InDelta(t, 0, c.Y, geo.PRECISION)
	assert.InDelta(t, 50, c.R, geo.PRECISION)

	// vertical chord, takeoff to the right
	c, err = ArcCircle(0, geo.NewPoint(0, 0), geo.NewPoint(0, 100))
	assert.NoError(t, err)
	assert.InDelta(t, 0, c.X, geo.PRECISION)
	assert.InDelta(t, 50, c.Y, geo.PRECISION)

	_, err = ArcCircle(0, geo.NewPoint(0, 0), geo.NewPoint(100, 0))
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestTakeoffAngle(t *testing.T) {
	t.Parallel()

	from, to := geo.NewPoint(0, 0), geo.NewPoint(100, 0)

	θ, err := TakeoffAngle(nil, from, to, &geo.Point{X: 50, Y: -50})
	assert.NoError(t, err)
	assert.InDelta(t, -math.Pi/2, θ, geo.PRECISION)

	θ, err = TakeoffAngle(nil, from, to, &geo.Point{X: 50, Y: 50})
	assert.NoError(t, err)
	assert.InDelta(t, math.Pi/2, θ, geo.PRECISION)

	θ, err = TakeoffAngle(go2.Pointer(90.), from, to, nil)
	assert.NoError(t, err)
	assert.InDelta(t, -math.Pi/2, θ, geo.PRECISION)

	deg, err := ArcDegrees(from, to, geo.NewPoint(50, -50))
	assert.NoError(t, err)
	assert.InDelta(t, 90, deg, geo.PRECISION)
}

func TestUpdateArcAngle(t *testing.T) {
	t.Parallel()

	assert.Nil(t, UpdateArcAngle(nil, geo.Point{}, geo.Point{}, geo.Point{}, geo.Point{}))

	arc := UpdateArcAngle(go2.Pointer(30.), geo.NewPoint(0, 0), geo.NewPoint(100, 0), geo.NewPoint(0, 0), geo.NewPoint(0, 100))
	assert.InDelta(t, -60, *arc, geo.PRECISION)

	// the bend relative to the center line is unchanged
	oldθ, _ := TakeoffAngle(go2.Pointer(30.), geo.NewPoint(0, 0), geo.NewPoint(100, 0), nil)
	newθ, _ := TakeoffAngle(arc, geo.NewPoint(0, 0), geo.NewPoint(0, 100), nil)
	assert.InDelta(t, oldθ-0, newθ-math.Pi/2, geo.PRECISION)
}

func TestComputeStraight(t *testing.T) {
	t.Parallel()

	g := Compute(sfview.Link{FromUID: 1, ToUID: 2},
		sfview.Aux{UID: 1, X: 0, Y: 0},
		sfview.Aux{UID: 2, X: 100, Y: 0},
		nil,
	)
	assert.True(t, g.IsStraight)
	assert.Equal(t, geo.NewPoint(9, 0), g.Start)
	assert.Equal(t, geo.NewPoint(91, 0), g.End)
	assert.Equal(t, 0., g.ArrowAngle)
	assert.Equal(t, geo.Rect{Top: 0, Left: 0, Right: 100, Bottom: 0}, g.Bounds)
	assert.Equal(t, "M 9,0 L 91,0", g.PathData())

	g = Compute(sfview.Link{FromUID: 1, ToUID: 2},
		sfview.Stock{UID: 1, X: 0, Y: 0},
		sfview.Flow{UID: 2, X: 0, Y: 100},
		nil,
	)
	assert.True(t, g.Start.ApproxEquals(geo.NewPoint(0, 17.5)))
	assert.True(t, g.End.ApproxEquals(geo.NewPoint(0, 91)))

	// zero-radius ghosts use their raw center
	g = Compute(sfview.Link{FromUID: 1, ToUID: sfview.FauxTargetUID},
		sfview.Aux{UID: 1, X: 0, Y: 0},
		sfview.Aux{UID: sfview.FauxTargetUID, X: 50, Y: 0, IsZeroRadius: true},
		nil,
	)
	assert.Equal(t, geo.NewPoint(50, 0), g.End)
}

func TestComputeArc(t *testing.T) {
	t.Parallel()

	g := Compute(sfview.Link{FromUID: 1, ToUID: 2, Arc: go2.Pointer(90.)},
		sfview.Aux{UID: 1, X: 0, Y: 0},
		sfview.Aux{UID: 2, X: 100, Y: 0},
		nil,
	)
	assert.False(t, g.IsStraight)
	assert.True(t, g.Sweep)
	assert.False(t, g.Inverted)
	assert.False(t, g.LargeArc)
	assert.InDelta(t, 50, g.Circle.R, geo.PRECISION)
	assert.Equal(t, geo.Rect{Top: -50, Left: 0, Right: 100, Bottom: 50}, g.Bounds)

	// both clipped ends sit above the chord, AuxRadius away along the arc
	assert.Less(t, g.Start.Y, 0.)
	assert.Less(t, g.End.Y, 0.)
	assert.InDelta(t, 50, geo.Distance(g.Start, g.Circle.Center()), geo.PRECISION)
	assert.InDelta(t, math.Atan(9./50), math.Abs(geo.NormalizeAngle(g.Circle.AngleOf(g.Start)-math.Pi)), geo.PRECISION)

	// arriving from above, the arrow points down and slightly right
	assert.Greater(t, g.ArrowAngle, math.Pi/2-.5)
	assert.Less(t, g.ArrowAngle, math.Pi/2)

	// the same arc bent the other way is inverted
	g = Compute(sfview.Link{FromUID: 1, ToUID: 2, Arc: go2.Pointer(-90.)},
		sfview.Aux{UID: 1, X: 0, Y: 0},
		sfview.Aux{UID: 2, X: 100, Y: 0},
		nil,
	)
	assert.True(t, g.Inverted)
	assert.Greater(t, g.Start.Y, 0.)

	// a live arc point past the far side produces a large arc
	g = Compute(sfview.Link{FromUID: 1, ToUID: 2},
		sfview.Aux{UID: 1, X: 0, Y: 0},
		sfview.Aux{UID: 2, X: 100, Y: 0},
		&geo.Point{X: 50, Y: -120},
	)
	assert.True(t, g.LargeArc)
}

func TestComputeArcToStock(t *testing.T) {
	t.Parallel()

	g := Compute(sfview.Link{FromUID: 1, ToUID: 2, Arc: go2.Pointer(90.)},
		sfview.Aux{UID: 1, X: 0, Y: 0},
		sfview.Stock{UID: 2, X: 100, Y: 0},
		nil,
	)
	// the end lands on the stock's outline
	box := geo.RectAround(100, 0, 22.5, 17.5)
	onEdge := geo.IsZero(g.End.X-box.Left) || geo.IsZero(g.End.Y-box.Top) ||
		geo.IsZero(g.End.X-box.Right) || geo.IsZero(g.End.Y-box.Bottom)
	assert.True(t, onEdge, g.End.ToString())
	assert.InDelta(t, 50, geo.Distance(g.End, g.Circle.Center()), 1e-6)
}

func TestCircleRectIntersections(t *testing.T) {
	t.Parallel()

	pts := CircleRectIntersections(geo.Circle{X: 0, Y: 0, R: 10}, geo.RectAround(10, 0, 5, 5))
	assert.Len(t, pts, 2)
	for _, p := range pts {
		assert.InDelta(t, math.Sqrt(75), p.X, 1e-6)
	}

	assert.Empty(t, CircleRectIntersections(geo.Circle{X: 0, Y: 0, R: 10}, geo.RectAround(0, 0, 5, 5)))
}

func TestRayRectIntersection(t *testing.T) {
	t.Parallel()

	p, ok := RayRectIntersection(geo.RectAround(0, 0, 20, 10), geo.NewPoint(100, 0))
	assert.True(t, ok)
	assert.Equal(t, geo.NewPoint(20, 0), p)

	_, ok = RayRectIntersection(geo.RectAround(0, 0, 20, 10), geo.NewPoint(5, 5))
	assert.False(t, ok)
}

func TestBounds(t *testing.T) {
	t.Parallel()

	v := sfview.New(
		sfview.Aux{UID: 1, X: 0, Y: 0},
		sfview.Aux{UID: 2, X: 100, Y: 50},
	)
	b := Bounds(v, sfview.Link{FromUID: 1, ToUID: 2})
	assert.Equal(t, &geo.Rect{Top: 0, Left: 0, Right: 100, Bottom: 50}, b)
	assert.Nil(t, Bounds(v, sfview.Link{FromUID: 1, ToUID: 9}))
}

func TestArrowhead(t *testing.T) {
	t.Parallel()

	pts := Arrowhead(geo.NewPoint(10, 10), math.Pi/2, 8, 6)
	assert.Equal(t, geo.NewPoint(10, 10), pts[0])
	assert.InDelta(t, 7, pts[1].X, geo.PRECISION)
	assert.InDelta(t, 2, pts[1].Y, geo.PRECISION)
	assert.InDelta(t, 13, pts[2].X, geo.PRECISION)
	assert.InDelta(t, 2, pts[2].Y, geo.PRECISION)
}

func TestPathData(t *testing.T) {
	t.Parallel()

	g := Geometry{IsStraight: true, Start: geo.NewPoint(9, 0), End: geo.NewPoint(91, 0)}
	assert.Equal(t, "M 9 0 L 91 0", g.PathData())

	g = Geometry{Start: geo.NewPoint(0, 0), End: geo.NewPoint(10, 10), Circle: geo.Circle{R: 10}, Sweep: true}
	assert.Equal(t, "M 0 0 A 10 10 0 0 1 10 10", g.PathData())
}
