package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointDistanceTo(t *testing.T) {
	t.Parallel()

	p1 := Point{0, 0}
	p2 := Point{100, 0}

	p := Point{50, 70}

	d := p.DistanceToLine(p1, p2)

	if d != 70.0 {
		t.Fatalf("Expected 70.0 and got %v", d)
	}

	// beyond the end of the segment measures to the endpoint
	assert.Equal(t, 5.0, Point{103, 4}.DistanceToLine(p1, p2))
}

func TestProjectOntoLine(t *testing.T) {
	t.Parallel()

	p, param := Point{25, 10}.ProjectOntoLine(Point{0, 0}, Point{100, 0})
	assert.True(t, p.Equals(NewPoint(25, 0)))
	assert.Equal(t, 0.25, param)

	p, param = Point{-10, 10}.ProjectOntoLine(Point{0, 0}, Point{100, 0})
	assert.True(t, p.Equals(NewPoint(0, 0)))
	assert.Equal(t, 0.0, param)
}

func TestCross(t *testing.T) {
	t.Parallel()

	o := NewPoint(0, 0)
	a := NewPoint(10, 0)
	assert.Greater(t, o.Cross(a, NewPoint(5, 5)), 0.)
	assert.Less(t, o.Cross(a, NewPoint(5, -5)), 0.)
	assert.Equal(t, 0., o.Cross(a, NewPoint(20, 0)))
}

func TestGetOrientation(t *testing.T) {
	t.Parallel()

	o := NewPoint(0, 0)
	assert.Equal(t, Left, o.GetOrientation(NewPoint(10, 0)))
	assert.Equal(t, Right, o.GetOrientation(NewPoint(-10, 0)))
	assert.Equal(t, Top, o.GetOrientation(NewPoint(0, 10)))
	assert.Equal(t, BottomRight, o.GetOrientation(NewPoint(-3, -3)))
	assert.Equal(t, NONE, o.GetOrientation(o))
}

func TestInterpolate(t *testing.T) {
	t.Parallel()

	p := NewPoint(0, 0).Interpolate(NewPoint(10, 20), 0.5)
	assert.True(t, p.Equals(NewPoint(5, 10)))
}

func TestNormalizeAngle(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, math.Pi, NormalizeAngle(-math.Pi), PRECISION)
	assert.InDelta(t, -math.Pi/2, NormalizeAngle(3*math.Pi/2), PRECISION)
	assert.InDelta(t, 0.1, NormalizeAngle(0.1+4*math.Pi), PRECISION)
	assert.InDelta(t, 3*math.Pi/2, PositiveAngle(-math.Pi/2), PRECISION)
}

func TestIsInf(t *testing.T) {
	t.Parallel()

	assert.True(t, IsInf(math.Inf(1)))
	assert.True(t, IsInf(-3e14))
	assert.False(t, IsInf(1e6))
}
