package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentIntersections(t *testing.T) {
	t.Parallel()

	// mid intersection
	s1 := NewSegment(NewPoint(0, 0), NewPoint(10, 10))
	s2 := NewSegment(NewPoint(0, 10), NewPoint(10, 0))
	intersections := s1.Intersections(s2)
	assert.Equal(t, len(intersections), 1)
	assert.True(t, intersections[0].Equals(NewPoint(5, 5)))

	// intersection at the end
	s3 := NewSegment(NewPoint(10, 10), NewPoint(10, 0))
	intersections = s1.Intersections(s3)
	assert.Equal(t, len(intersections), 1)
	assert.True(t, intersections[0].Equals(NewPoint(10, 10)))

	// intersection at the beginning
	s4 := NewSegment(NewPoint(0, 0), NewPoint(0, 10))
	intersections = s1.Intersections(s4)
	assert.Equal(t, len(intersections), 1)
	assert.True(t, intersections[0].Equals(NewPoint(0, 0)))

	// no intersection
	s5 := NewSegment(NewPoint(3, 8), NewPoint(2, 15))
	intersections = s1.Intersections(s5)
	assert.Equal(t, len(intersections), 0)
}

func TestSegmentDistanceToPoint(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		seg  Segment
		p    Point
		exp  float64
	}{
		{"horizontal_above", NewSegment(NewPoint(0, 0), NewPoint(100, 0)), NewPoint(40, -3), 3},
		{"horizontal_reversed", NewSegment(NewPoint(100, 0), NewPoint(0, 0)), NewPoint(40, 4), 4},
		{"horizontal_past_end", NewSegment(NewPoint(0, 0), NewPoint(100, 0)), NewPoint(103, 4), 5},
		{"vertical_left", NewSegment(NewPoint(10, 0), NewPoint(10, 50)), NewPoint(4, 25), 6},
		{"point_segment", NewSegment(NewPoint(1, 1), NewPoint(1, 1)), NewPoint(4, 5), 5},
		{"diagonal", NewSegment(NewPoint(0, 0), NewPoint(10, 10)), NewPoint(10, 0), 7.0710678118654755},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.exp, tc.seg.DistanceToPoint(tc.p), PRECISION)
		})
	}
}

func TestRouteOrthogonal(t *testing.T) {
	t.Parallel()

	r := Route{NewPoint(0, 0), NewPoint(10, 0), NewPoint(10, 30)}
	assert.True(t, r.IsOrthogonal())
	assert.Equal(t, 40.0, r.Length())
	assert.Len(t, r.Segments(), 2)
	assert.True(t, r.Midpoint().Equals(NewPoint(10, 10)))

	r = append(r, NewPoint(20, 40))
	assert.False(t, r.IsOrthogonal())
}
