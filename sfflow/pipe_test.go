package sfflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/sfview"
)

func TestPipeRoute(t *testing.T) {
	t.Parallel()

	t.Run("trims_clouds", func(t *testing.T) {
		t.Parallel()
		v := sfview.New(
			sfview.Cloud{UID: 1, X: 0, Y: 0, FlowUID: 3},
			sfview.Cloud{UID: 2, X: 100, Y: 0, FlowUID: 3},
			sfview.Flow{UID: 3, X: 50, Y: 0, Points: []sfview.Point{
				sfview.AttachedPoint(0, 0, 1),
				sfview.AttachedPoint(100, 0, 2),
			}},
		)
		f, err := sfview.LookupFlow(v, 3)
		assert.NoError(t, err)
		pts, err := PipeRoute(v, f)
		assert.NoError(t, err)
		assert.Equal(t, []geo.Point{{X: 13.5, Y: 0}, {X: 86.5, Y: 0}}, pts)
		// the flow itself is untouched
		assert.Equal(t, 0., f.Points[0].X)
	})

	t.Run("keeps_stock_ends", func(t *testing.T) {
		t.Parallel()
		a, b, f := straightFlow()
		pts, err := PipeRoute(sfview.New(a, b, f), f)
		assert.NoError(t, err)
		assert.Equal(t, []geo.Point{{X: 122.5, Y: 100}, {X: 277.5, Y: 100}}, pts)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		a, _, f := straightFlow()
		_, err := PipeRoute(sfview.New(a, f), f)
		assert.True(t, errors.Is(err, sfview.ErrInvariant))
	})
}
