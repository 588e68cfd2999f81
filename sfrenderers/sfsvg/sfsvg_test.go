package sfsvg_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/diff"

	"oss.terrastruct.com/stockflow/lib/color"
	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/go2"
	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/sfrenderers/sfsvg"
	"oss.terrastruct.com/stockflow/sfview"
)

func pipeline() *sfview.View {
	return sfview.New(
		sfview.Stock{UID: 1, X: 100, Y: 100, Outflows: []int{3}},
		sfview.Stock{UID: 2, X: 300, Y: 100, Inflows: []int{3}},
		sfview.Flow{UID: 3, X: 200, Y: 100, Points: []sfview.Point{
			sfview.AttachedPoint(122.5, 100, 1),
			sfview.AttachedPoint(277.5, 100, 2),
		}},
	)
}

func render(t *testing.T, r sfview.Reader, opts *sfsvg.RenderOpts) string {
	t.Helper()
	ctx := log.WithTB(context.Background(), t, nil)
	out, err := sfsvg.Render(ctx, r, opts)
	assert.NoError(t, err)
	return string(out)
}

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		out := render(t, sfview.New(), &sfsvg.RenderOpts{NoXMLTag: go2.Pointer(true)})
		assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" viewBox="-20 -20 40 40">`), out)
		assert.True(t, strings.HasSuffix(out, `</svg>`))
	})

	t.Run("stock_with_label", func(t *testing.T) {
		t.Parallel()
		v := sfview.New(sfview.Stock{UID: 1, X: 100, Y: 100, Name: "Population"})
		out := render(t, v, nil)
		assert.True(t, strings.HasPrefix(out, `<?xml`))
		assert.Contains(t, out, `viewBox="50 62.5 100 92"`)
		assert.Contains(t, out, `<rect class="sf-stock" x="77.5" y="82.5" width="45" height="35" fill="#ffffff" stroke="#1f1f1f" stroke-width="1" />`)
		assert.Contains(t, out, `<text class="sf-label" x="100" y="131.5" text-anchor="middle" fill="#1f1f1f">Population</text>`)
	})

	t.Run("view_box", func(t *testing.T) {
		t.Parallel()
		v := sfview.New(sfview.Stock{UID: 1, X: 100, Y: 100, Name: "Population"})
		out := render(t, v, &sfsvg.RenderOpts{ViewBox: &geo.Rect{Top: 0, Left: 10, Right: 810, Bottom: 600}})
		assert.Contains(t, out, `viewBox="10 0 800 600"`)
	})

	t.Run("multiline_label", func(t *testing.T) {
		t.Parallel()
		v := sfview.New(sfview.Aux{UID: 1, X: 0, Y: 0, Name: "birth\nrate"})
		out := render(t, v, nil)
		assert.Contains(t, out, `<tspan x="0" dy="0">birth</tspan><tspan x="0" dy="14">rate</tspan>`)
	})

	t.Run("pipe", func(t *testing.T) {
		t.Parallel()
		out := render(t, pipeline(), nil)
		assert.Contains(t, out, `<path class="sf-pipe" d="M 122.5 100 H 269.5" stroke="#ffffff" stroke-width="4" />`)
		assert.Contains(t, out, `<circle class="sf-valve" cx="200" cy="100" r="9"`)
		// pipes come before stocks, valves after
		assert.Less(t, strings.Index(out, "sf-pipe"), strings.Index(out, "sf-stock"))
		assert.Less(t, strings.Index(out, "sf-stock"), strings.Index(out, "sf-valve"))
	})

	t.Run("skips_broken_flow", func(t *testing.T) {
		t.Parallel()
		v := pipeline()
		v.Put(sfview.Flow{UID: 4, X: 0, Y: 0, Points: []sfview.Point{
			sfview.AttachedPoint(0, 0, 1),
			sfview.NewPoint(0, 50),
		}})
		out := render(t, v, nil)
		assert.Equal(t, 1, strings.Count(out, `class="sf-valve"`))
		assert.Equal(t, 2, strings.Count(out, `class="sf-stock"`))
	})

	t.Run("skips_dangling_link", func(t *testing.T) {
		t.Parallel()
		v := pipeline()
		v.Put(sfview.Link{UID: 5, FromUID: 1, ToUID: 99})
		out := render(t, v, nil)
		assert.NotContains(t, out, `class="sf-link`)
	})

	t.Run("link", func(t *testing.T) {
		t.Parallel()
		v := sfview.New(
			sfview.Aux{UID: 1, X: 0, Y: 0},
			sfview.Aux{UID: 2, X: 100, Y: 0},
			sfview.Link{UID: 3, FromUID: 1, ToUID: 2},
		)
		out := render(t, v, nil)
		assert.Contains(t, out, `<path class="sf-link" d="M 9 0 L 91 0" stroke="#1f1f1f" stroke-width="1" />`)
		assert.Contains(t, out, `<path class="sf-arrowhead" d="M 91 0 L 83 3 L 83 -3 Z" fill="#1f1f1f" />`)
	})

	t.Run("selection_and_target", func(t *testing.T) {
		t.Parallel()
		out := render(t, pipeline(), &sfsvg.RenderOpts{
			Selection: []int{1},
			Target:    go2.Pointer(2),
		})
		assert.Contains(t, out, `stroke="`+color.Selection+`" stroke-width="2"`)
		assert.Contains(t, out, `stroke="`+color.Highlight+`" stroke-width="1"`)
	})

	t.Run("marquee", func(t *testing.T) {
		t.Parallel()
		out := render(t, pipeline(), &sfsvg.RenderOpts{
			SelectRect: &geo.Rect{Top: 0, Left: 0, Right: 50, Bottom: 40},
		})
		assert.True(t, strings.HasSuffix(out, `<rect class="sf-marquee" x="0" y="0" width="50" height="40" fill="rgba(69, 115, 196, 0.15)" stroke="#4573c4" /></svg>`))
	})

	t.Run("sparkline", func(t *testing.T) {
		t.Parallel()
		v := sfview.New(sfview.Aux{UID: 1, X: 0, Y: 0, Name: "rate"})
		out := render(t, v, &sfsvg.RenderOpts{
			Series: map[string][]float64{"rate": {0, 10, 5}},
		})
		assert.Contains(t, out, `<path class="sf-spark" d="M -5.4 5.4 L 0 -5.4 L 5.4 0"`)
	})

	t.Run("scale", func(t *testing.T) {
		t.Parallel()
		out := render(t, sfview.New(), &sfsvg.RenderOpts{Scale: go2.Pointer(2.)})
		assert.Contains(t, out, `width="80" height="80"`)
	})
}

func TestViewBox(t *testing.T) {
	t.Parallel()

	vb := sfsvg.ViewBox(pipeline(), 0)
	diff.AssertStringEq(t, "{Top: 82.5, Left: 77.5, Right: 322.5, Bottom: 117.5}", vb.ToString())
}
