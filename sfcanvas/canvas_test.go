package sfcanvas

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/label"
	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

type moveCall struct {
	delta        geo.Point
	arcPoint     *geo.Point
	segmentIndex *int
}

type flowCall struct {
	flow          sfview.Flow
	targetUID     int
	fauxCenter    *geo.Point
	wasInCreation bool
	isSource      bool
}

type linkCall struct {
	link      sfview.Link
	targetUID int
}

type fakeHost struct {
	selections [][]int
	moves      []moveCall
	flows      []flowCall
	links      []linkCall
	labels     map[int]label.Side
	created    []sfview.Element
	renames    [][2]string
	deletes    int
	toolClears int
	details    int
	viewBoxes  int
	viewBox    geo.Rect
	zoom       float64
}

func (h *fakeHost) SetSelection(uids []int) {
	h.selections = append(h.selections, uids)
}

func (h *fakeHost) MoveSelection(delta geo.Point, arcPoint *geo.Point, segmentIndex *int) {
	h.moves = append(h.moves, moveCall{delta, arcPoint, segmentIndex})
}

func (h *fakeHost) MoveFlow(flow sfview.Flow, targetUID int, delta geo.Point, fauxCenter *geo.Point, wasInCreation, isSourceAttach bool) {
	h.flows = append(h.flows, flowCall{flow, targetUID, fauxCenter, wasInCreation, isSourceAttach})
}

func (h *fakeHost) MoveLabel(uid int, side label.Side) {
	if h.labels == nil {
		h.labels = make(map[int]label.Side)
	}
	h.labels[uid] = side
}

func (h *fakeHost) AttachLink(link sfview.Link, newTargetUID int) {
	h.links = append(h.links, linkCall{link, newTargetUID})
}

func (h *fakeHost) CreateVariable(el sfview.Element) {
	h.created = append(h.created, el)
}

func (h *fakeHost) RenameVariable(oldName, newName string) {
	h.renames = append(h.renames, [2]string{oldName, newName})
}

func (h *fakeHost) DeleteSelection() {
	h.deletes++
}

func (h *fakeHost) ClearSelectedTool() {
	h.toolClears++
}

func (h *fakeHost) ShowVariableDetails() {
	h.details++
}

func (h *fakeHost) ViewBoxChange(viewBox geo.Rect, zoom float64) {
	h.viewBoxes++
	h.viewBox = viewBox
	h.zoom = zoom
}

var t0 = time.Unix(1700000000, 0)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func mouse(x, y float64, ms int) PointerEvent {
	return PointerEvent{ID: 1, Type: PointerMouse, X: x, Y: y, Time: at(ms)}
}

func touch(id int, x, y float64, ms int) PointerEvent {
	return PointerEvent{ID: id, Type: PointerTouch, X: x, Y: y, Time: at(ms)}
}

func newCanvas(t *testing.T, v *sfview.View, selection ...int) (*Canvas, *fakeHost, *ManualScheduler) {
	ctx := log.WithTB(context.Background(), t, nil)
	h := &fakeHost{}
	sched := &ManualScheduler{}
	c := New(ctx, h, sched)
	c.SetProps(Props{View: v, Version: 1, Selection: selection})
	return c, h, sched
}

func TestPinchZoomKeepsModelPointFixed(t *testing.T) {
	t.Parallel()

	c, h, _ := newCanvas(t, sfview.New())
	c.SetSize(800, 600)

	c.PointerDown(touch(1, 0, 50, 0))
	c.PointerDown(touch(2, 100, 50, 5))
	assert.Equal(t, StatePinching, c.State())

	c.PointerMove(touch(1, -50, 50, 10))
	c.PointerMove(touch(2, 150, 50, 15))

	vp := c.Viewport()
	assert.InDelta(t, 2, vp.Zoom, geo.PRECISION)
	assert.InDelta(t, -25, vp.Offset.X, geo.PRECISION)
	assert.InDelta(t, -25, vp.Offset.Y, geo.PRECISION)
	p := vp.ToScreen(geo.NewPoint(50, 50))
	assert.InDelta(t, 50, p.X, geo.PRECISION)
	assert.InDelta(t, 50, p.Y, geo.PRECISION)
	assert.InDelta(t, 2, h.zoom, geo.PRECISION)

	c.PointerUp(touch(2, 150, 50, 20))
	assert.Equal(t, StateIdle, c.State())
}

func TestPinchClampsZoom(t *testing.T) {
	t.Parallel()

	c, _, _ := newCanvas(t, sfview.New())
	c.PointerDown(touch(1, 0, 0, 0))
	c.PointerDown(touch(2, 100, 0, 0))
	c.PointerMove(touch(2, 10000, 0, 10))
	assert.Equal(t, MaxZoom, c.Viewport().Zoom)
	c.PointerMove(touch(2, 1, 0, 20))
	assert.Equal(t, MinZoom, c.Viewport().Zoom)
}

func TestMomentum(t *testing.T) {
	t.Parallel()

	t.Run("stationary_release", func(t *testing.T) {
		t.Parallel()
		c, _, sched := newCanvas(t, sfview.New())

		c.PointerDown(mouse(100, 100, 0))
		c.PointerMove(mouse(150, 100, 50))
		c.PointerMove(mouse(150, 100, 60))
		c.PointerUp(mouse(150, 100, 110))

		assert.Equal(t, 0, sched.Pending())
		assert.Equal(t, 0, sched.Flush(at(200)))
		assert.Equal(t, geo.NewPoint(50, 0), c.Viewport().Offset)
	})

	t.Run("flick", func(t *testing.T) {
		t.Parallel()
		c, _, sched := newCanvas(t, sfview.New())

		c.PointerDown(mouse(100, 100, 0))
		c.PointerMove(mouse(150, 100, 50))
		c.PointerUp(mouse(150, 100, 60))

		assert.Equal(t, 1, sched.Pending())
		assert.Equal(t, 1, sched.Flush(at(560)))
		x1 := c.Viewport().Offset.X
		assert.Greater(t, x1, 50.)
		assert.Equal(t, 0., c.Viewport().Offset.Y)

		assert.Equal(t, 1, sched.Flush(at(1060)))
		assert.Greater(t, c.Viewport().Offset.X, x1)

		// position is a function of elapsed time alone
		c2, _, sched2 := newCanvas(t, sfview.New())
		c2.PointerDown(mouse(100, 100, 0))
		c2.PointerMove(mouse(150, 100, 50))
		c2.PointerUp(mouse(150, 100, 60))
		sched2.Flush(at(1060))
		assert.InDelta(t, c.Viewport().Offset.X, c2.Viewport().Offset.X, geo.PRECISION)
	})

	t.Run("cancelled_by_new_gesture", func(t *testing.T) {
		t.Parallel()
		c, _, sched := newCanvas(t, sfview.New())

		c.PointerDown(mouse(100, 100, 0))
		c.PointerMove(mouse(150, 100, 50))
		c.PointerUp(mouse(150, 100, 60))
		assert.Equal(t, 1, sched.Pending())

		c.PointerDown(mouse(10, 10, 100))
		assert.Equal(t, 0, sched.Pending())
	})

	t.Run("stops", func(t *testing.T) {
		t.Parallel()
		c, _, sched := newCanvas(t, sfview.New())

		c.PointerDown(mouse(100, 100, 0))
		c.PointerMove(mouse(150, 100, 50))
		c.PointerUp(mouse(150, 100, 60))
		for i := 1; i < 100 && sched.Pending() > 0; i++ {
			sched.Flush(at(60 + i*500))
		}
		assert.Equal(t, 0, sched.Pending())
	})
}

func TestWheel(t *testing.T) {
	t.Parallel()

	c, h, _ := newCanvas(t, sfview.New())
	c.SetSize(400, 300)

	c.Wheel(WheelEvent{DeltaX: 10, DeltaY: 20})
	assert.Equal(t, geo.NewPoint(-10, -20), c.Viewport().Offset)

	m := c.Viewport().ToModel(geo.NewPoint(200, 150))
	c.Wheel(WheelEvent{X: 200, Y: 150, DeltaY: -100, Ctrl: true})
	vp := c.Viewport()
	assert.Greater(t, vp.Zoom, 1.)
	p := vp.ToScreen(m)
	assert.InDelta(t, 200, p.X, geo.PRECISION)
	assert.InDelta(t, 150, p.Y, geo.PRECISION)
	assert.Equal(t, vp.ViewBox(), h.viewBox)
	assert.InDelta(t, 400/vp.Zoom, h.viewBox.Width(), geo.PRECISION)
}

func linkView() *sfview.View {
	return sfview.New(
		sfview.Aux{UID: 1, X: 0, Y: 0, Name: "x"},
		sfview.Aux{UID: 2, X: 100, Y: 0, Name: "y"},
		sfview.Link{UID: 3, FromUID: 1, ToUID: 2},
		sfview.Aux{UID: 4, X: 0, Y: 100, Name: "z"},
		sfview.Stock{UID: 5, X: 200, Y: 200, Name: "s"},
	)
}

func TestIsValidTarget(t *testing.T) {
	t.Parallel()

	v := linkView()
	draft := sfview.Link{UID: sfview.InCreationUID, FromUID: 1, ToUID: sfview.FauxTargetUID}
	get := func(uid int) sfview.Element {
		el, _ := v.Get(uid)
		return el
	}

	assert.False(t, IsValidTarget(v, draft, false, get(2)), "duplicate")
	assert.False(t, IsValidTarget(v, draft, false, get(1)), "own source")
	assert.False(t, IsValidTarget(v, draft, false, get(5)), "stock")
	assert.False(t, IsValidTarget(v, draft, false, nil))
	assert.True(t, IsValidTarget(v, draft, false, get(4)))

	existing := get(3).(sfview.Link)
	assert.True(t, IsValidTarget(v, existing, false, get(4)))
	assert.True(t, IsValidTarget(v, existing, true, get(4)))
	assert.True(t, IsValidTarget(v, existing, true, get(5)), "stocks may be sources")
	assert.False(t, IsValidTarget(v, existing, true, get(2)), "self link")

	f := sfview.Flow{UID: 9, Points: []sfview.Point{
		sfview.AttachedPoint(100, 200, 10),
		sfview.AttachedPoint(150, 200, 11),
	}}
	assert.True(t, IsValidTarget(v, f, false, get(5)))
	assert.False(t, IsValidTarget(v, f, false, get(4)), "flows attach to stocks only")
	f.Points[0] = sfview.AttachedPoint(100, 260, 10)
	f.Points[1] = sfview.AttachedPoint(150, 260, 11)
	assert.False(t, IsValidTarget(v, f, false, get(5)), "misaligned")
}

func TestCreateLink(t *testing.T) {
	t.Parallel()

	t.Run("duplicate_is_dropped", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, linkView())
		c.SetProps(Props{View: c.props.View, Version: 1, Tool: ToolLink})

		c.PointerDown(mouse(0, 0, 0))
		assert.Equal(t, StateCreatingElement, c.State())
		c.PointerMove(mouse(100, 0, 10))
		_, ok := c.Target()
		assert.False(t, ok)
		c.PointerUp(mouse(100, 0, 20))

		assert.Empty(t, h.links)
		assert.Equal(t, 0, h.deletes)
		assert.Equal(t, StateIdle, c.State())
	})

	t.Run("attaches", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, linkView())
		c.SetProps(Props{View: c.props.View, Version: 1, Tool: ToolLink})

		c.PointerDown(mouse(0, 0, 0))
		c.PointerMove(mouse(2, 98, 10))
		uid, ok := c.Target()
		assert.True(t, ok)
		assert.Equal(t, 4, uid)

		faux, ok := c.Snapshot().Get(sfview.FauxTargetUID)
		assert.True(t, ok)
		assert.Equal(t, geo.NewPoint(0, 100), faux.GetCenter())

		c.PointerUp(mouse(2, 98, 20))
		if assert.Len(t, h.links, 1) {
			assert.Equal(t, 1, h.links[0].link.FromUID)
			assert.Equal(t, sfview.InCreationUID, h.links[0].link.UID)
			assert.Equal(t, 4, h.links[0].targetUID)
		}
		assert.Equal(t, 1, h.toolClears)
		_, ok = c.Snapshot().Get(sfview.FauxTargetUID)
		assert.False(t, ok)
	})
}

func TestDeferredSingleSelect(t *testing.T) {
	t.Parallel()

	t.Run("click_collapses", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, linkView(), 1, 2)

		c.PointerDown(mouse(0, 0, 0))
		assert.Empty(t, h.selections)
		c.PointerUp(mouse(0, 0, 10))
		assert.Equal(t, [][]int{{1}}, h.selections)
		assert.Empty(t, h.moves)
	})

	t.Run("drag_moves_group", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, linkView(), 1, 2)

		c.PointerDown(mouse(0, 0, 0))
		c.PointerMove(mouse(10, 5, 10))
		snap := c.Snapshot()
		y, _ := snap.Get(2)
		assert.Equal(t, geo.NewPoint(110, 5), y.GetCenter())

		c.PointerUp(mouse(10, 5, 20))
		assert.Empty(t, h.selections)
		if assert.Len(t, h.moves, 1) {
			assert.Equal(t, geo.NewPoint(10, 5), h.moves[0].delta)
			assert.Nil(t, h.moves[0].segmentIndex)
		}
		assert.Equal(t, []int{1, 2}, c.Selection())
	})

	t.Run("shift_toggles", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, linkView(), 1)

		ev := mouse(100, 0, 0)
		ev.Shift = true
		c.PointerDown(ev)
		assert.Equal(t, [][]int{{1, 2}}, h.selections)
		c.PointerUp(ev)

		ev = mouse(0, 0, 10)
		ev.Shift = true
		c.PointerDown(ev)
		c.PointerUp(ev)
		assert.Equal(t, []int{2}, c.Selection())
	})
}

func TestDragSelect(t *testing.T) {
	t.Parallel()

	c, h, _ := newCanvas(t, linkView())

	ev := mouse(-20, -20, 0)
	ev.Shift = true
	c.PointerDown(ev)
	assert.Equal(t, StateDragSelecting, c.State())
	c.PointerMove(PointerEvent{ID: 1, X: 95, Y: 5, Shift: true, Time: at(10)})
	r, ok := c.SelectRect()
	assert.True(t, ok)
	assert.Equal(t, geo.NewRect(geo.NewPoint(-20, -20), geo.NewPoint(95, 5)), r)
	c.PointerUp(PointerEvent{ID: 1, X: 95, Y: 5, Shift: true, Time: at(20)})

	// y's center is outside but the rect pokes into its circle
	assert.Equal(t, [][]int{{1, 2}}, h.selections)
	_, ok = c.SelectRect()
	assert.False(t, ok)
}

func TestBackgroundClickClearsSelection(t *testing.T) {
	t.Parallel()

	c, h, _ := newCanvas(t, linkView(), 1)
	c.PointerDown(mouse(500, 500, 0))
	assert.Equal(t, StatePanningCanvas, c.State())
	c.PointerUp(mouse(500, 500, 10))
	assert.Equal(t, [][]int{nil}, h.selections)
}

func pen(x, y float64, ms int) PointerEvent {
	return PointerEvent{ID: 1, Type: PointerPen, X: x, Y: y, Time: at(ms)}
}

func TestDragSelectIsLive(t *testing.T) {
	t.Parallel()

	t.Run("release_commits", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, flowView(), 4)

		c.PointerDown(pen(50, 50, 0))
		c.PointerMove(pen(350, 150, 10))
		assert.Equal(t, []int{1, 2, 3}, c.Selection())
		assert.Empty(t, h.selections)

		// hosts resync props after every event
		c.SetProps(Props{View: c.props.View, Version: 1, Selection: []int{4}})
		assert.Equal(t, StateDragSelecting, c.State())
		assert.Equal(t, []int{1, 2, 3}, c.Selection())

		c.PointerUp(pen(350, 150, 20))
		assert.Equal(t, [][]int{{1, 2, 3}}, h.selections)
	})

	t.Run("cancel_keeps_host_selection", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, flowView(), 4)

		c.PointerDown(pen(50, 50, 0))
		c.PointerMove(pen(350, 150, 10))
		c.PointerCancel(pen(350, 150, 20))

		assert.Equal(t, StateIdle, c.State())
		assert.Equal(t, []int{4}, c.Selection())
		assert.Empty(t, h.selections)
		_, ok := c.SelectRect()
		assert.False(t, ok)

		c.KeyDown("Delete")
		assert.Equal(t, 1, h.deletes)
		assert.Equal(t, []int{4}, c.Selection())
	})

	t.Run("pinch_interrupts", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, flowView(), 4)

		ev := touch(1, 50, 50, 0)
		ev.Shift = true
		c.PointerDown(ev)
		ev = touch(1, 350, 150, 10)
		ev.Shift = true
		c.PointerMove(ev)
		assert.Equal(t, []int{4, 1, 2, 3}, c.Selection())

		c.PointerDown(touch(2, 400, 300, 20))
		assert.Equal(t, StatePinching, c.State())
		assert.Equal(t, []int{4}, c.Selection())
		assert.Empty(t, h.selections)
	})
}

func TestBackgroundTapClearsSelection(t *testing.T) {
	t.Parallel()

	for _, ev := range []func(x, y float64, ms int) PointerEvent{
		func(x, y float64, ms int) PointerEvent { return touch(1, x, y, ms) },
		pen,
	} {
		ev := ev
		c, h, sched := newCanvas(t, linkView(), 1)
		c.PointerDown(ev(500, 500, 0))
		c.PointerUp(ev(500, 500, 10))
		assert.Equal(t, [][]int{nil}, h.selections)
		assert.Equal(t, 0, sched.Pending())
		assert.Equal(t, StateIdle, c.State())
	}
}

func flowView() *sfview.View {
	return sfview.New(
		sfview.Stock{UID: 1, X: 100, Y: 100, Name: "a", Outflows: []int{3}},
		sfview.Stock{UID: 2, X: 300, Y: 100, Name: "b", Inflows: []int{3}},
		sfview.Flow{UID: 3, X: 200, Y: 100, Name: "f", Points: []sfview.Point{
			sfview.AttachedPoint(122.5, 100, 1),
			sfview.AttachedPoint(277.5, 100, 2),
		}},
		sfview.Stock{UID: 4, X: 600, Y: 400, Name: "c"},
	)
}

func TestCreateFlow(t *testing.T) {
	t.Parallel()

	t.Run("zero_distance_is_discarded", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, flowView())
		c.SetProps(Props{View: c.props.View, Version: 1, Tool: ToolFlow})

		c.PointerDown(mouse(400, 250, 0))
		c.PointerUp(mouse(400, 250, 10))
		assert.Empty(t, h.flows)
		assert.Equal(t, 1, h.toolClears)
		for _, el := range c.Snapshot().Elements() {
			assert.Greater(t, el.GetUID(), 0)
		}
	})

	t.Run("cloud_to_cloud", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, flowView())
		c.SetProps(Props{View: c.props.View, Version: 1, Tool: ToolFlow})

		c.PointerDown(mouse(400, 250, 0))
		c.PointerMove(mouse(480, 260, 10))
		_, ok := c.Snapshot().Get(sfview.InCreationCloudUID)
		assert.True(t, ok)
		c.PointerUp(mouse(480, 260, 20))

		if assert.Len(t, h.flows, 1) {
			call := h.flows[0]
			assert.Equal(t, 0, call.targetUID)
			assert.True(t, call.wasInCreation)
			assert.False(t, call.isSource)
			assert.Equal(t, &geo.Point{X: 480, Y: 250}, call.fauxCenter)
			assert.True(t, call.flow.Points[0].IsAttachedTo(sfview.InCreationCloudUID))
			assert.Equal(t, geo.NewPoint(480, 250), call.flow.Points[1].Geo())
		}
	})

	t.Run("stock_to_stock", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, flowView())
		c.SetProps(Props{View: c.props.View, Version: 1, Tool: ToolFlow})

		c.PointerDown(mouse(300, 400, 0))
		c.PointerMove(mouse(600, 405, 10))
		uid, ok := c.Target()
		assert.True(t, ok)
		assert.Equal(t, 4, uid)
		c.PointerUp(mouse(600, 405, 20))

		if assert.Len(t, h.flows, 1) {
			call := h.flows[0]
			assert.Equal(t, 4, call.targetUID)
			assert.Nil(t, call.fauxCenter)
			assert.Equal(t, geo.NewPoint(600-sfshape.StockWidth/2, 400), call.flow.Points[1].Geo())
			assert.True(t, call.flow.Points[1].IsAttachedTo(4))
		}
	})

	t.Run("from_stock", func(t *testing.T) {
		t.Parallel()
		c, h, _ := newCanvas(t, flowView())
		c.SetProps(Props{View: c.props.View, Version: 1, Tool: ToolFlow})

		c.PointerDown(mouse(600, 400, 0))
		c.PointerMove(mouse(600, 520, 10))
		c.PointerUp(mouse(600, 520, 20))

		if assert.Len(t, h.flows, 1) {
			f := h.flows[0].flow
			assert.True(t, f.Points[0].IsAttachedTo(4))
			assert.Equal(t, geo.NewPoint(600, 400+sfshape.StockHeight/2), f.Points[0].Geo())
			assert.Equal(t, geo.NewPoint(600, 520), f.Points[1].Geo())
		}
	})
}

func TestDragStockReroutesFlow(t *testing.T) {
	t.Parallel()

	c, h, _ := newCanvas(t, flowView())
	c.PointerDown(mouse(300, 100, 0))
	assert.Equal(t, [][]int{{2}}, h.selections)
	c.PointerMove(mouse(300, 400, 10))

	f, _ := c.Snapshot().Get(3)
	pts := f.(sfview.Flow).Points
	if assert.Len(t, pts, 3) {
		assert.Equal(t, geo.NewPoint(300, 100), pts[1].Geo())
	}
	c.PointerUp(mouse(300, 400, 20))
	if assert.Len(t, h.moves, 1) {
		assert.Equal(t, geo.NewPoint(0, 300), h.moves[0].delta)
	}
}

func TestDragFlowEndDetaches(t *testing.T) {
	t.Parallel()

	c, h, _ := newCanvas(t, flowView(), 3)
	c.PointerDown(mouse(277.5, 100, 0))
	c.PointerMove(mouse(250, 100, 10))
	faux, ok := c.Snapshot().Get(sfview.FauxCloudTargetUID)
	assert.True(t, ok)
	assert.True(t, faux.ZeroRadius())
	c.PointerUp(mouse(250, 100, 20))

	if assert.Len(t, h.flows, 1) {
		call := h.flows[0]
		assert.Equal(t, 0, call.targetUID)
		assert.False(t, call.wasInCreation)
		assert.Equal(t, &geo.Point{X: 250, Y: 100}, call.fauxCenter)
	}
}

func TestLabelDrag(t *testing.T) {
	t.Parallel()

	v := linkView()
	c, h, _ := newCanvas(t, v)
	x, _ := v.Get(1)
	lb, ok := sfshape.LabelBounds(x)
	assert.True(t, ok)

	down := lb.Center()
	c.PointerDown(mouse(down.X, down.Y, 0))
	c.PointerMove(mouse(-50, 0, 10))
	moved, _ := c.Snapshot().Get(1)
	assert.Equal(t, label.Left, moved.(sfview.Aux).LabelSide)
	c.PointerUp(mouse(-50, 0, 20))

	assert.Equal(t, map[int]label.Side{1: label.Left}, h.labels)
}

func TestCreateStockAndName(t *testing.T) {
	t.Parallel()

	v := flowView()
	c, h, _ := newCanvas(t, v)
	c.SetProps(Props{View: v, Version: 1, Tool: ToolStock})

	c.PointerDown(mouse(500, 100, 0))
	c.PointerUp(mouse(500, 100, 10))
	if assert.Len(t, h.created, 1) {
		assert.Equal(t, geo.NewPoint(500, 100), h.created[0].GetCenter())
	}
	assert.Equal(t, StateEditingName, c.State())

	v2 := v.Copy()
	v2.Put(sfview.Stock{UID: 7, X: 500, Y: 100, Name: "New Stock 2"})
	c.SetProps(Props{View: v2, Version: 2, Selection: []int{7}})

	edit, ok := c.NameEdit()
	assert.True(t, ok)
	assert.Equal(t, 7, edit.UID)
	assert.Equal(t, "New Stock 2", edit.Name)
	assert.InDelta(t, 500, edit.Rect.Center().X, geo.PRECISION)
	assert.Greater(t, edit.Rect.Top, 100.)

	c.KeyDown("Delete")
	assert.Equal(t, 0, h.deletes)

	c.CommitName("Population")
	assert.Equal(t, [][2]string{{"New Stock 2", "Population"}}, h.renames)
	assert.Equal(t, StateIdle, c.State())

	c.KeyDown("Delete")
	assert.Equal(t, 1, h.deletes)
}

func TestNameEditScalesWithZoom(t *testing.T) {
	t.Parallel()

	v := linkView()
	c, _, _ := newCanvas(t, v)
	c.SetViewport(Viewport{Zoom: 2, Width: 400, Height: 400})
	x, _ := v.Get(1)
	lb, _ := sfshape.LabelBounds(x)

	p := c.Viewport().ToScreen(lb.Center())
	c.DoubleClick(mouse(p.X, p.Y, 0))
	assert.Equal(t, StateEditingName, c.State())
	edit, ok := c.NameEdit()
	assert.True(t, ok)
	assert.InDelta(t, lb.Width()*2, edit.Rect.Width(), geo.PRECISION)
	assert.InDelta(t, lb.Height()*2, edit.Rect.Height(), geo.PRECISION)

	c.KeyDown("Escape")
	assert.Equal(t, StateIdle, c.State())
}

func TestPointerCancelDiscardsDraft(t *testing.T) {
	t.Parallel()

	c, h, _ := newCanvas(t, flowView())
	c.SetProps(Props{View: c.props.View, Version: 1, Tool: ToolFlow})
	c.PointerDown(mouse(400, 250, 0))
	c.PointerMove(mouse(480, 250, 10))
	c.PointerCancel(mouse(480, 250, 20))

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, h.flows)
	_, ok := c.Snapshot().Get(sfview.InCreationUID)
	assert.False(t, ok)
}

func TestSceneCache(t *testing.T) {
	t.Parallel()

	v := linkView()
	c, _, _ := newCanvas(t, v)
	c.Snapshot()
	c.Snapshot()
	assert.Equal(t, 1, c.scene.builds)

	c.SetProps(Props{View: v, Version: 1})
	c.Snapshot()
	assert.Equal(t, 1, c.scene.builds)

	v2 := v.Copy()
	v2.Delete(4)
	c.SetProps(Props{View: v2, Version: 2})
	_, ok := c.Snapshot().Get(4)
	assert.False(t, ok)
	assert.Equal(t, 2, c.scene.builds)
}
