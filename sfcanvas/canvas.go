package sfcanvas

import (
	"context"
	"time"

	"cdr.dev/slog"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/go2"
	"oss.terrastruct.com/stockflow/lib/label"
	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/sfflow"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

type State int

const (
	StateIdle State = iota
	StateCreatingElement
	StateDraggingSelection
	StateDragSelecting
	StatePanningCanvas
	StatePinching
	StateEditingName
)

func (s State) String() string {
	switch s {
	case StateCreatingElement:
		return "creating"
	case StateDraggingSelection:
		return "dragging"
	case StateDragSelecting:
		return "drag-selecting"
	case StatePanningCanvas:
		return "panning"
	case StatePinching:
		return "pinching"
	case StateEditingName:
		return "editing-name"
	}
	return "idle"
}

type dragMode int

const (
	dragNone dragMode = iota
	dragMove
	dragLabel
	dragFlowEnd
	dragLinkEnd
	dragDraft
)

// Default names for new elements. Hosts make them unique.
const (
	NewStockName = "New Stock"
	NewFlowName  = "New Flow"
	NewAuxName   = "New Variable"
)

// Canvas is the controller for one diagram surface. It is not safe for
// concurrent use; callers serialize events and scheduler frames.
type Canvas struct {
	ctx   context.Context
	host  Host
	sched Scheduler

	props     Props
	scene     scene
	selection []int
	vp        Viewport

	state   State
	pointer int
	touches map[int]geo.Point

	downScreen geo.Point
	downModel  geo.Point
	downOffset geo.Point
	moved      bool
	// deferred collapses a multi-selection to this element on release
	// unless the pointer moved.
	deferred int

	mode         dragMode
	delta        geo.Point
	bending      bool
	arcPoint     *geo.Point
	segmentIndex *int
	labelUID     int
	labelSide    label.Side

	// Connector end drags. The base values are the state at pointer down.
	endFlow     sfview.Flow
	endIndex    int
	endBase     geo.Point
	endLink     sfview.Link
	isSource    bool
	inCreation  bool
	sourceStock *sfview.Stock
	sourceCloud *sfview.Cloud
	target      int
	fauxCenter  geo.Point

	draft sfview.Element

	overlay    sfview.Overlay
	selectRect *geo.Rect
	selectBase []int
	// dragSelection is the live result of a drag-select. It reaches the
	// host only on release.
	dragSelection []int

	pinch    pinch
	pinchIDs [2]int
	vt       velocityTracker
	mom      momentum
	frame    FrameHandle

	editing *nameEdit
}

type nameEdit struct {
	uid  int
	name string
	el   sfview.Element
}

func New(ctx context.Context, host Host, sched Scheduler) *Canvas {
	return &Canvas{
		ctx:     log.Named(ctx, "canvas"),
		host:    host,
		sched:   sched,
		vp:      DefaultViewport(),
		touches: make(map[int]geo.Point),
		pointer: -1,
	}
}

// SetProps replaces the host state the canvas reads from.
func (c *Canvas) SetProps(p Props) {
	c.props = p
	c.selection = append([]int(nil), p.Selection...)
	if c.editing != nil && c.editing.uid == sfview.InCreationUID && len(c.selection) == 1 {
		if el, ok := c.view().Get(c.selection[0]); ok {
			if named, ok := el.(sfview.Named); ok {
				c.editing = &nameEdit{uid: el.GetUID(), name: named.GetName(), el: el}
			}
		}
	}
}

func (c *Canvas) Props() Props {
	return c.props
}

func (c *Canvas) State() State {
	return c.state
}

// Selection is the host selection, or the live drag-select result while a
// selection rectangle is being drawn.
func (c *Canvas) Selection() []int {
	if c.state == StateDragSelecting && c.selectRect != nil {
		return append([]int(nil), c.dragSelection...)
	}
	return append([]int(nil), c.selection...)
}

func (c *Canvas) Viewport() Viewport {
	return c.vp
}

func (c *Canvas) SetViewport(vp Viewport) {
	vp.Zoom = ClampZoom(vp.Zoom)
	c.vp = vp
	c.notifyViewBox()
}

// SetSize sets the client size in screen pixels.
func (c *Canvas) SetSize(width, height float64) {
	c.vp.Width = width
	c.vp.Height = height
	c.notifyViewBox()
}

// SelectRect is the live drag-select rect in model coordinates.
func (c *Canvas) SelectRect() (geo.Rect, bool) {
	if c.selectRect == nil {
		return geo.Rect{}, false
	}
	return *c.selectRect, true
}

// Target is the element the dragged connector end currently snaps to.
func (c *Canvas) Target() (int, bool) {
	return c.target, c.target > 0
}

func (c *Canvas) view() sfview.Reader {
	c.scene.sync(c.props.View, c.props.Version)
	return &c.scene
}

// Snapshot is the host view with the live drag and any drafts applied.
func (c *Canvas) Snapshot() sfview.Reader {
	r := c.view()
	if len(c.overlay) == 0 {
		return r
	}
	return sfview.WithOverlay(r, c.overlay)
}

func (c *Canvas) isSelected(uid int) bool {
	return go2.Contains(c.selection, uid)
}

func (c *Canvas) setSelection(uids []int) {
	c.selection = append([]int(nil), uids...)
	c.host.SetSelection(append([]int(nil), uids...))
}

func (c *Canvas) notifyViewBox() {
	c.host.ViewBoxChange(c.vp.ViewBox(), c.vp.Zoom)
}

func (c *Canvas) PointerDown(ev PointerEvent) {
	c.stopMomentum()
	screen := ev.Screen()
	if ev.Type == PointerTouch {
		c.touches[ev.ID] = screen
		if len(c.touches) == 2 {
			switch c.state {
			case StateIdle, StatePanningCanvas, StateDragSelecting:
				c.beginPinch()
			}
			return
		}
		if len(c.touches) > 2 {
			return
		}
	}

	switch c.state {
	case StateEditingName:
		c.CancelName()
	case StateIdle:
	default:
		return
	}

	c.pointer = ev.ID
	c.downScreen = screen
	c.downModel = c.vp.ToModel(screen)
	c.downOffset = c.vp.Offset
	c.moved = false
	c.vt.reset(screen, ev.Time)

	r := c.view()
	if c.props.Tool != ToolNone && c.beginCreate(r, ev) {
		c.state = StateCreatingElement
		return
	}

	hit, ok := HitTest(r, c.downModel, c.vp.Zoom, c.isSelected)
	if !ok {
		if ev.Shift || ev.Type == PointerPen {
			c.state = StateDragSelecting
			if ev.Shift {
				c.selectBase = append([]int(nil), c.selection...)
			}
			return
		}
		c.state = StatePanningCanvas
		return
	}

	c.state = StateDraggingSelection
	switch hit.Part {
	case HitLabel:
		if !c.isSelected(hit.UID) || len(c.selection) > 1 {
			c.setSelection([]int{hit.UID})
		}
		el, _ := r.Get(hit.UID)
		c.mode = dragLabel
		c.labelUID = hit.UID
		if named, ok := el.(sfview.Named); ok {
			c.labelSide = named.GetLabelSide()
		}
	case HitArrowhead, HitSource:
		c.beginEndDrag(r, hit)
	default:
		c.selectForDrag(hit.UID, ev.Shift)
		if c.mode != dragMove || len(c.selection) != 1 {
			break
		}
		switch hit.Part {
		case HitSegment:
			i := hit.Segment
			c.segmentIndex = &i
		case HitArc:
			c.bending = true
		}
	}
}

func (c *Canvas) selectForDrag(uid int, shift bool) {
	c.mode = dragMove
	selected := c.isSelected(uid)
	switch {
	case shift && selected:
		c.setSelection(go2.Remove(c.selection, uid))
		c.mode = dragNone
	case shift:
		c.setSelection(append(c.Selection(), uid))
	case selected && len(c.selection) > 1:
		c.deferred = uid
	case !selected:
		c.setSelection([]int{uid})
	}
}

func (c *Canvas) beginEndDrag(r sfview.Reader, hit Hit) {
	el, _ := r.Get(hit.UID)
	c.isSource = hit.Part == HitSource
	c.inCreation = false
	switch el := el.(type) {
	case sfview.Flow:
		c.mode = dragFlowEnd
		c.endFlow = el
		c.endIndex = len(el.Points) - 1
		if c.isSource {
			c.endIndex = 0
		}
		c.endBase = el.Points[c.endIndex].Geo()
	case sfview.Link:
		c.mode = dragLinkEnd
		c.endLink = el
	default:
		c.mode = dragNone
	}
}

// beginCreate starts a draft for the active tool. It reports false when the
// tool cannot start here, leaving the press to the usual handling.
func (c *Canvas) beginCreate(r sfview.Reader, ev PointerEvent) bool {
	m := c.downModel
	switch c.props.Tool {
	case ToolStock:
		c.draft = sfview.Stock{UID: sfview.InCreationUID, X: m.X, Y: m.Y, Name: NewStockName}
	case ToolAux:
		c.draft = sfview.Aux{UID: sfview.InCreationUID, X: m.X, Y: m.Y, Name: NewAuxName}
	case ToolFlow:
		start := m
		source := sfview.AttachedPoint(m.X, m.Y, sfview.InCreationCloudUID)
		c.sourceStock, c.sourceCloud = nil, nil
		if hit, ok := HitTest(r, m, c.vp.Zoom, func(int) bool { return false }); ok {
			if s, ok := r.Get(hit.UID); ok {
				if s, ok := s.(sfview.Stock); ok {
					start = s.GetCenter()
					source = sfview.AttachedPoint(s.X, s.Y, s.UID)
					c.sourceStock = &s
				}
			}
		}
		if c.sourceStock == nil {
			c.sourceCloud = &sfview.Cloud{UID: sfview.InCreationCloudUID, X: m.X, Y: m.Y, FlowUID: sfview.InCreationUID}
		}
		c.endFlow = sfview.Flow{
			UID:    sfview.InCreationUID,
			X:      start.X,
			Y:      start.Y,
			Name:   NewFlowName,
			Points: []sfview.Point{source, sfview.AttachedPoint(start.X, start.Y, sfview.FauxCloudTargetUID)},
		}
		c.endIndex = 1
		c.endBase = start
		c.isSource = false
		c.inCreation = true
		c.mode = dragFlowEnd
		c.updateFlowEnd(r, m, geo.Point{})
		return true
	case ToolLink:
		hit, ok := HitTest(r, m, c.vp.Zoom, func(int) bool { return false })
		if !ok {
			return false
		}
		from, _ := r.Get(hit.UID)
		if _, ok := from.(sfview.Named); !ok {
			return false
		}
		c.endLink = sfview.Link{UID: sfview.InCreationUID, FromUID: hit.UID, ToUID: sfview.FauxTargetUID}
		c.isSource = false
		c.inCreation = true
		c.mode = dragLinkEnd
		c.updateLinkEnd(r, m)
		return true
	default:
		return false
	}
	c.mode = dragDraft
	c.overlay = sfview.Overlay{}
	c.overlay.Put(c.draft)
	return true
}

func (c *Canvas) PointerMove(ev PointerEvent) {
	screen := ev.Screen()
	if ev.Type == PointerTouch {
		if _, ok := c.touches[ev.ID]; ok {
			c.touches[ev.ID] = screen
		}
	}
	if c.state == StatePinching {
		a, ok1 := c.touches[c.pinchIDs[0]]
		b, ok2 := c.touches[c.pinchIDs[1]]
		if ok1 && ok2 {
			c.vp = c.pinch.apply(c.vp, a, b)
			c.notifyViewBox()
		}
		return
	}
	if ev.ID != c.pointer {
		return
	}
	switch c.state {
	case StateIdle, StateEditingName:
		return
	}

	c.vt.add(screen, ev.Time)
	if !screen.Equals(c.downScreen) {
		c.moved = true
	}

	switch c.state {
	case StatePanningCanvas:
		c.vp.Offset = c.downOffset.Add(screen.Sub(c.downScreen).Scale(1 / c.vp.Zoom))
		c.notifyViewBox()
	case StateDragSelecting:
		c.dragSelect(c.vp.ToModel(screen))
	case StateDraggingSelection, StateCreatingElement:
		m := c.vp.ToModel(screen)
		c.dragTo(m, m.Sub(c.downModel))
	}
}

func (c *Canvas) dragSelect(m geo.Point) {
	rect := geo.NewRect(c.downModel, m)
	c.selectRect = &rect
	sel := append([]int(nil), c.selectBase...)
	for _, el := range c.view().Elements() {
		if InSelectRect(el, rect) && !go2.Contains(sel, el.GetUID()) {
			sel = append(sel, el.GetUID())
		}
	}
	c.dragSelection = sel
}

func (c *Canvas) dragTo(m, delta geo.Point) {
	r := c.view()
	c.delta = delta
	switch c.mode {
	case dragMove:
		if c.bending {
			c.arcPoint = &m
		}
		o, err := MoveSelection(r, c.selection, delta, c.arcPoint, c.segmentIndex)
		if err != nil {
			log.Warn(c.ctx, "failed to move selection", slog.F("selection", c.selection), slog.Error(err))
			return
		}
		c.overlay = o
	case dragLabel:
		el, ok := r.Get(c.labelUID)
		if !ok {
			return
		}
		c.labelSide = label.SideFromPoint(el.GetCenter(), m)
		el, _ = sfview.WithLabelSide(el, c.labelSide)
		c.overlay = sfview.Overlay{}
		c.overlay.Put(el)
	case dragFlowEnd:
		c.updateFlowEnd(r, m, delta)
	case dragLinkEnd:
		c.updateLinkEnd(r, m)
	case dragDraft:
		c.overlay = sfview.Overlay{}
		c.overlay.Put(sfview.Translate(c.draft, delta))
	}
}

// targetAt is the topmost real element under m other than skip.
func targetAt(r sfview.Reader, m geo.Point, skip int) sfview.Element {
	els := r.Elements()
	for i := len(els) - 1; i >= 0; i-- {
		el := els[i]
		if el.GetUID() <= 0 || el.GetUID() == skip {
			continue
		}
		if sfshape.Contains(el, m) {
			return el
		}
	}
	return nil
}

func (c *Canvas) updateFlowEnd(r sfview.Reader, m, delta geo.Point) {
	base := c.endFlow
	f, p := sfflow.MoveEnd(base, c.endIndex, c.endBase, delta)
	c.fauxCenter = p
	c.target = 0
	c.overlay = sfview.Overlay{}

	var cloud *sfview.Cloud
	if uid, ok := base.Points[c.endIndex].AttachedTo(); ok && uid > 0 {
		if el, ok := r.Get(uid); ok {
			if cl, ok := el.(sfview.Cloud); ok {
				cloud = &cl
			}
		}
	}
	if cloud == nil {
		f = sfflow.Detach(f, c.endIndex, sfview.FauxCloudTargetUID)
	}
	if c.sourceStock != nil {
		f = sfflow.AttachEnd(f, 0, *c.sourceStock)
	}
	if c.sourceCloud != nil {
		c.overlay.Put(*c.sourceCloud)
	}

	if cand := targetAt(r, m, base.UID); cand != nil && IsValidTarget(r, f, c.isSource, cand) {
		stock := cand.(sfview.Stock)
		f = sfflow.AttachEnd(f, c.endIndex, stock)
		c.target = stock.UID
	}

	switch {
	case cloud != nil:
		c.overlay.Put(cloud.WithCenter(p))
	case c.target == 0:
		c.overlay.Put(sfview.Cloud{UID: sfview.FauxCloudTargetUID, X: p.X, Y: p.Y, FlowUID: base.UID, IsZeroRadius: true})
	}
	c.overlay.Put(f)
}

func (c *Canvas) updateLinkEnd(r sfview.Reader, m geo.Point) {
	c.target = 0
	faux := sfview.Aux{UID: sfview.FauxTargetUID, X: m.X, Y: m.Y, IsZeroRadius: true}
	if cand := targetAt(r, m, c.endLink.UID); cand != nil && IsValidTarget(r, c.endLink, c.isSource, cand) {
		c.target = cand.GetUID()
		faux = faux.WithCenter(sfshape.VisualCenter(cand))
	}
	l := c.endLink.WithTo(sfview.FauxTargetUID)
	if c.isSource {
		l = c.endLink.WithFrom(sfview.FauxTargetUID)
	}
	c.overlay = sfview.Overlay{}
	c.overlay.Put(faux)
	c.overlay.Put(l)
}

func (c *Canvas) PointerUp(ev PointerEvent) {
	if ev.Type == PointerTouch {
		delete(c.touches, ev.ID)
	}
	if c.state == StatePinching {
		if len(c.touches) < 2 {
			c.state = StateIdle
		}
		return
	}
	if ev.ID != c.pointer {
		return
	}
	switch c.state {
	case StateIdle, StateEditingName:
		return
	}
	c.PointerMove(ev)

	switch c.state {
	case StatePanningCanvas:
		if !c.moved {
			if len(c.selection) > 0 {
				c.setSelection(nil)
			}
		} else {
			c.startMomentum(ev.Time)
		}
	case StateDragSelecting:
		c.setSelection(c.dragSelection)
	case StateDraggingSelection:
		c.commitDrag()
	case StateCreatingElement:
		c.commitCreate()
	}
	c.reset()
}

// PointerCancel abandons the gesture. Drafts are discarded.
func (c *Canvas) PointerCancel(ev PointerEvent) {
	if ev.Type == PointerTouch {
		delete(c.touches, ev.ID)
	}
	if c.state == StatePinching {
		if len(c.touches) < 2 {
			c.state = StateIdle
		}
		return
	}
	if ev.ID == c.pointer {
		c.reset()
	}
}

func (c *Canvas) commitDrag() {
	switch c.mode {
	case dragMove:
		switch {
		case !c.moved:
			if c.deferred != 0 {
				c.setSelection([]int{c.deferred})
			}
		case c.bending:
			c.host.MoveSelection(geo.Point{}, c.arcPoint, nil)
		case len(c.overlay) > 0:
			c.host.MoveSelection(c.delta, nil, c.segmentIndex)
		}
	case dragLabel:
		el, ok := c.view().Get(c.labelUID)
		if !ok || !c.moved {
			return
		}
		if named, ok := el.(sfview.Named); ok && named.GetLabelSide() != c.labelSide {
			c.host.MoveLabel(c.labelUID, c.labelSide)
		}
	case dragFlowEnd, dragLinkEnd:
		c.commitEnd()
	}
}

func (c *Canvas) commitEnd() {
	if !c.moved {
		return
	}
	switch c.mode {
	case dragFlowEnd:
		f, ok := c.overlay[c.endFlow.UID].(sfview.Flow)
		if !ok {
			return
		}
		if c.inCreation && f.Points[0].Geo().ApproxEquals(f.Points[len(f.Points)-1].Geo()) {
			return
		}
		if c.target > 0 {
			c.host.MoveFlow(f, c.target, c.delta, nil, c.inCreation, c.isSource)
		} else {
			fc := c.fauxCenter
			c.host.MoveFlow(f, 0, c.delta, &fc, c.inCreation, c.isSource)
		}
	case dragLinkEnd:
		l := c.endLink
		switch {
		case c.target > 0 && c.isSource:
			c.host.AttachLink(l.WithFrom(c.target), l.ToUID)
		case c.target > 0:
			c.host.AttachLink(l, c.target)
		case !c.inCreation:
			c.setSelection([]int{l.UID})
			c.host.DeleteSelection()
		}
	}
}

func (c *Canvas) commitCreate() {
	switch c.mode {
	case dragDraft:
		el := sfview.Translate(c.draft, c.delta)
		c.host.CreateVariable(el)
		c.host.ClearSelectedTool()
		named := el.(sfview.Named)
		c.editing = &nameEdit{uid: sfview.InCreationUID, name: named.GetName(), el: el}
		c.state = StateEditingName
	case dragFlowEnd, dragLinkEnd:
		c.commitEnd()
		c.host.ClearSelectedTool()
	}
}

// reset is the single cleanup path for released and cancelled gestures.
func (c *Canvas) reset() {
	c.overlay = nil
	c.selectRect = nil
	c.selectBase = nil
	c.dragSelection = nil
	c.mode = dragNone
	c.delta = geo.Point{}
	c.bending = false
	c.arcPoint = nil
	c.segmentIndex = nil
	c.draft = nil
	c.target = 0
	c.deferred = 0
	c.moved = false
	c.inCreation = false
	c.sourceStock = nil
	c.sourceCloud = nil
	c.pointer = -1
	if c.state != StateEditingName {
		c.state = StateIdle
	}
}

func (c *Canvas) beginPinch() {
	ids := go2.SortedKeys(c.touches)
	c.reset()
	c.editing = nil
	c.pinchIDs = [2]int{ids[0], ids[1]}
	c.pinch = startPinch(c.vp, c.touches[ids[0]], c.touches[ids[1]])
	c.state = StatePinching
}

func (c *Canvas) startMomentum(release time.Time) {
	v := c.vt.velocity(release)
	m, ok := newMomentum(release, c.vp.Offset, v.Scale(1/c.vp.Zoom), MomentumMinSpeed/c.vp.Zoom)
	if !ok {
		return
	}
	c.mom = m
	c.frame = c.sched.RequestFrame(c.momentumFrame)
}

func (c *Canvas) momentumFrame(now time.Time) {
	pos, done := c.mom.at(now)
	c.vp.Offset = pos
	c.notifyViewBox()
	if done {
		c.frame = nil
		return
	}
	c.frame = c.sched.RequestFrame(c.momentumFrame)
}

func (c *Canvas) stopMomentum() {
	if c.frame != nil {
		c.frame.Cancel()
		c.frame = nil
	}
}

func (c *Canvas) Wheel(ev WheelEvent) {
	c.stopMomentum()
	c.vp = c.vp.Wheel(ev)
	c.notifyViewBox()
}

func (c *Canvas) KeyDown(key string) {
	switch key {
	case "Delete", "Backspace":
		if c.state == StateEditingName || len(c.selection) == 0 {
			return
		}
		c.host.DeleteSelection()
	case "Escape":
		switch c.state {
		case StateEditingName:
			c.CancelName()
		case StateIdle:
			c.host.ClearSelectedTool()
		default:
			c.reset()
		}
	}
}

// DoubleClick on a label edits the name. On a named body it opens the
// variable's details.
func (c *Canvas) DoubleClick(ev PointerEvent) {
	if c.state != StateIdle {
		return
	}
	r := c.view()
	hit, ok := HitTest(r, c.vp.ToModel(ev.Screen()), c.vp.Zoom, c.isSelected)
	if !ok {
		return
	}
	el, _ := r.Get(hit.UID)
	named, ok := el.(sfview.Named)
	if !ok {
		return
	}
	if !c.isSelected(hit.UID) || len(c.selection) > 1 {
		c.setSelection([]int{hit.UID})
	}
	if hit.Part == HitLabel {
		c.editing = &nameEdit{uid: hit.UID, name: named.GetName(), el: el}
		c.state = StateEditingName
		return
	}
	c.host.ShowVariableDetails()
}

// NameEdit is where a text editor for a name should sit, in screen pixels.
type NameEdit struct {
	UID  int        `json:"uid"`
	Name string     `json:"name"`
	Side label.Side `json:"side"`
	Rect geo.Rect   `json:"rect"`
}

func (c *Canvas) NameEdit() (NameEdit, bool) {
	if c.editing == nil {
		return NameEdit{}, false
	}
	el, ok := c.view().Get(c.editing.uid)
	if !ok {
		el = c.editing.el
	}
	named, ok := el.(sfview.Named)
	if !ok {
		return NameEdit{}, false
	}
	s, ok := sfshape.Of(el)
	if !ok {
		return NameEdit{}, false
	}
	rw, rh := s.HalfExtents()
	center := el.GetCenter()
	r := label.Bounds(center.X, center.Y, rw, rh, named.GetLabelSide(), c.editing.name)
	return NameEdit{
		UID:  c.editing.uid,
		Name: c.editing.name,
		Side: named.GetLabelSide(),
		Rect: c.vp.RectToScreen(r),
	}, true
}

// CommitName finishes editing. Empty and unchanged names are dropped.
func (c *Canvas) CommitName(name string) {
	if c.editing == nil {
		return
	}
	old := c.editing.name
	c.editing = nil
	c.state = StateIdle
	if name == "" || name == old {
		return
	}
	c.host.RenameVariable(old, name)
}

func (c *Canvas) CancelName() {
	c.editing = nil
	if c.state == StateEditingName {
		c.state = StateIdle
	}
}

// Close stops any running animation and forgets tracked pointers.
func (c *Canvas) Close() {
	c.stopMomentum()
	c.touches = make(map[int]geo.Point)
	c.reset()
	c.editing = nil
	c.state = StateIdle
}
