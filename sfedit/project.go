// Package sfedit is the model side of an editing session. Project owns the
// authoritative view and applies the commits a canvas reports, using the same
// constraint functions the canvas previews with.
package sfedit

import (
	"context"
	"errors"
	"fmt"

	"cdr.dev/slog"

	"oss.terrastruct.com/xdefer"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/go2"
	"oss.terrastruct.com/stockflow/lib/label"
	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/sfcanvas"
	"oss.terrastruct.com/stockflow/sfflow"
	"oss.terrastruct.com/stockflow/sfview"
)

const MaxUndo = 100

var (
	ErrNameTaken     = errors.New("name already in use")
	ErrDuplicateLink = errors.New("link already exists")
)

type Project struct {
	ctx context.Context

	view      *sfview.View
	version   int
	selection []int
	tool      sfcanvas.Tool

	undo []*sfview.View
	redo []*sfview.View

	viewBox geo.Rect
	zoom    float64
	details int
	err     error

	// OnChange runs after every commit and selection change.
	OnChange func()
}

var _ sfcanvas.Host = &Project{}

func New(ctx context.Context, v *sfview.View) *Project {
	if v == nil {
		v = sfview.New()
	}
	return &Project{
		ctx:     log.Named(ctx, "sfedit"),
		view:    v,
		version: 1,
		zoom:    1,
	}
}

// View is the current committed view. It is never modified in place; each
// commit swaps in a new one.
func (p *Project) View() *sfview.View {
	return p.view
}

func (p *Project) Version() int {
	return p.version
}

// Props is what a canvas editing this project should be given.
func (p *Project) Props() sfcanvas.Props {
	return sfcanvas.Props{
		View:      p.view,
		Version:   p.version,
		Selection: append([]int(nil), p.selection...),
		Tool:      p.tool,
	}
}

func (p *Project) Tool() sfcanvas.Tool {
	return p.tool
}

func (p *Project) SetTool(t sfcanvas.Tool) {
	p.tool = t
	p.changed()
}

func (p *Project) Selection() []int {
	return append([]int(nil), p.selection...)
}

// Err is the last rejected commit, if any.
func (p *Project) Err() error {
	return p.err
}

// ViewBox is the last visible region reported by the canvas.
func (p *Project) ViewBox() (geo.Rect, float64) {
	return p.viewBox, p.zoom
}

// Details is the variable the user last asked to inspect.
func (p *Project) Details() (sfview.Element, bool) {
	if p.details == 0 {
		return nil, false
	}
	return p.view.Get(p.details)
}

func (p *Project) changed() {
	if p.OnChange != nil {
		p.OnChange()
	}
}

// commit runs fn against a copy of the view and swaps it in only if fn and
// validation succeed.
func (p *Project) commit(op string, fn func(v *sfview.View) error) (err error) {
	defer func() {
		p.err = err
		if err != nil {
			log.Warn(p.ctx, "edit rejected", slog.Error(err))
		}
	}()
	defer xdefer.Errorf(&err, "failed to %s", op)

	v := p.view.Copy()
	err = fn(v)
	if err != nil {
		return err
	}
	err = sfview.Validate(v)
	if err != nil {
		return err
	}
	p.undo = append(p.undo, p.view)
	if len(p.undo) > MaxUndo {
		p.undo = p.undo[len(p.undo)-MaxUndo:]
	}
	p.redo = nil
	p.view = v
	p.version++
	p.pruneSelection()
	p.changed()
	return nil
}

func (p *Project) pruneSelection() {
	p.selection = go2.Filter(p.selection, func(uid int) bool {
		_, ok := p.view.Get(uid)
		return ok
	})
}

// Undo restores the view before the last commit. It reports false when there
// is nothing to undo.
func (p *Project) Undo() bool {
	if len(p.undo) == 0 {
		return false
	}
	p.redo = append(p.redo, p.view)
	p.view = p.undo[len(p.undo)-1]
	p.undo = p.undo[:len(p.undo)-1]
	p.version++
	p.pruneSelection()
	p.changed()
	return true
}

func (p *Project) Redo() bool {
	if len(p.redo) == 0 {
		return false
	}
	p.undo = append(p.undo, p.view)
	p.view = p.redo[len(p.redo)-1]
	p.redo = p.redo[:len(p.redo)-1]
	p.version++
	p.pruneSelection()
	p.changed()
	return true
}

func (p *Project) SetSelection(uids []int) {
	p.selection = append([]int(nil), uids...)
	p.changed()
}

func (p *Project) MoveSelection(delta geo.Point, arcPoint *geo.Point, segmentIndex *int) {
	selection := p.selection
	p.commit("move selection", func(v *sfview.View) error {
		o, err := sfcanvas.MoveSelection(v, selection, delta, arcPoint, segmentIndex)
		if err != nil {
			return err
		}
		v.Apply(o)
		return nil
	})
}

func (p *Project) MoveFlow(flow sfview.Flow, targetUID int, delta geo.Point, fauxCenter *geo.Point, wasInCreation, isSourceAttach bool) {
	flow = flow.Copy()
	if wasInCreation {
		var uid int
		err := p.commit("create flow", func(v *sfview.View) (err error) {
			uid, err = createFlow(v, flow, targetUID, fauxCenter)
			return err
		})
		if err == nil {
			p.SetSelection([]int{uid})
		}
		return
	}
	p.commit("move flow end", func(v *sfview.View) error {
		return moveFlowEnd(v, flow, targetUID, fauxCenter, isSourceAttach)
	})
}

func createFlow(v *sfview.View, f sfview.Flow, targetUID int, fauxCenter *geo.Point) (int, error) {
	uid := v.NextUID()
	f.UID = uid
	f.Name = uniqueName(v, f.Name)
	n := len(f.Points)
	if n < 2 {
		return 0, fmt.Errorf("flow has %d points: %w", n, sfview.ErrInvariant)
	}

	if src, ok := f.Points[0].AttachedTo(); ok && src > 0 {
		if err := addFlow(v, src, uid, false); err != nil {
			return 0, err
		}
	} else {
		c := newCloud(v, f.Points[0].Geo(), uid)
		f.Points[0] = f.Points[0].WithAttachment(c.UID)
	}

	if targetUID > 0 {
		if err := addFlow(v, targetUID, uid, true); err != nil {
			return 0, err
		}
		f.Points[n-1] = f.Points[n-1].WithAttachment(targetUID)
	} else {
		at := f.Points[n-1].Geo()
		if fauxCenter != nil {
			at = *fauxCenter
		}
		c := newCloud(v, at, uid)
		f.Points[n-1] = f.Points[n-1].WithAttachment(c.UID)
	}
	v.Put(sfflow.ClampValve(f))
	return uid, nil
}

func moveFlowEnd(v *sfview.View, f sfview.Flow, targetUID int, fauxCenter *geo.Point, isSource bool) error {
	old, err := sfview.LookupFlow(v, f.UID)
	if err != nil {
		return err
	}
	end, oldEnd := len(f.Points)-1, len(old.Points)-1
	if isSource {
		end, oldEnd = 0, 0
	}
	sink := !isSource

	oldUID, _ := old.Points[oldEnd].AttachedTo()
	oldEl, _ := v.Get(oldUID)
	cloud, fromCloud := oldEl.(sfview.Cloud)

	if targetUID > 0 {
		if fromCloud {
			v.Delete(cloud.UID)
		} else if oldUID != targetUID {
			removeFlow(v, oldUID, f.UID)
		}
		if err := addFlow(v, targetUID, f.UID, sink); err != nil {
			return err
		}
		f.Points[end] = f.Points[end].WithAttachment(targetUID)
		v.Put(f)
		return nil
	}

	at := f.Points[end].Geo()
	if fauxCenter != nil {
		at = *fauxCenter
	}
	if fromCloud {
		v.Put(cloud.WithCenter(at))
	} else {
		removeFlow(v, oldUID, f.UID)
		cloud = newCloud(v, at, f.UID)
	}
	f.Points[end] = f.Points[end].WithAttachment(cloud.UID)
	v.Put(f)
	return nil
}

func newCloud(v *sfview.View, at geo.Point, flowUID int) sfview.Cloud {
	c := sfview.Cloud{UID: v.NextUID(), X: at.X, Y: at.Y, FlowUID: flowUID}
	v.Put(c)
	return c
}

// addFlow records flowUID on the stock as an inflow when sink, else an outflow.
func addFlow(v *sfview.View, stockUID, flowUID int, sink bool) error {
	s, err := sfview.LookupStock(v, stockUID)
	if err != nil {
		return err
	}
	if sink {
		if !go2.Contains(s.Inflows, flowUID) {
			s = s.WithInflows(append(append([]int(nil), s.Inflows...), flowUID))
		}
	} else if !go2.Contains(s.Outflows, flowUID) {
		s = s.WithOutflows(append(append([]int(nil), s.Outflows...), flowUID))
	}
	v.Put(s)
	return nil
}

func removeFlow(v *sfview.View, stockUID, flowUID int) {
	s, err := sfview.LookupStock(v, stockUID)
	if err != nil {
		return
	}
	v.Put(s.WithInflows(go2.Remove(s.Inflows, flowUID)).WithOutflows(go2.Remove(s.Outflows, flowUID)))
}

func (p *Project) MoveLabel(uid int, side label.Side) {
	p.commit("move label", func(v *sfview.View) error {
		el, err := sfview.Lookup(v, uid)
		if err != nil {
			return err
		}
		el, ok := sfview.WithLabelSide(el, side)
		if !ok {
			return fmt.Errorf("%v %d has no label", el.Kind(), uid)
		}
		v.Put(el)
		return nil
	})
}

// AttachLink points link at newTargetUID. A link still being drawn is created.
func (p *Project) AttachLink(link sfview.Link, newTargetUID int) {
	link = link.WithTo(newTargetUID)
	creating := link.UID < 0
	err := p.commit("attach link", func(v *sfview.View) error {
		if _, err := sfview.Lookup(v, link.FromUID); err != nil {
			return err
		}
		if _, err := sfview.Lookup(v, link.ToUID); err != nil {
			return err
		}
		for _, l := range sfview.Links(v) {
			if l.UID != link.UID && l.FromUID == link.FromUID && l.ToUID == link.ToUID {
				return fmt.Errorf("%d -> %d: %w", link.FromUID, link.ToUID, ErrDuplicateLink)
			}
		}
		if creating {
			link = sfview.Link{UID: v.NextUID(), FromUID: link.FromUID, ToUID: link.ToUID}
		} else if _, err := sfview.Lookup(v, link.UID); err != nil {
			return err
		}
		v.Put(link)
		return nil
	})
	if err == nil && creating {
		p.SetSelection([]int{link.UID})
	}
}

// CreateVariable adds el under a fresh UID, renaming it if its name is taken,
// and selects it.
func (p *Project) CreateVariable(el sfview.Element) {
	var uid int
	err := p.commit("create variable", func(v *sfview.View) error {
		uid = v.NextUID()
		el = sfview.WithUID(el, uid)
		if named, ok := el.(sfview.Named); ok {
			el, _ = sfview.WithName(el, uniqueName(v, named.GetName()))
		}
		v.Put(el)
		return nil
	})
	if err == nil {
		p.SetSelection([]int{uid})
	}
}

// RenameVariable renames the variable called oldName. Aliases of it follow.
func (p *Project) RenameVariable(oldName, newName string) {
	p.commit(fmt.Sprintf("rename %#v to %#v", oldName, newName), func(v *sfview.View) error {
		el, ok := findVariable(v, oldName)
		if !ok {
			return fmt.Errorf("variable %#v: %w", oldName, sfview.ErrNotFound)
		}
		if other, ok := findVariable(v, newName); ok && other.GetUID() != el.GetUID() {
			return fmt.Errorf("%#v: %w", newName, ErrNameTaken)
		}
		renamed, _ := sfview.WithName(el, newName)
		v.Put(renamed)
		for _, el2 := range v.Elements() {
			if a, ok := el2.(sfview.Alias); ok && a.AliasOfUID == el.GetUID() {
				a.Name = newName
				v.Put(a)
			}
		}
		return nil
	})
}

// DeleteSelection removes the selection and everything that cannot exist
// without it: clouds of deleted flows, aliases of deleted variables and links
// touching anything deleted. Flows attached to a deleted stock keep going and
// end in a new cloud instead. Selected clouds are kept.
func (p *Project) DeleteSelection() {
	selection := p.selection
	if len(selection) == 0 {
		return
	}
	err := p.commit("delete selection", func(v *sfview.View) error {
		doomed := make(map[int]bool)
		for _, uid := range selection {
			el, ok := v.Get(uid)
			if !ok || el.Kind() == sfview.KindCloud {
				continue
			}
			doomed[uid] = true
		}

		for _, uid := range go2.SortedKeys(doomed) {
			el, _ := v.Get(uid)
			switch el := el.(type) {
			case sfview.Flow:
				for _, c := range sfview.CloudsOf(v, uid) {
					doomed[c.UID] = true
				}
				for _, pt := range []sfview.Point{el.Points[0], el.Points[len(el.Points)-1]} {
					if s, ok := pt.AttachedTo(); ok && !doomed[s] {
						removeFlow(v, s, uid)
					}
				}
			case sfview.Stock:
				for _, f := range sfview.FlowsOf(v, el) {
					if !doomed[f.UID] {
						orphanFlowEnds(v, f.UID, uid)
					}
				}
			}
		}

		for _, el := range v.Elements() {
			if a, ok := el.(sfview.Alias); ok && doomed[a.AliasOfUID] {
				doomed[a.UID] = true
			}
		}
		for _, l := range sfview.Links(v) {
			if doomed[l.FromUID] || doomed[l.ToUID] {
				doomed[l.UID] = true
			}
		}

		for _, uid := range go2.SortedKeys(doomed) {
			v.Delete(uid)
		}
		return nil
	})
	if err == nil {
		p.SetSelection(nil)
	}
}

// orphanFlowEnds moves the ends of flow attached to stockUID onto new clouds.
func orphanFlowEnds(v *sfview.View, flowUID, stockUID int) {
	f, err := sfview.LookupFlow(v, flowUID)
	if err != nil {
		return
	}
	f = f.Copy()
	for _, i := range []int{0, len(f.Points) - 1} {
		if f.Points[i].IsAttachedTo(stockUID) {
			c := newCloud(v, f.Points[i].Geo(), flowUID)
			f.Points[i] = f.Points[i].WithAttachment(c.UID)
		}
	}
	v.Put(f)
}

func (p *Project) ClearSelectedTool() {
	p.tool = sfcanvas.ToolNone
	p.changed()
}

func (p *Project) ShowVariableDetails() {
	if len(p.selection) != 1 {
		return
	}
	p.details = p.selection[0]
	p.changed()
}

func (p *Project) ViewBoxChange(viewBox geo.Rect, zoom float64) {
	p.viewBox = viewBox
	p.zoom = zoom
}
