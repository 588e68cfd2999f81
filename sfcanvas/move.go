package sfcanvas

import (
	"fmt"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/sfflow"
	"oss.terrastruct.com/stockflow/sflink"
	"oss.terrastruct.com/stockflow/sfview"
)

// MoveSelection computes where every element affected by dragging selection
// by delta ends up. The result is an overlay over r; r itself is untouched.
// The host applies the same function when the drag is committed.
//
// A single element is constrained by its kind: stocks reroute their flows,
// clouds slide along their flow, flows move their valve or one segment and
// links bend through arcPoint. Several elements move rigidly together.
// Either way curved links touching a moved element keep their bend.
func MoveSelection(r sfview.Reader, selection []int, delta geo.Point, arcPoint *geo.Point, segmentIndex *int) (sfview.Overlay, error) {
	o := sfview.Overlay{}
	var err error
	switch len(selection) {
	case 0:
		return o, nil
	case 1:
		err = moveSingle(r, o, selection[0], delta, arcPoint, segmentIndex)
	default:
		err = moveGroup(r, o, selection, delta)
	}
	if err != nil {
		return nil, err
	}
	updateArcs(r, o)
	return o, nil
}

func moveSingle(r sfview.Reader, o sfview.Overlay, uid int, delta geo.Point, arcPoint *geo.Point, segmentIndex *int) error {
	el, err := sfview.Lookup(r, uid)
	if err != nil {
		return err
	}
	switch el := el.(type) {
	case sfview.Stock:
		s, flows, err := sfflow.UpdateStockAndFlows(el, sfview.FlowsOf(r, el), delta)
		if err != nil {
			return err
		}
		o.Put(s)
		for _, f := range flows {
			o.Put(f)
		}
	case sfview.Cloud:
		f, err := sfview.LookupFlow(r, el.FlowUID)
		if err != nil {
			return fmt.Errorf("cloud %d: %w", el.UID, err)
		}
		c, f, err := sfflow.UpdateCloudAndFlow(el, f, delta)
		if err != nil {
			return err
		}
		o.Put(c)
		o.Put(f)
	case sfview.Flow:
		o.Put(sfflow.UpdateFlow(el, delta, segmentIndex))
	case sfview.Link:
		if arcPoint == nil {
			return nil
		}
		from, err := sfview.Lookup(r, el.FromUID)
		if err != nil {
			return err
		}
		to, err := sfview.Lookup(r, el.ToUID)
		if err != nil {
			return err
		}
		arc, err := sflink.ArcDegrees(from.GetCenter(), to.GetCenter(), *arcPoint)
		if err != nil || sflink.IsStraightLine(&arc, from.GetCenter(), to.GetCenter(), nil) {
			o.Put(el.WithArc(nil))
			return nil
		}
		o.Put(el.WithArc(&arc))
	default:
		o.Put(sfview.Translate(el, delta))
	}
	return nil
}

// moveGroup translates the selection rigidly. Flows follow their ends: a flow
// whose ends all move is translated, a flow with one moving stock end is
// rerouted, and a selected flow with no moving end slides its valve. Clouds
// of a selected flow move with it.
func moveGroup(r sfview.Reader, o sfview.Overlay, selection []int, delta geo.Point) error {
	moved := make(map[int]bool, len(selection))
	selected := make(map[int]bool, len(selection))
	var flows []int
	for _, uid := range selection {
		el, ok := r.Get(uid)
		if !ok {
			continue
		}
		selected[uid] = true
		switch el := el.(type) {
		case sfview.Link:
		case sfview.Flow:
			flows = append(flows, uid)
			for _, c := range sfview.CloudsOf(r, uid) {
				moved[c.UID] = true
			}
		case sfview.Stock:
			moved[uid] = true
			flows = append(flows, el.Flows()...)
		case sfview.Cloud:
			moved[uid] = true
			flows = append(flows, el.FlowUID)
		default:
			moved[uid] = true
		}
	}

	for uid := range moved {
		el, _ := r.Get(uid)
		if el != nil {
			o.Put(sfview.Translate(el, delta))
		}
	}

	done := map[int]bool{}
	for _, uid := range flows {
		if done[uid] {
			continue
		}
		done[uid] = true
		f, err := sfview.LookupFlow(r, uid)
		if err != nil {
			return err
		}
		f, err = moveFlowWithEnds(r, f, moved, selected[uid], delta)
		if err != nil {
			return err
		}
		o.Put(f)
	}
	return nil
}

func moveFlowWithEnds(r sfview.Reader, f sfview.Flow, moved map[int]bool, selected bool, delta geo.Point) (sfview.Flow, error) {
	if len(f.Points) < 2 {
		return f, fmt.Errorf("flow %d has %d points: %w", f.UID, len(f.Points), sfview.ErrInvariant)
	}
	var movedEnds []int
	for _, p := range []sfview.Point{f.Points[0], f.Points[len(f.Points)-1]} {
		if uid, ok := p.AttachedTo(); ok && moved[uid] {
			movedEnds = append(movedEnds, uid)
		}
	}
	switch len(movedEnds) {
	case 2:
		return sfview.Translate(f, delta).(sfview.Flow), nil
	case 0:
		if selected {
			return sfflow.UpdateFlow(f, delta, nil), nil
		}
		return f, nil
	}
	el, err := sfview.Lookup(r, movedEnds[0])
	if err != nil {
		return f, err
	}
	switch el := el.(type) {
	case sfview.Stock:
		c := el.GetCenter().Add(delta)
		return sfflow.ComputeFlowRoute(f, el, c.X, c.Y)
	case sfview.Cloud:
		_, f, err := sfflow.UpdateCloudAndFlow(el, f, delta)
		return f, err
	}
	return f, fmt.Errorf("flow %d attached to %v %d: %w", f.UID, el.Kind(), el.GetUID(), sfview.ErrInvariant)
}

// updateArcs keeps the bend of curved links whose ends moved in o.
func updateArcs(r sfview.Reader, o sfview.Overlay) {
	for _, l := range sfview.Links(r) {
		if _, ok := o[l.UID]; ok || l.Arc == nil {
			continue
		}
		from, ok1 := r.Get(l.FromUID)
		to, ok2 := r.Get(l.ToUID)
		if !ok1 || !ok2 {
			continue
		}
		newFrom, movedFrom := o[l.FromUID]
		newTo, movedTo := o[l.ToUID]
		if !movedFrom && !movedTo {
			continue
		}
		if !movedFrom {
			newFrom = from
		}
		if !movedTo {
			newTo = to
		}
		o.Put(l.WithArc(sflink.UpdateArcAngle(l.Arc, from.GetCenter(), to.GetCenter(), newFrom.GetCenter(), newTo.GetCenter())))
	}
}
