package sfview

import (
	"fmt"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/label"
)

// WithUID returns a copy of el carrying uid.
func WithUID(el Element, uid int) Element {
	switch el := el.(type) {
	case Stock:
		el = el.Copy()
		el.UID = uid
		return el
	case Flow:
		el = el.Copy()
		el.UID = uid
		return el
	case Aux:
		el.UID = uid
		return el
	case Cloud:
		el.UID = uid
		return el
	case Link:
		el = el.Copy()
		el.UID = uid
		return el
	case Module:
		el.UID = uid
		return el
	case Alias:
		el.UID = uid
		return el
	case Group:
		el.UID = uid
		return el
	}
	panic(fmt.Sprintf("sfview: unknown element %T", el))
}

// Translate moves el rigidly by delta. Flow polylines move with their valve.
// Links have no position and are returned unchanged.
func Translate(el Element, delta geo.Point) Element {
	switch el := el.(type) {
	case Stock:
		return el.WithCenter(el.GetCenter().Add(delta))
	case Flow:
		el = el.Copy()
		el.X += delta.X
		el.Y += delta.Y
		for i, p := range el.Points {
			el.Points[i] = p.WithXY(p.X+delta.X, p.Y+delta.Y)
		}
		return el
	case Aux:
		return el.WithCenter(el.GetCenter().Add(delta))
	case Cloud:
		return el.WithCenter(el.GetCenter().Add(delta))
	case Link:
		return el.Copy()
	case Module:
		return el.WithCenter(el.GetCenter().Add(delta))
	case Alias:
		return el.WithCenter(el.GetCenter().Add(delta))
	case Group:
		return el.WithCenter(el.GetCenter().Add(delta))
	}
	panic(fmt.Sprintf("sfview: unknown element %T", el))
}

// WithLabelSide returns el with its label moved to side. Elements without a
// label are returned unchanged with false.
func WithLabelSide(el Element, side label.Side) (Element, bool) {
	switch el := el.(type) {
	case Stock:
		return el.WithLabelSide(side), true
	case Flow:
		return el.WithLabelSide(side), true
	case Aux:
		el.LabelSide = side
		return el, true
	case Module:
		el.LabelSide = side
		return el, true
	case Alias:
		el.LabelSide = side
		return el, true
	}
	return el, false
}

// WithName renames a named element. Aliases and unnamed kinds are returned unchanged.
func WithName(el Element, name string) (Element, bool) {
	switch el := el.(type) {
	case Stock:
		return el.WithName(name), true
	case Flow:
		return el.WithName(name), true
	case Aux:
		el.Name = name
		return el, true
	case Module:
		el.Name = name
		return el, true
	case Group:
		el.Name = name
		return el, true
	}
	return el, false
}

// Copy deep copies el.
func Copy(el Element) Element {
	return WithUID(el, el.GetUID())
}
