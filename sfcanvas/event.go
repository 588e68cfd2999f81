package sfcanvas

import (
	"time"

	"oss.terrastruct.com/stockflow/lib/geo"
)

type PointerType int

const (
	PointerMouse PointerType = iota
	PointerTouch
	PointerPen
)

func (t PointerType) String() string {
	switch t {
	case PointerTouch:
		return "touch"
	case PointerPen:
		return "pen"
	}
	return "mouse"
}

// PointerEvent is in screen pixels relative to the canvas.
type PointerEvent struct {
	ID    int         `json:"id"`
	Type  PointerType `json:"type"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Shift bool        `json:"shift"`
	Time  time.Time   `json:"time"`
}

func (ev PointerEvent) Screen() geo.Point {
	return geo.NewPoint(ev.X, ev.Y)
}

type WheelEvent struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	DeltaX float64   `json:"deltaX"`
	DeltaY float64   `json:"deltaY"`
	Ctrl   bool      `json:"ctrl"`
	Time   time.Time `json:"time"`
}
