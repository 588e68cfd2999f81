package sfcanvas

import (
	"math"

	"oss.terrastruct.com/stockflow/lib/geo"
)

const (
	MinZoom = 0.2
	MaxZoom = 5.0

	// wheelZoomRate scales ctrl+wheel deltas into an exponent.
	wheelZoomRate = 0.01
)

// Viewport maps model coordinates to screen pixels:
// screen = (model + Offset) * Zoom.
type Viewport struct {
	Zoom   float64   `json:"zoom"`
	Offset geo.Point `json:"offset"`
	// Client size in screen pixels.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func DefaultViewport() Viewport {
	return Viewport{Zoom: 1}
}

func ClampZoom(z float64) float64 {
	return geo.Clamp(z, MinZoom, MaxZoom)
}

func (vp Viewport) ToModel(screen geo.Point) geo.Point {
	return screen.Scale(1 / vp.Zoom).Sub(vp.Offset)
}

func (vp Viewport) ToScreen(model geo.Point) geo.Point {
	return model.Add(vp.Offset).Scale(vp.Zoom)
}

func (vp Viewport) RectToScreen(r geo.Rect) geo.Rect {
	return geo.NewRect(
		vp.ToScreen(geo.NewPoint(r.Left, r.Top)),
		vp.ToScreen(geo.NewPoint(r.Right, r.Bottom)),
	)
}

// ViewBox is the visible model rect.
func (vp Viewport) ViewBox() geo.Rect {
	return geo.NewRect(
		vp.ToModel(geo.NewPoint(0, 0)),
		vp.ToModel(geo.NewPoint(vp.Width, vp.Height)),
	)
}

// ZoomAround changes the zoom so that the model point under screen stays put.
func (vp Viewport) ZoomAround(screen geo.Point, zoom float64) Viewport {
	m := vp.ToModel(screen)
	vp.Zoom = ClampZoom(zoom)
	vp.Offset = screen.Scale(1 / vp.Zoom).Sub(m)
	return vp
}

// Wheel applies a wheel event: ctrl zooms exponentially around the cursor,
// otherwise the deltas pan.
func (vp Viewport) Wheel(ev WheelEvent) Viewport {
	if ev.Ctrl {
		return vp.ZoomAround(geo.NewPoint(ev.X, ev.Y), vp.Zoom*math.Exp(-ev.DeltaY*wheelZoomRate))
	}
	vp.Offset = vp.Offset.Sub(geo.NewPoint(ev.DeltaX, ev.DeltaY).Scale(1 / vp.Zoom))
	return vp
}

// Fit centers and zooms onto r, leaving margin screen pixels on every side.
func (vp Viewport) Fit(r geo.Rect, margin float64) Viewport {
	if vp.Width <= 0 || vp.Height <= 0 || r.Width() <= 0 && r.Height() <= 0 {
		return vp
	}
	zx := (vp.Width - 2*margin) / math.Max(r.Width(), 1)
	zy := (vp.Height - 2*margin) / math.Max(r.Height(), 1)
	vp.Zoom = ClampZoom(math.Min(zx, zy))
	c := r.Center()
	vp.Offset = geo.NewPoint(vp.Width/2, vp.Height/2).Scale(1 / vp.Zoom).Sub(c)
	return vp
}

// pinch tracks a two finger gesture. The model point under the fingers'
// midpoint at the start stays under their midpoint throughout.
type pinch struct {
	initialDist float64
	initialZoom float64
	modelCenter geo.Point
}

func startPinch(vp Viewport, a, b geo.Point) pinch {
	return pinch{
		initialDist: geo.Distance(a, b),
		initialZoom: vp.Zoom,
		modelCenter: vp.ToModel(a.Interpolate(b, .5)),
	}
}

func (p pinch) apply(vp Viewport, a, b geo.Point) Viewport {
	if p.initialDist > 0 {
		vp.Zoom = ClampZoom(p.initialZoom * geo.Distance(a, b) / p.initialDist)
	}
	vp.Offset = a.Interpolate(b, .5).Scale(1 / vp.Zoom).Sub(p.modelCenter)
	return vp
}
