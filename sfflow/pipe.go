package sfflow

import (
	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

// PipeRoute is the drawn polyline of f. Ends at a cloud are pulled back to
// the cloud's outline; ends at a stock already sit on its edge.
func PipeRoute(r sfview.Reader, f sfview.Flow) ([]geo.Point, error) {
	if err := sfview.ValidateFlow(r, f); err != nil {
		return nil, err
	}
	pts := []geo.Point(f.Route())
	n := len(pts)
	trim := func(end, adj int) {
		uid, _ := f.Points[end].AttachedTo()
		el, _ := r.Get(uid)
		if el.Kind() != sfview.KindCloud || el.ZeroRadius() {
			return
		}
		d := pts[adj].Sub(pts[end])
		l := d.Length()
		if l <= sfshape.CloudRadius {
			return
		}
		pts[end] = pts[end].Add(d.Scale(sfshape.CloudRadius / l))
	}
	trim(0, 1)
	trim(n-1, n-2)
	return pts, nil
}
