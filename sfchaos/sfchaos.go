// Package sfchaos generates random diagrams and gestures and replays them
// through a canvas, checking the flow invariants after every gesture.
package sfchaos

import (
	"context"
	"fmt"
	"math"
	mathrand "math/rand"
	"time"

	"oss.terrastruct.com/xrand"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/go2"
	"oss.terrastruct.com/stockflow/sfcanvas"
	"oss.terrastruct.com/stockflow/sfedit"
	"oss.terrastruct.com/stockflow/sfflow"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

const (
	gridSpacing = 200.
	gridColumns = 4
	cloudOffset = 120.
)

type genState struct {
	rand *mathrand.Rand
	uid  int

	stocks []*sfview.Stock
	els    []sfview.Element
}

func (gs *genState) nextUID() int {
	gs.uid++
	return gs.uid
}

// GenView builds a diagram of up to maxi stocks laid out on a grid, joined by
// straight flows, fed by clouds and annotated with auxiliaries and links.
func GenView(rand *mathrand.Rand, maxi int) *sfview.View {
	gs := &genState{rand: rand}
	n := rand.Intn(maxi) + 1
	for i := 0; i < n; i++ {
		gs.stocks = append(gs.stocks, &sfview.Stock{
			UID:  gs.nextUID(),
			X:    float64(i%gridColumns)*gridSpacing + 100,
			Y:    float64(i/gridColumns)*gridSpacing + 100,
			Name: gs.name(),
		})
	}

	var named []int
	for i, s := range gs.stocks {
		named = append(named, s.UID)
		switch gs.roll(40, 30, 30) {
		case 0:
			if (i+1)%gridColumns != 0 && i+1 < len(gs.stocks) {
				named = append(named, gs.stockFlow(s, gs.stocks[i+1]))
			}
		case 1:
			named = append(named, gs.cloudFlow(s))
		}
	}

	for i := rand.Intn(n + 1); i > 0; i-- {
		s := gs.stocks[rand.Intn(len(gs.stocks))]
		aux := sfview.Aux{
			UID:  gs.nextUID(),
			X:    s.X + float64(rand.Intn(60)-30),
			Y:    s.Y - 80,
			Name: gs.name(),
		}
		gs.els = append(gs.els, aux)
		to := named[rand.Intn(len(named))]
		gs.els = append(gs.els, sfview.Link{UID: gs.nextUID(), FromUID: aux.UID, ToUID: to})
	}

	for _, s := range gs.stocks {
		gs.els = append(gs.els, *s)
	}
	return sfview.New(gs.els...)
}

func (gs *genState) name() string {
	return xrand.Base64(gs.rand.Intn(8) + 1)
}

func (gs *genState) stockFlow(from, to *sfview.Stock) int {
	hw := sfshape.StockWidth / 2
	f := sfview.Flow{
		UID:  gs.nextUID(),
		Name: gs.name(),
		Points: []sfview.Point{
			sfview.AttachedPoint(from.X+hw, from.Y, from.UID),
			sfview.AttachedPoint(to.X-hw, to.Y, to.UID),
		},
	}
	f = sfflow.ClampValve(f.WithValve(geo.NewPoint((from.X+to.X)/2, from.Y)))
	from.Outflows = append(from.Outflows, f.UID)
	to.Inflows = append(to.Inflows, f.UID)
	gs.els = append(gs.els, f)
	return f.UID
}

func (gs *genState) cloudFlow(to *sfview.Stock) int {
	hw := sfshape.StockWidth / 2
	fuid := gs.nextUID()
	c := sfview.Cloud{
		UID:     gs.nextUID(),
		X:       to.X - cloudOffset,
		Y:       to.Y,
		FlowUID: fuid,
	}
	f := sfview.Flow{
		UID:  fuid,
		Name: gs.name(),
		Points: []sfview.Point{
			sfview.AttachedPoint(c.X, c.Y, c.UID),
			sfview.AttachedPoint(to.X-hw, to.Y, to.UID),
		},
	}
	f = sfflow.ClampValve(f.WithValve(geo.NewPoint(to.X-cloudOffset/2, to.Y)))
	to.Inflows = append(to.Inflows, f.UID)
	gs.els = append(gs.els, c, f)
	return f.UID
}

// roll returns an index into probs chosen with those relative weights.
func (gs *genState) roll(probs ...int) int {
	total := 0
	for _, p := range probs {
		total += p
	}
	r := gs.rand.Intn(total)
	for i, p := range probs {
		if r < p {
			return i
		}
		r -= p
	}
	return len(probs) - 1
}

// Gesture drags the element UID by Delta, or deletes it when Delete is set.
type Gesture struct {
	UID    int       `json:"uid"`
	Delta  geo.Point `json:"delta"`
	Delete bool      `json:"delete,omitempty"`
}

// GenGestures picks n gestures over the draggable elements of r.
func GenGestures(rand *mathrand.Rand, r sfview.Reader, n int) []Gesture {
	var uids []int
	for _, el := range r.Elements() {
		switch el.Kind() {
		case sfview.KindStock, sfview.KindFlow, sfview.KindCloud, sfview.KindAux:
			uids = append(uids, el.GetUID())
		}
	}
	if len(uids) == 0 {
		return nil
	}
	gestures := make([]Gesture, 0, n)
	for i := 0; i < n; i++ {
		g := Gesture{UID: uids[rand.Intn(len(uids))]}
		if rand.Intn(10) == 0 {
			g.Delete = true
		} else {
			g.Delta = geo.NewPoint(float64(rand.Intn(401)-200), float64(rand.Intn(401)-200))
		}
		gestures = append(gestures, g)
	}
	return gestures
}

// Replay performs gestures on v through a canvas editing a project and checks
// the invariants after each one. It returns the final view.
func Replay(ctx context.Context, v *sfview.View, gestures []Gesture) (*sfview.View, error) {
	err := Check(v)
	if err != nil {
		return v, fmt.Errorf("initial view: %w", err)
	}

	p := sfedit.New(ctx, v)
	c := sfcanvas.New(ctx, p, &sfcanvas.ManualScheduler{})
	defer c.Close()
	c.SetProps(p.Props())

	clock := time.Unix(0, 0)
	tick := func() time.Time {
		clock = clock.Add(time.Millisecond * 10)
		return clock
	}
	ev := func(at geo.Point) sfcanvas.PointerEvent {
		return sfcanvas.PointerEvent{ID: 1, Type: sfcanvas.PointerMouse, X: at.X, Y: at.Y, Time: tick()}
	}

	for i, g := range gestures {
		el, ok := p.View().Get(g.UID)
		if !ok {
			continue
		}
		from := sfshape.VisualCenter(el)
		to := from.Add(g.Delta)

		c.PointerDown(ev(from))
		if g.Delete {
			c.PointerUp(ev(from))
			c.SetProps(p.Props())
			c.KeyDown("Delete")
		} else {
			c.PointerMove(ev(from.Interpolate(to, 0.5)))
			c.PointerMove(ev(to))
			c.PointerUp(ev(to))
		}
		c.SetProps(p.Props())

		err := Check(p.View())
		if err != nil {
			return p.View(), fmt.Errorf("gesture %d %+v: %w", i, g, err)
		}
	}
	return p.View(), nil
}

// Check reports the first broken flow invariant in r.
func Check(r sfview.Reader) error {
	err := sfview.Validate(r)
	if err != nil {
		return err
	}
	for _, el := range r.Elements() {
		center := el.GetCenter()
		if isNaNOrInf(center.X) || isNaNOrInf(center.Y) {
			return fmt.Errorf("%v %d has a non finite position %v", el.Kind(), el.GetUID(), center)
		}
		switch el := el.(type) {
		case sfview.Flow:
			err = checkFlow(r, el)
		case sfview.Stock:
			err = checkStock(r, el)
		case sfview.Cloud:
			f, ok := r.Get(el.FlowUID)
			if !ok || f.Kind() != sfview.KindFlow {
				err = fmt.Errorf("cloud %d references missing flow %d", el.UID, el.FlowUID)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkFlow(r sfview.Reader, f sfview.Flow) error {
	if !sfflow.ValveContained(f) {
		return fmt.Errorf("flow %d valve %v is off its route %v", f.UID, f.GetCenter(), f.Points)
	}
	n := len(f.Points)
	for _, end := range []int{0, n - 1} {
		uid, _ := f.Points[end].AttachedTo()
		el, _ := r.Get(uid)
		s, ok := el.(sfview.Stock)
		if !ok {
			continue
		}
		adj := f.Points[1]
		if end == n-1 {
			adj = f.Points[n-2]
		}
		p := f.Points[end]
		if !geo.IsEqual(p.X, adj.X, 1e-6) && !geo.IsEqual(p.Y, adj.Y, 1e-6) {
			return fmt.Errorf("flow %d is diagonal at stock %d", f.UID, s.UID)
		}
		list := s.Inflows
		if end == 0 {
			list = s.Outflows
		}
		if !go2.Contains(list, f.UID) {
			return fmt.Errorf("stock %d does not list flow %d", s.UID, f.UID)
		}
	}
	return nil
}

func checkStock(r sfview.Reader, s sfview.Stock) error {
	for _, uids := range [][]int{s.Inflows, s.Outflows} {
		for _, uid := range uids {
			el, ok := r.Get(uid)
			if !ok || el.Kind() != sfview.KindFlow {
				return fmt.Errorf("stock %d lists missing flow %d", s.UID, uid)
			}
		}
	}
	return nil
}

func isNaNOrInf(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
