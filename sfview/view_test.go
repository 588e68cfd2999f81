package sfview

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/label"
)

func testView() *View {
	return New(
		Stock{UID: 1, X: 100, Y: 100, Name: "a", Outflows: []int{3}},
		Stock{UID: 2, X: 300, Y: 100, Name: "b", Inflows: []int{3}},
		Flow{UID: 3, X: 200, Y: 100, Name: "f", Points: []Point{
			AttachedPoint(122.5, 100, 1),
			AttachedPoint(277.5, 100, 2),
		}},
		Aux{UID: 4, X: 200, Y: 40, Name: "rate"},
		Link{UID: 5, FromUID: 4, ToUID: 3},
	)
}

func TestViewOrder(t *testing.T) {
	t.Parallel()

	v := testView()
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, 6, v.NextUID())
	assert.Equal(t, 7, v.NextUID())

	v.Put(Aux{UID: 4, X: 0, Y: 0, Name: "rate"})
	els := v.Elements()
	assert.Equal(t, 4, els[3].GetUID())
	assert.Equal(t, geo.NewPoint(0, 0), els[3].GetCenter())

	assert.True(t, v.Delete(2))
	assert.False(t, v.Delete(2))
	_, ok := v.Get(2)
	assert.False(t, ok)
	assert.Equal(t, []int{1, 3, 4, 5}, uids(v.Elements()))
}

func TestOverlay(t *testing.T) {
	t.Parallel()

	v := testView()
	o := Overlay{}
	o.Put(Aux{UID: 4, X: 10, Y: 10, Name: "rate"})
	o.Put(Aux{UID: InCreationUID, X: 5, Y: 5, IsZeroRadius: true})

	r := WithOverlay(v, o)
	el, ok := r.Get(4)
	assert.True(t, ok)
	assert.Equal(t, geo.NewPoint(10, 10), el.GetCenter())

	assert.Equal(t, []int{1, 2, 3, 4, 5, InCreationUID}, uids(r.Elements()))

	// the committed view is untouched
	el, _ = v.Get(4)
	assert.Equal(t, geo.NewPoint(200, 40), el.GetCenter())

	v.Apply(o)
	el, _ = v.Get(4)
	assert.Equal(t, geo.NewPoint(10, 10), el.GetCenter())
	_, ok = v.Get(InCreationUID)
	assert.False(t, ok)
}

func TestFunctionalUpdatesDoNotAlias(t *testing.T) {
	t.Parallel()

	v := testView()
	el, _ := v.Get(3)
	f := el.(Flow)

	moved := Translate(f, geo.NewPoint(0, 10)).(Flow)
	assert.Equal(t, 110.0, moved.Points[0].Y)
	assert.Equal(t, 100.0, f.Points[0].Y)

	*moved.Points[0].AttachedToUID = 99
	assert.True(t, f.Points[0].IsAttachedTo(1))

	s, _ := LookupStock(v, 1)
	s2 := s.WithOutflows(nil)
	assert.Equal(t, []int{3}, s.Outflows)
	assert.Empty(t, s2.Outflows)

	side, ok := WithLabelSide(s, label.Left)
	assert.True(t, ok)
	assert.Equal(t, label.Left, side.(Named).GetLabelSide())
	assert.Equal(t, label.Bottom, s.LabelSide)

	_, ok = WithLabelSide(Link{UID: 9}, label.Left)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	v := testView()
	assert.NoError(t, Validate(v))

	f, _ := LookupFlow(v, 3)

	short := f.WithPoints(f.Points[:1])
	assert.True(t, errors.Is(ValidateFlow(v, short), ErrInvariant))

	dangling := f.WithPoints([]Point{AttachedPoint(0, 0, 1), AttachedPoint(10, 0, 42)})
	assert.True(t, errors.Is(ValidateFlow(v, dangling), ErrInvariant))

	loose := f.WithPoints([]Point{AttachedPoint(0, 0, 1), NewPoint(10, 0)})
	assert.True(t, errors.Is(ValidateFlow(v, loose), ErrInvariant))

	toAux := f.WithPoints([]Point{AttachedPoint(0, 0, 1), AttachedPoint(10, 0, 4)})
	assert.True(t, errors.Is(ValidateFlow(v, toAux), ErrInvariant))

	_, err := LookupStock(v, 4)
	assert.True(t, errors.Is(err, ErrInvariant))
	_, err = Lookup(v, 100)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestQueries(t *testing.T) {
	t.Parallel()

	v := testView()
	s, _ := LookupStock(v, 2)
	flows := FlowsOf(v, s)
	if assert.Len(t, flows, 1) {
		assert.Equal(t, 3, flows[0].UID)
	}
	assert.Len(t, LinksTouching(v, 3), 1)
	assert.Empty(t, LinksTouching(v, 1))
	assert.Empty(t, CloudsOf(v, 3))
}

func TestJSON(t *testing.T) {
	t.Parallel()

	v := testView()
	v.Put(Link{UID: 6, FromUID: 1, ToUID: 4, Arc: func() *float64 { a := 45.; return &a }()})
	v.Put(Group{UID: 7, X: 200, Y: 100, Width: 300, Height: 200, Name: "sector"})

	b, err := json.Marshal(v)
	assert.NoError(t, err)

	var v2 View
	assert.NoError(t, json.Unmarshal(b, &v2))
	assert.Equal(t, uids(v.Elements()), uids(v2.Elements()))

	el, _ := v2.Get(3)
	f := el.(Flow)
	assert.True(t, f.Points[1].IsAttachedTo(2))
	el, _ = v2.Get(6)
	assert.Equal(t, 45., *el.(Link).Arc)
	assert.Equal(t, 8, v2.NextUID())

	err = json.Unmarshal([]byte(`{"elements":[{"type":"pipe","uid":1}]}`), &v2)
	assert.Error(t, err)
}

func uids(els []Element) []int {
	out := make([]int, 0, len(els))
	for _, el := range els {
		out = append(out, el.GetUID())
	}
	return out
}
