// Package sfview is the in-memory form of a stock-and-flow diagram view.
//
// Elements are values. Every change produces a new element through a With*
// method, so a draft made during a drag never aliases the committed element.
package sfview

import (
	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/label"
)

// Sentinel UIDs for elements that only exist during a gesture.
const (
	InCreationUID      = -2
	FauxTargetUID      = -3
	InCreationCloudUID = -4
	FauxCloudTargetUID = -5
)

type Kind int

const (
	KindStock Kind = iota
	KindFlow
	KindAux
	KindCloud
	KindLink
	KindModule
	KindAlias
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindStock:
		return "stock"
	case KindFlow:
		return "flow"
	case KindAux:
		return "aux"
	case KindCloud:
		return "cloud"
	case KindLink:
		return "link"
	case KindModule:
		return "module"
	case KindAlias:
		return "alias"
	case KindGroup:
		return "group"
	}
	return "unknown"
}

// Element is implemented by Stock, Flow, Aux, Cloud, Link, Module, Alias and Group only.
type Element interface {
	GetUID() int
	Kind() Kind
	// GetCenter is the raw (x, y) of the element. Links have no position of their own.
	GetCenter() geo.Point
	// ZeroRadius marks drag placeholders that have no visual shape.
	ZeroRadius() bool

	element()
}

// Named elements carry a label.
type Named interface {
	Element
	GetName() string
	GetLabelSide() label.Side
}

var (
	_ Named   = Stock{}
	_ Named   = Flow{}
	_ Named   = Aux{}
	_ Named   = Module{}
	_ Named   = Alias{}
	_ Element = Cloud{}
	_ Element = Link{}
	_ Element = Group{}
)

// Point is a flow polyline vertex. AttachedToUID is set only on the two
// endpoints and names the stock or cloud that owns that end.
type Point struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	AttachedToUID *int    `json:"attachedToUid,omitempty"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func AttachedPoint(x, y float64, uid int) Point {
	return Point{X: x, Y: y, AttachedToUID: &uid}
}

func (p Point) Geo() geo.Point {
	return geo.NewPoint(p.X, p.Y)
}

func (p Point) IsAttached() bool {
	return p.AttachedToUID != nil
}

// AttachedTo returns the owning uid, or false for interior corners.
func (p Point) AttachedTo() (int, bool) {
	if p.AttachedToUID == nil {
		return 0, false
	}
	return *p.AttachedToUID, true
}

func (p Point) IsAttachedTo(uid int) bool {
	return p.AttachedToUID != nil && *p.AttachedToUID == uid
}

// WithXY keeps the attachment.
func (p Point) WithXY(x, y float64) Point {
	p.X, p.Y = x, y
	return p.copyAttachment()
}

func (p Point) WithAttachment(uid int) Point {
	p.AttachedToUID = &uid
	return p
}

func (p Point) WithoutAttachment() Point {
	p.AttachedToUID = nil
	return p
}

func (p Point) copyAttachment() Point {
	if p.AttachedToUID != nil {
		uid := *p.AttachedToUID
		p.AttachedToUID = &uid
	}
	return p
}

type Stock struct {
	UID          int        `json:"uid"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Name         string     `json:"name"`
	LabelSide    label.Side `json:"labelSide"`
	Inflows      []int      `json:"inflows,omitempty"`
	Outflows     []int      `json:"outflows,omitempty"`
	IsZeroRadius bool       `json:"isZeroRadius,omitempty"`
}

func (s Stock) GetUID() int              { return s.UID }
func (Stock) Kind() Kind                 { return KindStock }
func (s Stock) GetCenter() geo.Point     { return geo.NewPoint(s.X, s.Y) }
func (s Stock) ZeroRadius() bool         { return s.IsZeroRadius }
func (s Stock) GetName() string          { return s.Name }
func (s Stock) GetLabelSide() label.Side { return s.LabelSide }
func (Stock) element()                   {}

func (s Stock) Copy() Stock {
	s.Inflows = append([]int(nil), s.Inflows...)
	s.Outflows = append([]int(nil), s.Outflows...)
	return s
}

func (s Stock) WithCenter(p geo.Point) Stock {
	s = s.Copy()
	s.X, s.Y = p.X, p.Y
	return s
}

func (s Stock) WithLabelSide(side label.Side) Stock {
	s = s.Copy()
	s.LabelSide = side
	return s
}

func (s Stock) WithName(name string) Stock {
	s = s.Copy()
	s.Name = name
	return s
}

// Flows returns inflows followed by outflows.
func (s Stock) Flows() []int {
	return append(append([]int(nil), s.Inflows...), s.Outflows...)
}

func (s Stock) WithInflows(uids []int) Stock {
	s = s.Copy()
	s.Inflows = append([]int(nil), uids...)
	return s
}

func (s Stock) WithOutflows(uids []int) Stock {
	s = s.Copy()
	s.Outflows = append([]int(nil), uids...)
	return s
}

// Flow is a pipe. (X, Y) is the valve position, which sits on one of the
// polyline segments and is not necessarily the midpoint.
type Flow struct {
	UID          int        `json:"uid"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Name         string     `json:"name"`
	LabelSide    label.Side `json:"labelSide"`
	Points       []Point    `json:"points"`
	IsZeroRadius bool       `json:"isZeroRadius,omitempty"`
}

func (f Flow) GetUID() int              { return f.UID }
func (Flow) Kind() Kind                 { return KindFlow }
func (f Flow) GetCenter() geo.Point     { return geo.NewPoint(f.X, f.Y) }
func (f Flow) ZeroRadius() bool         { return f.IsZeroRadius }
func (f Flow) GetName() string          { return f.Name }
func (f Flow) GetLabelSide() label.Side { return f.LabelSide }
func (Flow) element()                   {}

func (f Flow) Copy() Flow {
	pts := make([]Point, len(f.Points))
	for i, p := range f.Points {
		pts[i] = p.copyAttachment()
	}
	f.Points = pts
	return f
}

func (f Flow) WithValve(p geo.Point) Flow {
	f = f.Copy()
	f.X, f.Y = p.X, p.Y
	return f
}

func (f Flow) WithPoints(pts []Point) Flow {
	f.Points = pts
	return f.Copy()
}

func (f Flow) WithLabelSide(side label.Side) Flow {
	f = f.Copy()
	f.LabelSide = side
	return f
}

func (f Flow) WithName(name string) Flow {
	f = f.Copy()
	f.Name = name
	return f
}

func (f Flow) Route() geo.Route {
	r := make(geo.Route, len(f.Points))
	for i, p := range f.Points {
		r[i] = p.Geo()
	}
	return r
}

func (f Flow) Source() (Point, bool) {
	if len(f.Points) == 0 {
		return Point{}, false
	}
	return f.Points[0], true
}

func (f Flow) Sink() (Point, bool) {
	if len(f.Points) == 0 {
		return Point{}, false
	}
	return f.Points[len(f.Points)-1], true
}

type Aux struct {
	UID          int        `json:"uid"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Name         string     `json:"name"`
	LabelSide    label.Side `json:"labelSide"`
	IsZeroRadius bool       `json:"isZeroRadius,omitempty"`
}

func (a Aux) GetUID() int              { return a.UID }
func (Aux) Kind() Kind                 { return KindAux }
func (a Aux) GetCenter() geo.Point     { return geo.NewPoint(a.X, a.Y) }
func (a Aux) ZeroRadius() bool         { return a.IsZeroRadius }
func (a Aux) GetName() string          { return a.Name }
func (a Aux) GetLabelSide() label.Side { return a.LabelSide }
func (Aux) element()                   {}

func (a Aux) WithCenter(p geo.Point) Aux {
	a.X, a.Y = p.X, p.Y
	return a
}

// Cloud terminates exactly one flow.
type Cloud struct {
	UID          int     `json:"uid"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	FlowUID      int     `json:"flowUid"`
	IsZeroRadius bool    `json:"isZeroRadius,omitempty"`
}

func (c Cloud) GetUID() int          { return c.UID }
func (Cloud) Kind() Kind             { return KindCloud }
func (c Cloud) GetCenter() geo.Point { return geo.NewPoint(c.X, c.Y) }
func (c Cloud) ZeroRadius() bool     { return c.IsZeroRadius }
func (Cloud) element()               {}

func (c Cloud) WithCenter(p geo.Point) Cloud {
	c.X, c.Y = p.X, p.Y
	return c
}

// Link is a connector. Arc is in degrees, counter-clockwise, and nil for a
// straight line.
type Link struct {
	UID     int      `json:"uid"`
	FromUID int      `json:"fromUid"`
	ToUID   int      `json:"toUid"`
	Arc     *float64 `json:"arc,omitempty"`
}

func (l Link) GetUID() int        { return l.UID }
func (Link) Kind() Kind           { return KindLink }
func (Link) GetCenter() geo.Point { return geo.Point{} }
func (Link) ZeroRadius() bool     { return false }
func (Link) element()             {}

func (l Link) Copy() Link {
	if l.Arc != nil {
		arc := *l.Arc
		l.Arc = &arc
	}
	return l
}

func (l Link) WithArc(arc *float64) Link {
	l.Arc = arc
	return l.Copy()
}

func (l Link) WithTo(uid int) Link {
	l = l.Copy()
	l.ToUID = uid
	return l
}

func (l Link) WithFrom(uid int) Link {
	l = l.Copy()
	l.FromUID = uid
	return l
}

type Module struct {
	UID          int        `json:"uid"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Name         string     `json:"name"`
	ModelName    string     `json:"modelName,omitempty"`
	LabelSide    label.Side `json:"labelSide"`
	IsZeroRadius bool       `json:"isZeroRadius,omitempty"`
}

func (m Module) GetUID() int              { return m.UID }
func (Module) Kind() Kind                 { return KindModule }
func (m Module) GetCenter() geo.Point     { return geo.NewPoint(m.X, m.Y) }
func (m Module) ZeroRadius() bool         { return m.IsZeroRadius }
func (m Module) GetName() string          { return m.Name }
func (m Module) GetLabelSide() label.Side { return m.LabelSide }
func (Module) element()                   {}

func (m Module) WithCenter(p geo.Point) Module {
	m.X, m.Y = p.X, p.Y
	return m
}

// Alias is a ghost of another variable. Name mirrors the aliased variable.
type Alias struct {
	UID          int        `json:"uid"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	AliasOfUID   int        `json:"aliasOfUid"`
	Name         string     `json:"name,omitempty"`
	LabelSide    label.Side `json:"labelSide"`
	IsZeroRadius bool       `json:"isZeroRadius,omitempty"`
}

func (a Alias) GetUID() int              { return a.UID }
func (Alias) Kind() Kind                 { return KindAlias }
func (a Alias) GetCenter() geo.Point     { return geo.NewPoint(a.X, a.Y) }
func (a Alias) ZeroRadius() bool         { return a.IsZeroRadius }
func (a Alias) GetName() string          { return a.Name }
func (a Alias) GetLabelSide() label.Side { return a.LabelSide }
func (Alias) element()                   {}

func (a Alias) WithCenter(p geo.Point) Alias {
	a.X, a.Y = p.X, p.Y
	return a
}

// Group is a titled box around other elements. (X, Y) is its center.
type Group struct {
	UID    int     `json:"uid"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Name   string  `json:"name"`
}

func (g Group) GetUID() int          { return g.UID }
func (Group) Kind() Kind             { return KindGroup }
func (g Group) GetCenter() geo.Point { return geo.NewPoint(g.X, g.Y) }
func (Group) ZeroRadius() bool       { return false }
func (Group) element()               {}

func (g Group) WithCenter(p geo.Point) Group {
	g.X, g.Y = p.X, p.Y
	return g
}
