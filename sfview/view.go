package sfview

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvariant marks upstream data corruption the geometry cannot repair,
	// such as a flow with fewer than two points or an endpoint that references
	// a missing stock or cloud.
	ErrInvariant = errors.New("view invariant violated")
	ErrNotFound  = errors.New("element not found")
)

// Reader is read access to a set of elements.
type Reader interface {
	Get(uid int) (Element, bool)
	// Elements returns every element in render order.
	Elements() []Element
}

// View is an arena of elements by UID plus their render order.
type View struct {
	elements map[int]Element
	order    []int
	nextUID  int
}

var _ Reader = &View{}

func New(els ...Element) *View {
	v := &View{
		elements: make(map[int]Element, len(els)),
		nextUID:  1,
	}
	for _, el := range els {
		v.Put(el)
	}
	return v
}

func (v *View) Get(uid int) (Element, bool) {
	el, ok := v.elements[uid]
	return el, ok
}

func (v *View) Elements() []Element {
	els := make([]Element, 0, len(v.order))
	for _, uid := range v.order {
		els = append(els, v.elements[uid])
	}
	return els
}

func (v *View) Len() int {
	return len(v.order)
}

// Put inserts el or replaces the element with the same UID in place.
func (v *View) Put(el Element) {
	uid := el.GetUID()
	if _, ok := v.elements[uid]; !ok {
		v.order = append(v.order, uid)
	}
	v.elements[uid] = el
	if uid >= v.nextUID {
		v.nextUID = uid + 1
	}
}

func (v *View) Delete(uid int) bool {
	if _, ok := v.elements[uid]; !ok {
		return false
	}
	delete(v.elements, uid)
	for i, uid2 := range v.order {
		if uid2 == uid {
			v.order = append(v.order[:i:i], v.order[i+1:]...)
			break
		}
	}
	return true
}

// NextUID allocates a fresh UID.
func (v *View) NextUID() int {
	uid := v.nextUID
	v.nextUID++
	return uid
}

func (v *View) Copy() *View {
	v2 := &View{
		elements: make(map[int]Element, len(v.elements)),
		order:    append([]int(nil), v.order...),
		nextUID:  v.nextUID,
	}
	for uid, el := range v.elements {
		v2.elements[uid] = Copy(el)
	}
	return v2
}

// Apply writes every overlay element into the view.
func (v *View) Apply(o Overlay) {
	for _, uid := range o.uids() {
		if uid < 0 {
			continue
		}
		v.Put(o[uid])
	}
}

// Overlay holds draft elements that shadow committed ones at read time.
type Overlay map[int]Element

func (o Overlay) Put(el Element) {
	o[el.GetUID()] = el
}

func (o Overlay) uids() []int {
	uids := make([]int, 0, len(o))
	for uid := range o {
		uids = append(uids, uid)
	}
	sort.Ints(uids)
	return uids
}

type overlayReader struct {
	base    Reader
	overlay Overlay
}

// WithOverlay returns a Reader that resolves o before r. Overlay elements
// with UIDs unknown to r are appended after r's elements, ordered by UID.
func WithOverlay(r Reader, o Overlay) Reader {
	if len(o) == 0 {
		return r
	}
	return overlayReader{base: r, overlay: o}
}

func (r overlayReader) Get(uid int) (Element, bool) {
	if el, ok := r.overlay[uid]; ok {
		return el, true
	}
	return r.base.Get(uid)
}

func (r overlayReader) Elements() []Element {
	base := r.base.Elements()
	els := make([]Element, 0, len(base)+len(r.overlay))
	seen := make(map[int]struct{}, len(base))
	for _, el := range base {
		uid := el.GetUID()
		seen[uid] = struct{}{}
		if el2, ok := r.overlay[uid]; ok {
			el = el2
		}
		els = append(els, el)
	}
	for _, uid := range r.overlay.uids() {
		if _, ok := seen[uid]; !ok {
			els = append(els, r.overlay[uid])
		}
	}
	return els
}

func Lookup(r Reader, uid int) (Element, error) {
	el, ok := r.Get(uid)
	if !ok {
		return nil, fmt.Errorf("uid %d: %w", uid, ErrNotFound)
	}
	return el, nil
}

func LookupStock(r Reader, uid int) (Stock, error) {
	el, err := Lookup(r, uid)
	if err != nil {
		return Stock{}, err
	}
	s, ok := el.(Stock)
	if !ok {
		return Stock{}, fmt.Errorf("uid %d is a %v, not a stock: %w", uid, el.Kind(), ErrInvariant)
	}
	return s, nil
}

func LookupFlow(r Reader, uid int) (Flow, error) {
	el, err := Lookup(r, uid)
	if err != nil {
		return Flow{}, err
	}
	f, ok := el.(Flow)
	if !ok {
		return Flow{}, fmt.Errorf("uid %d is a %v, not a flow: %w", uid, el.Kind(), ErrInvariant)
	}
	return f, nil
}

func Links(r Reader) []Link {
	var links []Link
	for _, el := range r.Elements() {
		if l, ok := el.(Link); ok {
			links = append(links, l)
		}
	}
	return links
}

// LinksTouching returns the links with either end at uid.
func LinksTouching(r Reader, uid int) []Link {
	var links []Link
	for _, l := range Links(r) {
		if l.FromUID == uid || l.ToUID == uid {
			links = append(links, l)
		}
	}
	return links
}

// FlowsOf returns the flows attached to stock, inflows first. Missing flows are skipped.
func FlowsOf(r Reader, stock Stock) []Flow {
	var flows []Flow
	for _, uid := range stock.Flows() {
		el, ok := r.Get(uid)
		if !ok {
			continue
		}
		if f, ok := el.(Flow); ok {
			flows = append(flows, f)
		}
	}
	return flows
}

// CloudsOf returns the clouds terminating flow.
func CloudsOf(r Reader, flowUID int) []Cloud {
	var clouds []Cloud
	for _, el := range r.Elements() {
		if c, ok := el.(Cloud); ok && c.FlowUID == flowUID {
			clouds = append(clouds, c)
		}
	}
	return clouds
}

// ValidateFlow checks that f has at least two points and that both ends are
// attached to an existing stock or cloud.
func ValidateFlow(r Reader, f Flow) error {
	if len(f.Points) < 2 {
		return fmt.Errorf("flow %d has %d points: %w", f.UID, len(f.Points), ErrInvariant)
	}
	for _, p := range []Point{f.Points[0], f.Points[len(f.Points)-1]} {
		uid, ok := p.AttachedTo()
		if !ok {
			return fmt.Errorf("flow %d has an unattached endpoint: %w", f.UID, ErrInvariant)
		}
		el, ok := r.Get(uid)
		if !ok {
			return fmt.Errorf("flow %d endpoint references missing uid %d: %w", f.UID, uid, ErrInvariant)
		}
		switch el.(type) {
		case Stock, Cloud:
		default:
			return fmt.Errorf("flow %d endpoint references %v %d: %w", f.UID, el.Kind(), uid, ErrInvariant)
		}
	}
	return nil
}

// Validate runs ValidateFlow over every flow and reports the first failure.
func Validate(r Reader) error {
	for _, el := range r.Elements() {
		if f, ok := el.(Flow); ok {
			if err := ValidateFlow(r, f); err != nil {
				return err
			}
		}
	}
	return nil
}
