package sfcanvas

import "oss.terrastruct.com/stockflow/sfview"

// scene caches the host's view by UID. It is rebuilt only when the host's
// version changes.
type scene struct {
	version int
	built   bool
	els     []sfview.Element
	byUID   map[int]sfview.Element
	builds  int
}

var _ sfview.Reader = &scene{}

func (s *scene) Get(uid int) (sfview.Element, bool) {
	el, ok := s.byUID[uid]
	return el, ok
}

func (s *scene) Elements() []sfview.Element {
	return s.els
}

func (s *scene) sync(r sfview.Reader, version int) {
	if s.built && s.version == version {
		return
	}
	s.els = nil
	if r != nil {
		s.els = r.Elements()
	}
	s.byUID = make(map[int]sfview.Element, len(s.els))
	for _, el := range s.els {
		s.byUID[el.GetUID()] = el
	}
	s.version = version
	s.built = true
	s.builds++
}
