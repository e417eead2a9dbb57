package booking

import "sort"

// ExpiredSet holds ids of bookings whose countdown reached zero locally. It
// only filters what is displayed; the server stays authoritative.
//
// ExpiredSet is not safe for concurrent use. Lifecycle guards its set with
// Lifecycle.mu.
type ExpiredSet struct {
	ids      map[string]struct{}
	revision uint64
}

func NewExpiredSet() *ExpiredSet {
	return &ExpiredSet{ids: map[string]struct{}{}}
}

// Add reports whether id was newly added.
func (s *ExpiredSet) Add(id string) bool {
	if s.ids == nil {
		s.ids = map[string]struct{}{}
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	s.revision++
	return true
}

func (s *ExpiredSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

func (s *ExpiredSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Revision changes every time the set changes.
func (s *ExpiredSet) Revision() uint64 {
	if s == nil {
		return 0
	}
	return s.revision
}

func (s *ExpiredSet) Clear() {
	if len(s.ids) == 0 {
		return
	}
	clear(s.ids)
	s.revision++
}

func (s *ExpiredSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
