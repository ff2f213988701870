package index

import "sort"

// SetLinks overwrites the outbound reference set of noteID.
func (s *Store) SetLinks(noteID string, refs []string) error {
	return s.links.Update(func(m map[string][]string) bool {
		m[noteID] = cloneIDs(refs)
		return true
	})
}

// RemoveLinks drops the outbound entry of noteID.
func (s *Store) RemoveLinks(noteID string) error {
	return s.links.Update(func(m map[string][]string) bool {
		if _, ok := m[noteID]; !ok {
			return false
		}
		delete(m, noteID)
		return true
	})
}

// LinksOf returns the outbound references of noteID.
func (s *Store) LinksOf(noteID string) ([]string, bool) {
	var (
		out []string
		ok  bool
	)
	s.links.View(func(m map[string][]string) {
		var refs []string
		if refs, ok = m[noteID]; ok {
			out = cloneIDs(refs)
		}
	})
	return out, ok
}

// EachLinks calls fn for every note with outbound references, in note id
// order.
func (s *Store) EachLinks(fn func(noteID string, refs []string)) {
	s.links.View(func(m map[string][]string) {
		ids := make([]string, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fn(id, m[id])
		}
	})
}
