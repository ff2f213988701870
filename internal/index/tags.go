package index

import (
	"sort"
	"strings"

	"github.com/starford/alma/internal/models"
)

// AddTags records noteID under every tag. No-op for an empty tag set.
func (s *Store) AddTags(tags []string, noteID string) error {
	if len(tags) == 0 {
		return nil
	}
	return s.tags.Update(func(m map[string][]string) bool {
		changed := false
		for _, tag := range tags {
			ids, added := addID(m[tag], noteID)
			m[tag] = ids
			changed = changed || added
		}
		return changed
	})
}

// RemoveTags drops noteID from every tag, pruning emptied buckets.
func (s *Store) RemoveTags(tags []string, noteID string) error {
	if len(tags) == 0 {
		return nil
	}
	return s.tags.Update(func(m map[string][]string) bool {
		changed := false
		for _, tag := range tags {
			ids, ok := m[tag]
			if !ok {
				continue
			}
			ids, removed := removeID(ids, noteID)
			if !removed {
				continue
			}
			changed = true
			if len(ids) == 0 {
				delete(m, tag)
			} else {
				m[tag] = ids
			}
		}
		return changed
	})
}

// UpdateTags applies the difference between oldTags and newTags: tags only
// in oldTags are removed, tags only in newTags are added, shared tags are
// left alone.
func (s *Store) UpdateTags(oldTags, newTags []string, noteID string) error {
	removed := difference(oldTags, newTags)
	added := difference(newTags, oldTags)
	if err := s.RemoveTags(removed, noteID); err != nil {
		return err
	}
	return s.AddTags(added, noteID)
}

// NotesByTag returns the note ids carrying tag in insertion order.
func (s *Store) NotesByTag(tag string) []string {
	var out []string
	s.tags.View(func(m map[string][]string) {
		out = cloneIDs(m[tag])
	})
	return out
}

// AllTags returns every tag ordered by descending usage, ties broken by
// case-insensitive name.
func (s *Store) AllTags() []string {
	counts := s.TagCounts()
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Tag
	}
	return out
}

// TagCounts returns every tag with its note count in AllTags order.
func (s *Store) TagCounts() []models.TagCount {
	var out []models.TagCount
	s.tags.View(func(m map[string][]string) {
		out = make([]models.TagCount, 0, len(m))
		for tag, ids := range m {
			out = append(out, models.TagCount{Tag: tag, Count: len(ids)})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		li, lj := strings.ToLower(out[i].Tag), strings.ToLower(out[j].Tag)
		if li != lj {
			return li < lj
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// difference returns the members of a not present in b, keeping a's order.
func difference(a, b []string) []string {
	if len(a) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		if _, ok := inB[v]; ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
