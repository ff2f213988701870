package index

import "sort"

// AddToProject records noteID under project. Idempotent.
func (s *Store) AddToProject(project, noteID string) error {
	return s.projects.Update(func(m map[string][]string) bool {
		ids, changed := addID(m[project], noteID)
		m[project] = ids
		return changed
	})
}

// RemoveFromProject drops noteID from project, deleting the bucket when it
// becomes empty. Idempotent.
func (s *Store) RemoveFromProject(project, noteID string) error {
	return s.projects.Update(func(m map[string][]string) bool {
		ids, ok := m[project]
		if !ok {
			return false
		}
		ids, changed := removeID(ids, noteID)
		if !changed {
			return false
		}
		if len(ids) == 0 {
			delete(m, project)
		} else {
			m[project] = ids
		}
		return true
	})
}

// NotesByProject returns the note ids of project in insertion order.
func (s *Store) NotesByProject(project string) []string {
	var out []string
	s.projects.View(func(m map[string][]string) {
		out = cloneIDs(m[project])
	})
	return out
}

// AllProjects returns every project slug with at least one note, sorted.
func (s *Store) AllProjects() []string {
	var out []string
	s.projects.View(func(m map[string][]string) {
		out = make([]string, 0, len(m))
		for p := range m {
			out = append(out, p)
		}
	})
	sort.Strings(out)
	return out
}

// ProjectCounts returns the number of notes per project.
func (s *Store) ProjectCounts() map[string]int {
	out := make(map[string]int)
	s.projects.View(func(m map[string][]string) {
		for p, ids := range m {
			out[p] = len(ids)
		}
	})
	return out
}
