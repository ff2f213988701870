package index

import "github.com/starford/alma/internal/models"

// Snapshot is the full content of all four indexes.
type Snapshot struct {
	Projects map[string][]string
	Tags     map[string][]string
	Metadata map[string]models.Metadata
	Links    map[string][]string
}

// NewSnapshot returns an empty snapshot ready to be filled.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Projects: make(map[string][]string),
		Tags:     make(map[string][]string),
		Metadata: make(map[string]models.Metadata),
		Links:    make(map[string][]string),
	}
}

// Add folds one note into the snapshot the same way the lifecycle create
// path updates the live indexes.
func (sn *Snapshot) Add(m models.Metadata, refs []string) {
	sn.Projects[m.Project], _ = addID(sn.Projects[m.Project], m.ID)
	for _, tag := range m.Tags {
		sn.Tags[tag], _ = addID(sn.Tags[tag], m.ID)
	}
	sn.Metadata[m.ID] = m
	if refs != nil {
		sn.Links[m.ID] = cloneIDs(refs)
	}
}

// Snapshot reads every index.
func (s *Store) Snapshot() *Snapshot {
	sn := NewSnapshot()
	sn.Projects = s.projects.Load()
	sn.Tags = s.tags.Load()
	sn.Links = s.links.Load()
	for id, rec := range s.metadata.Load() {
		sn.Metadata[id] = rec.toModel(id)
	}
	return sn
}

// Replace overwrites every index with the content of sn.
func (s *Store) Replace(sn *Snapshot) error {
	meta := make(map[string]metadataRecord, len(sn.Metadata))
	for id, m := range sn.Metadata {
		meta[id] = recordFrom(m)
	}
	if err := s.projects.Save(sn.Projects); err != nil {
		return err
	}
	if err := s.tags.Save(sn.Tags); err != nil {
		return err
	}
	if err := s.metadata.Save(meta); err != nil {
		return err
	}
	return s.links.Save(sn.Links)
}
