package index

import (
	"sort"

	"github.com/starford/alma/internal/models"
)

// metadataRecord is the on-disk value of the metadata index; the note id is
// the map key.
type metadataRecord struct {
	Title    string   `json:"title"`
	Created  string   `json:"created"`
	Modified string   `json:"modified"`
	FilePath string   `json:"file_path"`
	Project  string   `json:"project"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
}

func recordFrom(m models.Metadata) metadataRecord {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return metadataRecord{
		Title:    m.Title,
		Created:  m.Created,
		Modified: m.Modified,
		FilePath: m.FilePath,
		Project:  m.Project,
		Type:     m.Type,
		Tags:     cloneIDs(tags),
	}
}

func (r metadataRecord) toModel(id string) models.Metadata {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Metadata{
		ID:       id,
		Title:    r.Title,
		Created:  r.Created,
		Modified: r.Modified,
		FilePath: r.FilePath,
		Project:  r.Project,
		Type:     r.Type,
		Tags:     cloneIDs(tags),
	}
}

// UpsertMetadata replaces the record for noteID.
func (s *Store) UpsertMetadata(noteID string, m models.Metadata) error {
	return s.metadata.Update(func(idx map[string]metadataRecord) bool {
		idx[noteID] = recordFrom(m)
		return true
	})
}

// PatchMetadata overwrites the non-nil fields of p on an existing record.
// Unknown ids are ignored.
func (s *Store) PatchMetadata(noteID string, p models.MetadataPatch) error {
	return s.metadata.Update(func(idx map[string]metadataRecord) bool {
		rec, ok := idx[noteID]
		if !ok {
			return false
		}
		if p.Title != nil {
			rec.Title = *p.Title
		}
		if p.Modified != nil {
			rec.Modified = *p.Modified
		}
		if p.FilePath != nil {
			rec.FilePath = *p.FilePath
		}
		if p.Project != nil {
			rec.Project = *p.Project
		}
		if p.Type != nil {
			rec.Type = *p.Type
		}
		if p.Tags != nil {
			rec.Tags = cloneIDs(*p.Tags)
		}
		idx[noteID] = rec
		return true
	})
}

// RemoveMetadata deletes the record for noteID.
func (s *Store) RemoveMetadata(noteID string) error {
	return s.metadata.Update(func(idx map[string]metadataRecord) bool {
		if _, ok := idx[noteID]; !ok {
			return false
		}
		delete(idx, noteID)
		return true
	})
}

// GetMetadata returns the record for noteID.
func (s *Store) GetMetadata(noteID string) (models.Metadata, bool) {
	var (
		out models.Metadata
		ok  bool
	)
	s.metadata.View(func(idx map[string]metadataRecord) {
		var rec metadataRecord
		if rec, ok = idx[noteID]; ok {
			out = rec.toModel(noteID)
		}
	})
	return out, ok
}

// AllMetadata returns records sorted by created timestamp (newest first),
// then sliced by offset and limit. A non-positive limit returns everything
// after offset. The whole index is sorted on every call.
func (s *Store) AllMetadata(limit, offset int) []models.Metadata {
	var all []models.Metadata
	s.metadata.View(func(idx map[string]metadataRecord) {
		all = make([]models.Metadata, 0, len(idx))
		for id, rec := range idx {
			all = append(all, rec.toModel(id))
		}
	})
	SortByCreatedDesc(all)
	return Page(all, limit, offset)
}

// SortByCreatedDesc orders records newest first; ids break ties so the
// order is stable across calls.
func SortByCreatedDesc(ms []models.Metadata) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Created != ms[j].Created {
			return ms[i].Created > ms[j].Created
		}
		return ms[i].ID < ms[j].ID
	})
}

// Page applies offset/limit to s. A non-positive limit means no limit.
func Page[T any](s []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s) {
		return []T{}
	}
	s = s[offset:]
	if limit > 0 && limit < len(s) {
		s = s[:limit]
	}
	return s
}
