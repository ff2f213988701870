// Package index provides the file-backed secondary indexes derived from the
// canonical note store: project, tag, metadata and wiki-link indexes.
package index

import (
	"fmt"
	"log/slog"
	"os"
)

// Index resource names; each is persisted as <name>.json.
const (
	ProjectsIndex  = "projects"
	TagsIndex      = "tags"
	MetadataIndex  = "metadata"
	WikiLinksIndex = "wiki-links"
)

// Store groups the four independent indexes.
type Store struct {
	dir string

	projects *Index[[]string]
	tags     *Index[[]string]
	metadata *Index[metadataRecord]
	links    *Index[[]string]
}

// Open prepares the index directory and returns a Store rooted at it.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("index: create dir: %w", err)
	}
	return &Store{
		dir:      dir,
		projects: newIndex[[]string](dir, ProjectsIndex, logger),
		tags:     newIndex[[]string](dir, TagsIndex, logger),
		metadata: newIndex[metadataRecord](dir, MetadataIndex, logger),
		links:    newIndex[[]string](dir, WikiLinksIndex, logger),
	}, nil
}

// Dir returns the index directory.
func (s *Store) Dir() string {
	return s.dir
}

// Projects exposes the raw project index.
func (s *Store) Projects() *Index[[]string] { return s.projects }

// Tags exposes the raw tag index.
func (s *Store) Tags() *Index[[]string] { return s.tags }

// Links exposes the raw outbound wiki-link index.
func (s *Store) Links() *Index[[]string] { return s.links }

// ClearAll resets every index to empty. Used by the rebuilder only.
func (s *Store) ClearAll() error {
	if err := s.projects.Clear(); err != nil {
		return err
	}
	if err := s.tags.Clear(); err != nil {
		return err
	}
	if err := s.metadata.Clear(); err != nil {
		return err
	}
	return s.links.Clear()
}

// addID appends id to ids unless already present.
func addID(ids []string, id string) ([]string, bool) {
	for _, v := range ids {
		if v == id {
			return ids, false
		}
	}
	return append(ids, id), true
}

// removeID deletes id from ids, preserving order.
func removeID(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if v == id {
			out := make([]string, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			return append(out, ids[i+1:]...), true
		}
	}
	return ids, false
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
