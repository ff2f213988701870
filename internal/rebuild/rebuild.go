// Package rebuild reconstructs the derived indexes from the canonical note
// store and watches the store for external edits.
package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/alma/internal/index"
	"github.com/starford/alma/internal/models"
	"github.com/starford/alma/internal/parser"
	"github.com/starford/alma/internal/storage"
	"github.com/starford/alma/internal/wikilink"
)

// DefaultType is the content type assumed when a document has none.
const DefaultType = "note"

// Result summarises one full rebuild.
type Result struct {
	Indexed int `json:"indexed"`
	Errors  int `json:"errors"`
}

// Rebuilder walks the canonical store and rewrites every index.
type Rebuilder struct {
	store  storage.Provider
	idx    *index.Store
	logger *slog.Logger
}

// New creates a Rebuilder.
func New(store storage.Provider, idx *index.Store, logger *slog.Logger) *Rebuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rebuilder{store: store, idx: idx, logger: logger}
}

// RegenerateAll clears every index, then indexes each document that carries
// an id. Documents that cannot be read or parsed, lack an id, or repeat an
// id already seen are counted as errors and skipped. Files are never
// modified. The outcome depends only on the store content, so repeated
// runs produce identical indexes.
func (r *Rebuilder) RegenerateAll(_ context.Context) (Result, error) {
	var res Result

	if err := r.idx.ClearAll(); err != nil {
		return res, fmt.Errorf("rebuild: clear: %w", err)
	}

	paths, err := r.store.List("")
	if err != nil {
		return res, fmt.Errorf("rebuild: list: %w", err)
	}

	sn := index.NewSnapshot()
	for _, p := range paths {
		data, err := r.store.Read(p)
		if err != nil {
			res.Errors++
			r.logger.Warn("rebuild: read failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		doc, err := parser.Parse(data)
		if err != nil {
			res.Errors++
			r.logger.Warn("rebuild: parse failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if doc.Meta.ID == "" {
			res.Errors++
			r.logger.Warn("rebuild: document has no id", slog.String("path", p))
			continue
		}
		if prev, dup := sn.Metadata[doc.Meta.ID]; dup {
			res.Errors++
			r.logger.Warn("rebuild: duplicate id",
				slog.String("id", doc.Meta.ID),
				slog.String("path", p),
				slog.String("first_path", prev.FilePath))
			continue
		}
		sn.Add(MetadataFor(p, doc), wikilink.Extract(doc.Body))
		res.Indexed++
	}

	if err := r.idx.Replace(sn); err != nil {
		return res, fmt.Errorf("rebuild: save: %w", err)
	}

	r.logger.Info("rebuild: done", slog.Int("indexed", res.Indexed), slog.Int("errors", res.Errors))
	return res, nil
}

// MetadataFor projects a parsed document stored at path onto a metadata
// record. Missing fields fall back to values derivable from the file: the
// title from the body, the project from the first path segment.
func MetadataFor(path string, doc *parser.Document) models.Metadata {
	fm := doc.Meta

	title := fm.Title
	if title == "" {
		title = parser.Title(doc.Body)
	}
	project := fm.Project
	if project == "" {
		project = projectFromPath(path)
	}
	typ := fm.Type
	if typ == "" {
		typ = DefaultType
	}
	modified := fm.Modified
	if modified == "" {
		modified = fm.Created
	}

	return models.Metadata{
		ID:       fm.ID,
		Title:    title,
		Created:  fm.Created,
		Modified: modified,
		FilePath: path,
		Project:  project,
		Type:     typ,
		Tags:     parser.NormalizeTags(fm.Tags),
	}
}

func projectFromPath(path string) string {
	if dir, _, ok := strings.Cut(path, "/"); ok && dir != "" {
		return dir
	}
	return models.DefaultProjectID
}
