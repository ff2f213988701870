// Package noteservice is the note lifecycle manager. Every operation keeps
// the canonical store and the four derived indexes in step.
package noteservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/alma/internal/apperr"
	"github.com/starford/alma/internal/index"
	"github.com/starford/alma/internal/models"
	"github.com/starford/alma/internal/parser"
	"github.com/starford/alma/internal/rebuild"
	"github.com/starford/alma/internal/storage"
	"github.com/starford/alma/internal/wikilink"
)

const (
	// DefaultListLimit bounds List when no limit is given.
	DefaultListLimit = 50
	// DefaultFilterLimit bounds Filter and Search when no limit is given.
	DefaultFilterLimit = 20

	maxSlugLen   = 50
	fallbackSlug = "note"
	fileStamp    = "20060102-150405"
)

// Service orchestrates note create/read/update/delete.
//
// Mutations and rebuilds hold mu exclusively; index-backed reads hold it
// shared so they never observe a rebuild between clear and replace.
type Service struct {
	mu sync.RWMutex

	store     storage.Provider
	idx       *index.Store
	links     *wikilink.Resolver
	rebuilder *rebuild.Rebuilder
	md        goldmark.Markdown
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service over the canonical store and the index store.
func New(store storage.Provider, idx *index.Store, opts ...Option) *Service {
	links := wikilink.NewResolver(idx)
	s := &Service{
		store:  store,
		idx:    idx,
		links:  links,
		logger: slog.Default(),
		now:    time.Now,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, wikilink.Extension{Resolver: links}),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rebuilder = rebuild.New(store, idx, s.logger)
	return s
}

// Index returns the underlying index store.
func (s *Service) Index() *index.Store {
	return s.idx
}

// CreateInput carries the fields of a new note.
type CreateInput struct {
	Content string
	Project string
	Type    string
	Tags    []string
	User    string
}

// Create writes a new note file into the project's storage area, then adds
// it to the project, tag, metadata and link indexes in that order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := strings.TrimSpace(in.Project)
	if project == "" {
		project = models.DefaultProjectID
	}
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		typ = rebuild.DefaultType
	}

	now := s.now()
	stamp := models.FormatTime(now)
	id := uuid.NewString()
	tags := parser.NormalizeTags(in.Tags)
	title := parser.Title(in.Content)

	doc := parser.Document{
		Meta: parser.Frontmatter{
			ID:       id,
			Title:    title,
			Created:  stamp,
			Modified: stamp,
			Project:  project,
			Type:     typ,
			Tags:     tags,
			User:     in.User,
		},
		Body: in.Content,
	}
	data, err := parser.Marshal(doc)
	if err != nil {
		return nil, err
	}

	path := s.notePath(project, title, id, now)
	if err := s.store.Write(path, data); err != nil {
		return nil, fmt.Errorf("noteservice: create: %w", err)
	}

	if err := s.idx.AddToProject(project, id); err != nil {
		return nil, fmt.Errorf("noteservice: create: %w", err)
	}
	if err := s.idx.AddTags(tags, id); err != nil {
		return nil, fmt.Errorf("noteservice: create: %w", err)
	}
	if err := s.idx.UpsertMetadata(id, models.Metadata{
		Title:    title,
		Created:  stamp,
		Modified: stamp,
		FilePath: path,
		Project:  project,
		Type:     typ,
		Tags:     tags,
	}); err != nil {
		return nil, fmt.Errorf("noteservice: create: %w", err)
	}
	if err := s.links.IndexOutbound(id, wikilink.Extract(in.Content)); err != nil {
		return nil, fmt.Errorf("noteservice: create: %w", err)
	}

	s.logger.Debug("noteservice: created", slog.String("id", id), slog.String("path", path))
	return s.materialize(path, data, &doc)
}

// notePath builds <project>/<YYYYMMDD-HHMMSS>-<slug>.md. When that file
// already exists a short id suffix is appended.
func (s *Service) notePath(project, title, id string, now time.Time) string {
	frag := slug.Make(title)
	if utf8.RuneCountInString(frag) > maxSlugLen {
		frag = strings.TrimRight(string([]rune(frag)[:maxSlugLen]), "-")
	}
	if frag == "" {
		frag = fallbackSlug
	}
	base := project + "/" + now.UTC().Format(fileStamp) + "-" + frag
	if !s.store.Exists(base + ".md") {
		return base + ".md"
	}
	return base + "-" + id[:8] + ".md"
}

// Get returns the note with its backlinks, link-rendered content and HTML
// view. It fails with apperr.ErrNotFound when no file carries id.
func (s *Service) Get(ctx context.Context, id string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *Service) get(id string) (*models.Note, error) {
	path, data, doc, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	return s.materialize(path, data, doc)
}

func (s *Service) materialize(path string, data []byte, doc *parser.Document) (*models.Note, error) {
	meta := rebuild.MetadataFor(path, doc)
	rendered := s.links.Render(doc.Body)

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(doc.Body), &buf); err != nil {
		return nil, fmt.Errorf("noteservice: render %s: %w", meta.ID, err)
	}

	return &models.Note{
		ID:          meta.ID,
		Title:       meta.Title,
		Content:     doc.Body,
		Created:     meta.Created,
		Modified:    meta.Modified,
		Project:     meta.Project,
		Type:        meta.Type,
		Tags:        meta.Tags,
		User:        doc.Meta.User,
		FilePath:    path,
		Checksum:    storage.Checksum(data),
		Rendered:    rendered,
		ContentHTML: buf.String(),
		Backlinks:   s.links.Backlinks(meta.Title),
	}, nil
}

// locate resolves id to its file through the metadata index, falling back
// to a full scan when the entry is missing or points at the wrong file.
func (s *Service) locate(id string) (string, []byte, *parser.Document, error) {
	if id == "" {
		return "", nil, nil, apperr.ErrNotFound
	}
	if meta, ok := s.idx.GetMetadata(id); ok && meta.FilePath != "" {
		if data, doc, ok := s.readDoc(meta.FilePath); ok && doc.Meta.ID == id {
			return meta.FilePath, data, doc, nil
		}
		s.logger.Debug("noteservice: stale location, scanning", slog.String("id", id))
	}

	paths, err := s.store.List("")
	if err != nil {
		return "", nil, nil, fmt.Errorf("noteservice: scan: %w", err)
	}
	for _, p := range paths {
		if data, doc, ok := s.readDoc(p); ok && doc.Meta.ID == id {
			return p, data, doc, nil
		}
	}
	return "", nil, nil, apperr.ErrNotFound
}

func (s *Service) readDoc(path string) ([]byte, *parser.Document, bool) {
	if !s.store.Exists(path) {
		return nil, nil, false
	}
	data, err := s.store.Read(path)
	if err != nil {
		return nil, nil, false
	}
	doc, err := parser.Parse(data)
	if err != nil {
		return nil, nil, false
	}
	return data, doc, true
}

// UpdateInput carries the new state of a note. Nil Tags keeps the current
// tags; an empty slice clears them. A non-empty IfMatch must equal the
// checksum of the file on disk.
type UpdateInput struct {
	Content string
	Tags    []string
	IfMatch string
}

// Update rewrites the note in place, then applies the tag delta, patches
// the metadata record and replaces the outbound links.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, data, doc, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	if in.IfMatch != "" && in.IfMatch != storage.Checksum(data) {
		return nil, fmt.Errorf("%w: note %s changed since it was read", apperr.ErrConflict, id)
	}

	oldTags := parser.NormalizeTags(doc.Meta.Tags)
	newTags := oldTags
	if in.Tags != nil {
		newTags = parser.NormalizeTags(in.Tags)
	}
	title := parser.Title(in.Content)
	modified := models.FormatTime(s.now())

	doc.Meta.ID = id
	doc.Meta.Title = title
	doc.Meta.Modified = modified
	doc.Meta.Tags = newTags
	doc.Body = in.Content

	out, err := parser.Marshal(*doc)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, out); err != nil {
		return nil, fmt.Errorf("noteservice: update: %w", err)
	}

	if err := s.idx.UpdateTags(oldTags, newTags, id); err != nil {
		return nil, fmt.Errorf("noteservice: update: %w", err)
	}
	if err := s.idx.PatchMetadata(id, models.MetadataPatch{
		Title:    &title,
		Modified: &modified,
		FilePath: &path,
		Tags:     &newTags,
	}); err != nil {
		return nil, fmt.Errorf("noteservice: update: %w", err)
	}
	if err := s.links.IndexOutbound(id, wikilink.Extract(in.Content)); err != nil {
		return nil, fmt.Errorf("noteservice: update: %w", err)
	}

	s.logger.Debug("noteservice: updated", slog.String("id", id))
	return s.get(id)
}

// Delete purges every index entry of the note, then removes its file. It
// returns false when no file carries id.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, _, doc, err := s.locate(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	meta := rebuild.MetadataFor(path, doc)
	projects := []string{meta.Project}
	tags := meta.Tags
	if rec, ok := s.idx.GetMetadata(id); ok {
		projects = append(projects, rec.Project)
		tags = append(tags, rec.Tags...)
	}

	for _, p := range projects {
		if err := s.idx.RemoveFromProject(p, id); err != nil {
			return false, fmt.Errorf("noteservice: delete: %w", err)
		}
	}
	if err := s.idx.RemoveTags(parser.NormalizeTags(tags), id); err != nil {
		return false, fmt.Errorf("noteservice: delete: %w", err)
	}
	if err := s.idx.RemoveMetadata(id); err != nil {
		return false, fmt.Errorf("noteservice: delete: %w", err)
	}
	if err := s.links.Remove(id); err != nil {
		return false, fmt.Errorf("noteservice: delete: %w", err)
	}

	if err := s.store.Delete(path); err != nil {
		return false, fmt.Errorf("noteservice: delete: %w", err)
	}
	s.logger.Debug("noteservice: deleted", slog.String("id", id), slog.String("path", path))
	return true, nil
}

// ListOptions selects notes for a canonical scan.
type ListOptions struct {
	Project string
	Limit   int
}

// List scans the canonical store directly, bypassing the indexes. Files
// that fail to parse or carry no id are logged and skipped.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Note, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	paths, err := s.store.List(opts.Project)
	if err != nil {
		return nil, fmt.Errorf("noteservice: list: %w", err)
	}

	notes := make([]models.Note, 0, len(paths))
	for _, p := range paths {
		data, err := s.store.Read(p)
		if err != nil {
			s.logger.Warn("noteservice: list read failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		doc, err := parser.Parse(data)
		if err != nil {
			s.logger.Warn("noteservice: list parse failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if doc.Meta.ID == "" {
			s.logger.Warn("noteservice: list skipped document without id", slog.String("path", p))
			continue
		}
		meta := rebuild.MetadataFor(p, doc)
		notes = append(notes, models.Note{
			ID:       meta.ID,
			Title:    meta.Title,
			Content:  doc.Body,
			Created:  meta.Created,
			Modified: meta.Modified,
			Project:  meta.Project,
			Type:     meta.Type,
			Tags:     meta.Tags,
			User:     doc.Meta.User,
			FilePath: p,
			Checksum: storage.Checksum(data),
		})
	}

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Created != notes[j].Created {
			return notes[i].Created > notes[j].Created
		}
		return notes[i].ID < notes[j].ID
	})
	if len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// FilterOptions selects notes from the indexes. Project and Tag combine
// as an intersection when both are set.
type FilterOptions struct {
	Project string
	Tag     string
	Limit   int
	Offset  int
}

// Filter returns metadata records from the indexes, newest first.
func (s *Service) Filter(ctx context.Context, opts FilterOptions) []models.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultFilterLimit
	}
	if opts.Project == "" && opts.Tag == "" {
		return s.idx.AllMetadata(limit, opts.Offset)
	}

	var ids []string
	switch {
	case opts.Project != "" && opts.Tag != "":
		inTag := make(map[string]struct{})
		for _, id := range s.idx.NotesByTag(opts.Tag) {
			inTag[id] = struct{}{}
		}
		for _, id := range s.idx.NotesByProject(opts.Project) {
			if _, ok := inTag[id]; ok {
				ids = append(ids, id)
			}
		}
	case opts.Project != "":
		ids = s.idx.NotesByProject(opts.Project)
	default:
		ids = s.idx.NotesByTag(opts.Tag)
	}

	out := make([]models.Metadata, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.idx.GetMetadata(id); ok {
			out = append(out, m)
		}
	}
	index.SortByCreatedDesc(out)
	return index.Page(out, limit, opts.Offset)
}

// Search matches query against note titles case-insensitively. An empty
// query returns the newest notes.
func (s *Service) Search(ctx context.Context, query string, limit int) []models.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultFilterLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))
	all := s.idx.AllMetadata(0, 0)
	if q == "" {
		return index.Page(all, limit, 0)
	}
	out := make([]models.Metadata, 0)
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Metadata returns the metadata record of id.
func (s *Service) Metadata(ctx context.Context, id string) (models.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.idx.GetMetadata(id)
	if !ok {
		return models.Metadata{}, apperr.ErrNotFound
	}
	return m, nil
}

// Tags returns every tag with its note count, most used first.
func (s *Service) Tags(ctx context.Context) []models.TagCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.TagCounts()
}

// Backlinks returns the ids of notes linking to the note id.
func (s *Service) Backlinks(ctx context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.idx.GetMetadata(id); ok {
		return s.links.Backlinks(m.Title), nil
	}
	path, _, doc, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	return s.links.Backlinks(rebuild.MetadataFor(path, doc).Title), nil
}

// NotesByProject returns the ids filed under project. It waits for any
// running mutation or rebuild, so callers never observe a cleared index.
func (s *Service) NotesByProject(project string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.NotesByProject(project)
}

// RegenerateAll rebuilds every index from the canonical store.
func (s *Service) RegenerateAll(ctx context.Context) (rebuild.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuilder.RegenerateAll(ctx)
}
