package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/alma/internal/cache"
	"github.com/starford/alma/internal/models"
	"github.com/starford/alma/internal/noteservice"
	"github.com/starford/alma/internal/projects"
	"github.com/starford/alma/internal/rebuild"
	"github.com/starford/alma/internal/sse"
)

// Events receives change notifications for connected clients.
type Events interface {
	PublishNoteEvent(change sse.NoteChange, id string)
	PublishRebuilt(count int)
}

// Handler holds API route handlers.
type Handler struct {
	notes    *noteservice.Service
	projects *projects.Registry
	cache    *cache.Cache
	events   Events
	logger   *slog.Logger
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(notes *noteservice.Service, reg *projects.Registry, c *cache.Cache, events Events, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{notes: notes, projects: reg, cache: c, events: events, logger: logger}
}

func (h *Handler) publish(change sse.NoteChange, id string) {
	if h.events != nil {
		h.events.PublishNoteEvent(change, id)
	}
}

// Regenerate rebuilds every index, drops every cached entry and announces
// the result. It backs both the admin route and the store watcher.
func (h *Handler) Regenerate(ctx context.Context) (rebuild.Result, error) {
	res, err := h.notes.RegenerateAll(ctx)
	h.cache.Purge()
	if err != nil {
		return res, err
	}
	if h.events != nil {
		h.events.PublishRebuilt(res.Indexed)
	}
	return res, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes from the indexes, or by scanning the store
//	@Tags			notes
//	@Produce		json
//	@Param			project	query		string	false	"Filter by project"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			scan	query		bool	false	"Scan the canonical store instead of the indexes"
//	@Success		200		{object}	MetadataListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project := q.Get("project")
	limit := queryInt(r, "limit")

	if scan, _ := strconv.ParseBool(q.Get("scan")); scan {
		notes, err := h.notes.List(r.Context(), noteservice.ListOptions{Project: project, Limit: limit})
		if err != nil {
			writeError(w, h.logger, "list notes", err)
			return
		}
		writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
		return
	}

	metas := h.notes.Filter(r.Context(), noteservice.FilterOptions{
		Project: project,
		Tag:     q.Get("tag"),
		Limit:   limit,
		Offset:  queryInt(r, "offset"),
	})
	writeJSON(w, http.StatusOK, MetadataListResponse{Notes: metas, Total: len(metas)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note with backlinks and rendered content
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "get note", err)
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, note)
}

// NoteMetadata handles GET /api/notes/{id}/metadata.
//
//	@Summary		Get the metadata record of a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Metadata
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/metadata [get]
func (h *Handler) NoteMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta, err := cache.Lookup(h.cache, cache.MetadataKey(id), func() (models.Metadata, error) {
		return h.notes.Metadata(r.Context(), id)
	})
	if err != nil {
		writeError(w, h.logger, "note metadata", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// NoteBacklinks handles GET /api/notes/{id}/backlinks.
//
//	@Summary		List notes linking to a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	BacklinksResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/backlinks [get]
func (h *Handler) NoteBacklinks(w http.ResponseWriter, r *http.Request) {
	ids, err := h.notes.Backlinks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: ids})
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.notes.Create(r.Context(), noteservice.CreateInput{
		Content: req.Content,
		Project: req.Project,
		Type:    req.Type,
		Tags:    req.Tags,
		User:    UserFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, h.logger, "create note", err)
		return
	}
	h.cache.Invalidate(cache.MetadataKey(note.ID), cache.KeyTags, cache.KeyProjects)
	h.publish(sse.NoteCreated, note.ID)
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateNoteRequest	true	"Updated content"
//	@Success		200			{object}	models.Note
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := noteservice.UpdateInput{
		Content: req.Content,
		IfMatch: strings.Trim(r.Header.Get("If-Match"), `"`),
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
		if in.Tags == nil {
			in.Tags = []string{}
		}
	}

	note, err := h.notes.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, h.logger, "update note", err)
		return
	}
	h.cache.Invalidate(cache.MetadataKey(id), cache.KeyTags)
	h.publish(sse.NoteUpdated, id)
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.notes.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "delete note", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.cache.Invalidate(cache.MetadataKey(id), cache.KeyTags, cache.KeyProjects)
	h.publish(sse.NoteDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Search note titles
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	false	"Title substring; empty returns the newest notes"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results := h.notes.Search(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit"))
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Tags handles GET /api/tags.
//
//	@Summary		List tags by usage
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, _ := cache.Lookup(h.cache, cache.KeyTags, func() ([]models.TagCount, error) {
		return h.notes.Tags(r.Context()), nil
	})
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// RegenerateIndexes handles POST /api/admin/regenerate.
//
//	@Summary		Rebuild every index from the note files
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	RegenerateResponse
//	@Security		BearerAuth
//	@Router			/admin/regenerate [post]
func (h *Handler) RegenerateIndexes(w http.ResponseWriter, r *http.Request) {
	res, err := h.Regenerate(r.Context())
	if err != nil {
		writeError(w, h.logger, "regenerate", err)
		return
	}
	h.logger.Info("api: indexes regenerated", slog.Int("indexed", res.Indexed), slog.Int("errors", res.Errors))
	writeJSON(w, http.StatusOK, RegenerateResponse{Indexed: res.Indexed, Errors: res.Errors})
}
