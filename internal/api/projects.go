package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/alma/internal/cache"
	"github.com/starford/alma/internal/models"
)

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects with note counts
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	ProjectListResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := cache.Lookup(h.cache, cache.KeyProjects, func() ([]models.Project, error) {
		return h.projects.List(r.Context())
	})
	if err != nil {
		writeError(w, h.logger, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: list})
}

// GetProject handles GET /api/projects/{id}.
//
//	@Summary		Get a project
//	@Tags			projects
//	@Produce		json
//	@Param			id	path		string	true	"Project id"
//	@Success		200	{object}	models.Project
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create a project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project to create"
//	@Success		201		{object}	models.Project
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.projects.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create project", err)
		return
	}
	h.cache.Invalidate(cache.KeyProjects)
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProject handles PUT /api/projects/{id}.
//
//	@Summary		Update a project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Project id"
//	@Param			body	body		UpdateProjectRequest	true	"Fields to change"
//	@Success		200		{object}	models.Project
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [put]
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.projects.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, h.logger, "update project", err)
		return
	}
	h.cache.Invalidate(cache.KeyProjects)
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/projects/{id}.
//
//	@Summary		Delete an empty, non-default project
//	@Tags			projects
//	@Param			id	path	string	true	"Project id"
//	@Success		204	"Project deleted"
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [delete]
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "delete project", err)
		return
	}
	h.cache.Invalidate(cache.KeyProjects)
	w.WriteHeader(http.StatusNoContent)
}
