package api

import (
	"github.com/starford/alma/internal/models"
	"github.com/starford/alma/internal/projects"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Content string   `json:"content" example:"Groceries\n- milk"`
	Project string   `json:"project" example:"personal"`
	Type    string   `json:"type" example:"note"`
	Tags    []string `json:"tags" example:"home,errands"`
}

// UpdateNoteRequest is the request body for updating a note. Omitting
// tags keeps the current ones.
type UpdateNoteRequest struct {
	Content string    `json:"content" example:"Groceries\n- milk\n- eggs"`
	Tags    *[]string `json:"tags,omitempty"`
}

// NoteListResponse wraps a canonical-scan listing.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// MetadataListResponse wraps an index-backed listing.
type MetadataListResponse struct {
	Notes []models.Metadata `json:"notes" validate:"required"`
	Total int               `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.Metadata `json:"results" validate:"required"`
}

// TagsResponse lists tags with their note counts.
type TagsResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// BacklinksResponse lists the ids of notes linking to a note.
type BacklinksResponse struct {
	Backlinks []string `json:"backlinks" validate:"required"`
}

// RegenerateResponse reports the outcome of a full rebuild.
type RegenerateResponse struct {
	Indexed int `json:"indexed" example:"120"`
	Errors  int `json:"errors" example:"0"`
}

// ProjectListResponse wraps the project list.
type ProjectListResponse struct {
	Projects []models.Project `json:"projects" validate:"required"`
}

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest = projects.CreateInput

// UpdateProjectRequest is the request body for updating a project.
type UpdateProjectRequest = projects.UpdateInput
