package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gosimple/slug"

	"github.com/starford/alma/internal/apperr"
	"github.com/starford/alma/internal/models"
)

// MaxIDLen bounds the slug derived from a project name.
const MaxIDLen = 50

// CreateInput carries the fields of a new project.
type CreateInput struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Validate checks the input fields.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Description, validation.Length(0, 500)),
	)
}

// UpdateInput carries optional changes to a project. Nil fields are kept.
type UpdateInput struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// Validate checks the input fields that are set.
func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&in.Description, validation.Length(0, 500)),
	)
}

// Slug derives a project id from a display name.
func Slug(name string) string {
	id := slug.Make(name)
	if utf8.RuneCountInString(id) > MaxIDLen {
		id = strings.TrimRight(string([]rune(id)[:MaxIDLen]), "-")
	}
	return id
}

const selectCols = `id, name, color, description, is_default, created, modified`

// List returns every project with its note count, default first, then in
// creation order.
func (r *Registry) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+selectCols+` FROM projects ORDER BY is_default DESC, created ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("projects: list: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("projects: list: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Get returns the project with id.
func (r *Registry) Get(ctx context.Context, id string) (*models.Project, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+selectCols+` FROM projects WHERE id = ?`, id)
	p, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("projects: get: %w", err)
	}
	return p, nil
}

// Create registers a project. The id is the slug of the name; an empty or
// taken slug is a validation error. Unknown colors become gray. The
// project's storage area is created as well.
func (r *Registry) Create(ctx context.Context, in CreateInput) (*models.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	id := Slug(in.Name)
	if id == "" {
		return nil, fmt.Errorf("%w: invalid project name", apperr.ErrValidation)
	}
	color := in.Color
	if !models.ValidColor(color) {
		color = models.ColorGray
	}

	res, err := r.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO projects (id, name, color, description, is_default, created)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		id, in.Name, color, in.Description, models.FormatTime(r.now()))
	if err != nil {
		return nil, fmt.Errorf("projects: create: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: project %q already exists", apperr.ErrValidation, id)
	}

	if r.areas != nil {
		if err := r.areas.EnsureDir(id); err != nil {
			return nil, fmt.Errorf("projects: create area: %w", err)
		}
	}
	return r.Get(ctx, id)
}

// Update changes the set fields of a project. An invalid color is ignored
// and the current one kept.
func (r *Registry) Update(ctx context.Context, id string, in UpdateInput) (*models.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Color != nil && models.ValidColor(*in.Color) {
		p.Color = *in.Color
	}
	if in.Description != nil {
		p.Description = *in.Description
	}

	_, err = r.conn.ExecContext(ctx,
		`UPDATE projects SET name = ?, color = ?, description = ?, modified = ? WHERE id = ?`,
		p.Name, p.Color, p.Description, models.FormatTime(r.now()), id)
	if err != nil {
		return nil, fmt.Errorf("projects: update: %w", err)
	}
	return r.Get(ctx, id)
}

// Delete removes a project. The default project and projects that still
// hold notes cannot be deleted.
func (r *Registry) Delete(ctx context.Context, id string) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.IsDefault {
		return fmt.Errorf("%w: cannot delete default project", apperr.ErrValidation)
	}
	if p.NoteCount > 0 {
		return fmt.Errorf("%w: project %q has %d notes", apperr.ErrValidation, id, p.NoteCount)
	}
	if _, err := r.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("projects: delete: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Registry) scan(s scanner) (*models.Project, error) {
	var (
		p         models.Project
		isDefault int
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Color, &p.Description, &isDefault, &p.Created, &p.Modified); err != nil {
		return nil, err
	}
	p.IsDefault = isDefault == 1
	if r.notes != nil {
		p.NoteCount = len(r.notes.NotesByProject(p.ID))
	}
	return &p, nil
}
