// Package projects is the SQLite-backed project registry. Note counts are
// derived from the project index, never stored.
package projects

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/alma/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	color       TEXT NOT NULL DEFAULT 'gray',
	description TEXT NOT NULL DEFAULT '',
	is_default  INTEGER NOT NULL DEFAULT 0,
	created     TEXT NOT NULL,
	modified    TEXT NOT NULL DEFAULT ''
);
`

const (
	defaultName        = "Default"
	defaultDescription = "Default project for all notes"
)

// NoteCounter reports the notes filed under a project.
type NoteCounter interface {
	NotesByProject(project string) []string
}

// AreaCreator prepares the storage area of a project.
type AreaCreator interface {
	EnsureDir(dir string) error
}

// Registry stores project records.
type Registry struct {
	conn  *sql.DB
	notes NoteCounter
	areas AreaCreator
	now   func() time.Time
}

// Open opens (or creates) the registry database, applies the schema and
// makes sure the default project exists.
func Open(dsn string, notes NoteCounter, areas AreaCreator) (*Registry, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("projects: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("projects: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("projects: apply schema: %w", err)
	}

	r := &Registry{conn: conn, notes: notes, areas: areas, now: time.Now}
	if err := r.ensureDefault(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Registry) ensureDefault(ctx context.Context) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO projects (id, name, color, description, is_default, created)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		models.DefaultProjectID, defaultName, models.ColorBlue, defaultDescription, models.FormatTime(r.now()))
	if err != nil {
		return fmt.Errorf("projects: ensure default: %w", err)
	}
	if r.areas != nil {
		if err := r.areas.EnsureDir(models.DefaultProjectID); err != nil {
			return fmt.Errorf("projects: ensure default area: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (r *Registry) Close() error {
	return r.conn.Close()
}
