// Package testutil provides shared test helpers for setting up vaults,
// index stores and the project registry.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/alma/internal/index"
	"github.com/starford/alma/internal/parser"
	"github.com/starford/alma/internal/storage"
)

// Logger returns a logger that discards everything below Error.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestIndex opens an index store in a temporary directory.
func TestIndex(t *testing.T) *index.Store {
	t.Helper()
	idx, err := index.Open(filepath.Join(t.TempDir(), "indexes"), Logger())
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

// TestDBPath returns a path for a temporary SQLite database file.
func TestDBPath(t *testing.T) string {
	t.Helper()
	dbFile, err := os.CreateTemp("", "alma-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	return dbFile.Name()
}

// WriteNote stores a canonical document at path, bypassing the lifecycle
// manager, to simulate external edits.
func WriteNote(t *testing.T, store storage.Provider, path string, fm parser.Frontmatter, body string) {
	t.Helper()
	data, err := parser.Marshal(parser.Document{Meta: fm, Body: body})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(path, data); err != nil {
		t.Fatal(err)
	}
}
