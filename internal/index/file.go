package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// Index is one JSON-file backed mapping from string keys to V.
//
// Every method holds the index mutex for its whole load-mutate-save cycle,
// so concurrent callers in one process never lose each other's updates.
// Save always overwrites the full mapping.
type Index[V any] struct {
	name   string
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

func newIndex[V any](dir, name string, logger *slog.Logger) *Index[V] {
	return &Index[V]{
		name:   name,
		path:   filepath.Join(dir, name+".json"),
		logger: logger,
	}
}

// Name returns the index resource name (e.g. "tags").
func (ix *Index[V]) Name() string {
	return ix.name
}

// Path returns the backing file path.
func (ix *Index[V]) Path() string {
	return ix.path
}

// Load returns the current mapping. Absent or malformed files yield an
// empty mapping; corruption is logged, never returned.
func (ix *Index[V]) Load() map[string]V {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.load()
}

// Save overwrites the mapping on disk.
func (ix *Index[V]) Save(m map[string]V) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.save(m)
}

// Update loads the mapping, applies fn and saves the result when fn
// reports a change.
func (ix *Index[V]) Update(fn func(m map[string]V) bool) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	m := ix.load()
	if !fn(m) {
		return nil
	}
	return ix.save(m)
}

// View calls fn with the loaded mapping under the index lock.
func (ix *Index[V]) View(fn func(m map[string]V)) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	fn(ix.load())
}

// Clear resets the mapping to empty.
func (ix *Index[V]) Clear() error {
	return ix.Save(map[string]V{})
}

func (ix *Index[V]) load() map[string]V {
	m := make(map[string]V)
	data, err := os.ReadFile(ix.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			ix.logger.Warn("index: read failed, treating as empty",
				slog.String("index", ix.name),
				slog.String("error", err.Error()))
		}
		return m
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return m
	}
	if err := json.Unmarshal(data, &m); err != nil {
		ix.logger.Warn("index: corrupt file, treating as empty",
			slog.String("index", ix.name),
			slog.String("path", ix.path),
			slog.String("error", err.Error()))
		return make(map[string]V)
	}
	return m
}

func (ix *Index[V]) save(m map[string]V) error {
	if m == nil {
		m = map[string]V{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("index: encode %s: %w", ix.name, err)
	}
	if err := atomic.WriteFile(ix.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("index: save %s: %w", ix.name, err)
	}
	return nil
}
