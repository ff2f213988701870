package projects

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/alma/internal/apperr"
	"github.com/starford/alma/internal/index"
	"github.com/starford/alma/internal/models"
	"github.com/starford/alma/internal/noteservice"
	"github.com/starford/alma/internal/storage"
	"github.com/starford/alma/internal/testutil"
)

func testRegistry(t *testing.T) (*Registry, *index.Store, string) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	idx := testutil.TestIndex(t)
	r, err := Open(testutil.TestDBPath(t), idx, store)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, idx, vaultDir
}

func TestOpenEnsuresDefault(t *testing.T) {
	r, _, vaultDir := testRegistry(t)
	ctx := context.Background()

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.DefaultProjectID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.Equal(t, models.ColorBlue, list[0].Color)

	info, err := os.Stat(filepath.Join(vaultDir, models.DefaultProjectID))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenIsRepeatable(t *testing.T) {
	_, store := testutil.TestVault(t)
	dsn := testutil.TestDBPath(t)
	for i := 0; i < 2; i++ {
		r, err := Open(dsn, nil, store)
		require.NoError(t, err)
		list, err := r.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, list, 1)
		require.NoError(t, r.Close())
	}
}

func TestCreate(t *testing.T) {
	r, _, vaultDir := testRegistry(t)
	ctx := context.Background()

	p, err := r.Create(ctx, CreateInput{Name: "Deep Research!", Color: "green", Description: "papers"})
	require.NoError(t, err)
	assert.Equal(t, "deep-research", p.ID)
	assert.Equal(t, "Deep Research!", p.Name)
	assert.Equal(t, "green", p.Color)
	assert.False(t, p.IsDefault)
	assert.NotEmpty(t, p.Created)

	_, err = os.Stat(filepath.Join(vaultDir, "deep-research"))
	assert.NoError(t, err, "storage area must exist")

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.DefaultProjectID, list[0].ID)
}

func TestCreateCoercesColor(t *testing.T) {
	r, _, _ := testRegistry(t)
	p, err := r.Create(context.Background(), CreateInput{Name: "Misc", Color: "chartreuse"})
	require.NoError(t, err)
	assert.Equal(t, models.ColorGray, p.Color)
}

func TestCreateValidation(t *testing.T) {
	r, _, _ := testRegistry(t)
	ctx := context.Background()

	_, err := r.Create(ctx, CreateInput{Name: ""})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = r.Create(ctx, CreateInput{Name: "!!!"})
	assert.True(t, errors.Is(err, apperr.ErrValidation), "empty slug")

	_, err = r.Create(ctx, CreateInput{Name: "Work"})
	require.NoError(t, err)
	_, err = r.Create(ctx, CreateInput{Name: "work"})
	assert.True(t, errors.Is(err, apperr.ErrValidation), "duplicate id")
}

func TestSlugLength(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "ab "
	}
	id := Slug(long)
	assert.LessOrEqual(t, len(id), MaxIDLen)
	assert.NotEqual(t, byte('-'), id[len(id)-1])
}

func TestUpdate(t *testing.T) {
	r, _, _ := testRegistry(t)
	ctx := context.Background()
	_, err := r.Create(ctx, CreateInput{Name: "Garden", Color: "green"})
	require.NoError(t, err)

	name := "Garden 2025"
	bad := "chartreuse"
	p, err := r.Update(ctx, "garden", UpdateInput{Name: &name, Color: &bad})
	require.NoError(t, err)
	assert.Equal(t, "garden", p.ID, "id is immutable")
	assert.Equal(t, "Garden 2025", p.Name)
	assert.Equal(t, "green", p.Color, "invalid color is ignored")
	assert.NotEmpty(t, p.Modified)

	_, err = r.Update(ctx, "missing", UpdateInput{Name: &name})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDeleteRules(t *testing.T) {
	r, idx, _ := testRegistry(t)
	ctx := context.Background()

	err := r.Delete(ctx, models.DefaultProjectID)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	err = r.Delete(ctx, "ghost")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = r.Create(ctx, CreateInput{Name: "Busy"})
	require.NoError(t, err)
	require.NoError(t, idx.AddToProject("busy", "n1"))
	err = r.Delete(ctx, "busy")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	require.NoError(t, idx.RemoveFromProject("busy", "n1"))
	require.NoError(t, r.Delete(ctx, "busy"))
	_, err = r.Get(ctx, "busy")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestResearchScenario(t *testing.T) {
	ctx := context.Background()
	_, store := testutil.TestVault(t)
	idx := testutil.TestIndex(t)
	notes := noteservice.New(store, idx, noteservice.WithLogger(testutil.Logger()))
	r, err := Open(testutil.TestDBPath(t), notes, store)
	require.NoError(t, err)
	defer r.Close()

	p, err := r.Create(ctx, CreateInput{Name: "research"})
	require.NoError(t, err)
	assert.Equal(t, "research", p.ID)

	n, err := notes.Create(ctx, noteservice.CreateInput{Content: "Paper", Project: p.ID, Tags: []string{"draft"}})
	require.NoError(t, err)

	assert.Contains(t, idx.AllProjects(), "research")
	got, err := r.Get(ctx, "research")
	require.NoError(t, err)
	assert.Equal(t, 1, got.NoteCount)

	ok, err := notes.Delete(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)

	assert.NoError(t, r.Delete(ctx, "research"))
}

// pausingStore blocks the first full listing until release is closed,
// holding a rebuild between clearing and refilling the indexes.
type pausingStore struct {
	storage.Provider
	paused  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingStore) List(dir string) ([]string, error) {
	if dir == "" {
		p.once.Do(func() {
			close(p.paused)
			<-p.release
		})
	}
	return p.Provider.List(dir)
}

func TestDeleteDuringRebuildKeepsNonEmptyProject(t *testing.T) {
	ctx := context.Background()
	_, base := testutil.TestVault(t)
	store := &pausingStore{Provider: base, paused: make(chan struct{}), release: make(chan struct{})}
	idx := testutil.TestIndex(t)
	notes := noteservice.New(store, idx, noteservice.WithLogger(testutil.Logger()))
	r, err := Open(testutil.TestDBPath(t), notes, store)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Create(ctx, CreateInput{Name: "research"})
	require.NoError(t, err)
	_, err = notes.Create(ctx, noteservice.CreateInput{Content: "Paper", Project: "research"})
	require.NoError(t, err)

	rebuilt := make(chan error, 1)
	go func() {
		_, err := notes.RegenerateAll(ctx)
		rebuilt <- err
	}()
	<-store.paused
	require.Empty(t, idx.NotesByProject("research"))

	deleted := make(chan error, 1)
	go func() { deleted <- r.Delete(ctx, "research") }()

	select {
	case err := <-deleted:
		t.Fatalf("delete finished while the rebuild was running: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(store.release)

	require.NoError(t, <-rebuilt)
	err = <-deleted
	assert.True(t, errors.Is(err, apperr.ErrValidation), "err = %v", err)

	p, err := r.Get(ctx, "research")
	require.NoError(t, err)
	assert.Equal(t, 1, p.NoteCount)
}

