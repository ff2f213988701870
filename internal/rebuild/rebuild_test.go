package rebuild

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/alma/internal/models"
	"github.com/starford/alma/internal/parser"
	"github.com/starford/alma/internal/testutil"
)

func TestRegenerateAll(t *testing.T) {
	_, store := testutil.TestVault(t)
	idx := testutil.TestIndex(t)

	testutil.WriteNote(t, store, "work/a.md", parser.Frontmatter{
		ID: "a", Title: "Alpha", Created: "2025-01-01T10:00:00.000000Z", Project: "work", Tags: []string{"x", "y"},
	}, "Alpha\nsee [[Beta]]")
	testutil.WriteNote(t, store, "personal/b.md", parser.Frontmatter{
		ID: "b", Created: "2025-01-02T10:00:00.000000Z", Tags: []string{"x"},
	}, "Beta body")
	testutil.WriteNote(t, store, "personal/noid.md", parser.Frontmatter{Title: "No id"}, "orphan")
	require.NoError(t, store.Write("broken.md", []byte("---\ntitle: [unclosed\n---\n")))

	// Stale entries must disappear.
	require.NoError(t, idx.AddTags([]string{"stale"}, "ghost"))

	r := New(store, idx, testutil.Logger())
	res, err := r.RegenerateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 2, res.Errors)

	assert.Equal(t, []string{"a"}, idx.NotesByProject("work"))
	assert.Equal(t, []string{"b"}, idx.NotesByProject("personal"), "project falls back to the directory")
	assert.ElementsMatch(t, []string{"a", "b"}, idx.NotesByTag("x"))
	assert.Empty(t, idx.NotesByTag("stale"))

	meta, ok := idx.GetMetadata("b")
	require.True(t, ok)
	assert.Equal(t, "Beta body", meta.Title)
	assert.Equal(t, "note", meta.Type)
	assert.Equal(t, "personal/b.md", meta.FilePath)
	assert.Equal(t, meta.Created, meta.Modified)

	refs, ok := idx.LinksOf("a")
	require.True(t, ok)
	assert.Equal(t, []string{"Beta"}, refs)
}

func TestRegenerateAllIsIdempotent(t *testing.T) {
	_, store := testutil.TestVault(t)
	idx := testutil.TestIndex(t)
	for i, id := range []string{"n1", "n2", "n3"} {
		testutil.WriteNote(t, store, "p/"+id+".md", parser.Frontmatter{
			ID: id, Title: id, Project: "p", Created: models.FormatTime(testTime(i)), Tags: []string{"t"},
		}, "[[n1]]")
	}

	r := New(store, idx, testutil.Logger())
	first, err := r.RegenerateAll(context.Background())
	require.NoError(t, err)
	snap1 := idx.Snapshot()

	second, err := r.RegenerateAll(context.Background())
	require.NoError(t, err)
	snap2 := idx.Snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, 3, second.Indexed)
	assert.Equal(t, snap1, snap2)
}

func TestRegenerateAllDuplicateID(t *testing.T) {
	_, store := testutil.TestVault(t)
	idx := testutil.TestIndex(t)
	testutil.WriteNote(t, store, "p/one.md", parser.Frontmatter{ID: "same", Title: "One"}, "one")
	testutil.WriteNote(t, store, "p/two.md", parser.Frontmatter{ID: "same", Title: "Two"}, "two")

	res, err := New(store, idx, testutil.Logger()).RegenerateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Indexed: 1, Errors: 1}, res)

	meta, ok := idx.GetMetadata("same")
	require.True(t, ok)
	assert.Equal(t, "p/one.md", meta.FilePath, "first path in sorted order wins")
}

func TestMetadataForDefaults(t *testing.T) {
	m := MetadataFor("root.md", &parser.Document{Meta: parser.Frontmatter{ID: "x"}, Body: ""})
	assert.Equal(t, models.DefaultProjectID, m.Project)
	assert.Equal(t, parser.UntitledTitle, m.Title)
	assert.Equal(t, DefaultType, m.Type)
	assert.NotNil(t, m.Tags)
}

func testTime(i int) time.Time {
	return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
}
