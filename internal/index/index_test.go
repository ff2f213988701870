package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/alma/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), ".indexes"), slog.Default())
	require.NoError(t, err)
	return s
}

func TestOpenCreatesDir(t *testing.T) {
	s := testStore(t)
	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestProjectIndex(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.AddToProject("personal", "n1"))
	require.NoError(t, s.AddToProject("personal", "n2"))
	require.NoError(t, s.AddToProject("personal", "n1"))
	require.NoError(t, s.AddToProject("work", "n3"))

	assert.Equal(t, []string{"n1", "n2"}, s.NotesByProject("personal"))
	assert.Equal(t, []string{"personal", "work"}, s.AllProjects())
	assert.Empty(t, s.NotesByProject("unknown"))

	require.NoError(t, s.RemoveFromProject("work", "n3"))
	assert.Equal(t, []string{"personal"}, s.AllProjects(), "empty bucket must be deleted")

	require.NoError(t, s.RemoveFromProject("work", "n3"))
	require.NoError(t, s.RemoveFromProject("personal", "missing"))
	assert.Equal(t, map[string]int{"personal": 2}, s.ProjectCounts())
}

func TestTagIndex(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.AddTags([]string{"python", "testing"}, "n1"))
	require.NoError(t, s.AddTags([]string{"python"}, "n2"))
	require.NoError(t, s.AddTags(nil, "n3"))

	assert.Equal(t, []string{"n1", "n2"}, s.NotesByTag("python"))
	assert.Equal(t, []string{"n1"}, s.NotesByTag("testing"))

	require.NoError(t, s.RemoveTags([]string{"testing"}, "n1"))
	assert.Empty(t, s.NotesByTag("testing"))
	assert.NotContains(t, s.AllTags(), "testing", "empty tag bucket must be pruned")
}

func TestUpdateTagsSymmetricDifference(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AddTags([]string{"A", "B"}, "n1"))
	require.NoError(t, s.AddTags([]string{"B"}, "n0"))

	require.NoError(t, s.UpdateTags([]string{"A", "B"}, []string{"B", "C"}, "n1"))

	assert.NotContains(t, s.NotesByTag("A"), "n1")
	assert.Equal(t, []string{"n1", "n0"}, s.NotesByTag("B"), "unchanged tag keeps its order")
	assert.Equal(t, []string{"n1"}, s.NotesByTag("C"))
}

func TestAllTagsOrdering(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AddTags([]string{"beta", "Alpha", "gamma"}, "n1"))
	require.NoError(t, s.AddTags([]string{"gamma"}, "n2"))
	require.NoError(t, s.AddTags([]string{"gamma", "alpha2"}, "n3"))

	assert.Equal(t, []string{"gamma", "Alpha", "alpha2", "beta"}, s.AllTags())

	counts := s.TagCounts()
	require.Len(t, counts, 4)
	assert.Equal(t, models.TagCount{Tag: "gamma", Count: 3}, counts[0])
}

func TestMetadataIndex(t *testing.T) {
	s := testStore(t)
	meta := models.Metadata{
		Title:    "Test Note",
		Created:  "2025-01-01T10:00:00.000000Z",
		Modified: "2025-01-01T10:00:00.000000Z",
		FilePath: "personal/test.md",
		Project:  "personal",
		Type:     "note",
		Tags:     []string{"x"},
	}
	require.NoError(t, s.UpsertMetadata("n1", meta))

	got, ok := s.GetMetadata("n1")
	require.True(t, ok)
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, "Test Note", got.Title)
	assert.Equal(t, "personal/test.md", got.FilePath)

	title := "Renamed"
	modified := "2025-01-02T10:00:00.000000Z"
	tags := []string{"y", "z"}
	require.NoError(t, s.PatchMetadata("n1", models.MetadataPatch{Title: &title, Modified: &modified, Tags: &tags}))

	got, _ = s.GetMetadata("n1")
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, modified, got.Modified)
	assert.Equal(t, meta.Created, got.Created, "patch must not touch other fields")
	assert.Equal(t, []string{"y", "z"}, got.Tags)

	require.NoError(t, s.PatchMetadata("ghost", models.MetadataPatch{Title: &title}))
	_, ok = s.GetMetadata("ghost")
	assert.False(t, ok, "patch must not create records")

	require.NoError(t, s.RemoveMetadata("n1"))
	_, ok = s.GetMetadata("n1")
	assert.False(t, ok)
}

func TestAllMetadataPagination(t *testing.T) {
	s := testStore(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.UpsertMetadata(fmt.Sprintf("n%d", i), models.Metadata{
			Title:   fmt.Sprintf("Note %d", i),
			Created: fmt.Sprintf("2025-01-0%dT10:00:00.000000Z", i),
		}))
	}

	first := s.AllMetadata(2, 0)
	second := s.AllMetadata(2, 2)
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, "n5", first[0].ID)
	assert.Equal(t, "n4", first[1].ID)
	assert.Equal(t, "n3", second[0].ID)
	assert.Equal(t, "n2", second[1].ID)

	assert.Len(t, s.AllMetadata(0, 0), 5)
	assert.Empty(t, s.AllMetadata(10, 10))
}

func TestLinksIndex(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SetLinks("n1", []string{"Alpha", "Beta"}))
	require.NoError(t, s.SetLinks("n1", []string{"Gamma"}))

	refs, ok := s.LinksOf("n1")
	require.True(t, ok)
	assert.Equal(t, []string{"Gamma"}, refs, "set must replace, not merge")

	require.NoError(t, s.RemoveLinks("n1"))
	_, ok = s.LinksOf("n1")
	assert.False(t, ok)
}

func TestCorruptIndexTreatedAsEmpty(t *testing.T) {
	s := testStore(t)
	require.NoError(t, os.WriteFile(s.Tags().Path(), []byte("{not json"), 0o644))

	assert.Empty(t, s.AllTags())
	require.NoError(t, s.AddTags([]string{"fresh"}, "n1"))
	assert.Equal(t, []string{"n1"}, s.NotesByTag("fresh"))
}

func TestClearAll(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AddToProject("p", "n1"))
	require.NoError(t, s.AddTags([]string{"t"}, "n1"))
	require.NoError(t, s.UpsertMetadata("n1", models.Metadata{Title: "x"}))
	require.NoError(t, s.SetLinks("n1", []string{"y"}))

	require.NoError(t, s.ClearAll())

	sn := s.Snapshot()
	assert.Empty(t, sn.Projects)
	assert.Empty(t, sn.Tags)
	assert.Empty(t, sn.Metadata)
	assert.Empty(t, sn.Links)
}

func TestReplaceAndSnapshot(t *testing.T) {
	s := testStore(t)
	sn := NewSnapshot()
	sn.Add(models.Metadata{ID: "n1", Project: "p", Tags: []string{"a"}, Title: "One"}, []string{"Two"})
	sn.Add(models.Metadata{ID: "n2", Project: "p", Tags: []string{"a", "b"}, Title: "Two"}, nil)
	require.NoError(t, s.Replace(sn))

	assert.Equal(t, []string{"n1", "n2"}, s.NotesByProject("p"))
	assert.Equal(t, []string{"n1", "n2"}, s.NotesByTag("a"))
	refs, _ := s.LinksOf("n1")
	assert.Equal(t, []string{"Two"}, refs)

	got := s.Snapshot()
	assert.Equal(t, sn.Projects, got.Projects)
	assert.Equal(t, sn.Tags, got.Tags)
}

func TestConcurrentTagUpdatesAreNotLost(t *testing.T) {
	s := testStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AddTags([]string{"shared"}, fmt.Sprintf("n%d", i)))
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.NotesByTag("shared"), 20)
}
