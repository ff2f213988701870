package wikilink

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"

	"github.com/starford/alma/internal/index"
	"github.com/starford/alma/internal/models"
)

func testResolver(t *testing.T) (*Resolver, *index.Store) {
	t.Helper()
	idx, err := index.Open(filepath.Join(t.TempDir(), ".indexes"), slog.Default())
	require.NoError(t, err)
	return NewResolver(idx), idx
}

func TestExtract(t *testing.T) {
	refs := Extract("See [[Alpha]] and [[Alpha]] again, then [[Todo List]].")
	assert.Equal(t, []string{"Alpha", "Todo List"}, refs)

	assert.Empty(t, Extract("no links here, [single] brackets, [[]] empty"))
	assert.Equal(t, []string{"a [b"}, Extract("[[a [b]]"))
}

func TestExtractDuplicateCollapses(t *testing.T) {
	refs := Extract("[[Alpha]] [[Alpha]]")
	require.Len(t, refs, 1)
	assert.Equal(t, "Alpha", refs[0])
}

func TestResolveCaseInsensitiveExact(t *testing.T) {
	r, idx := testResolver(t)
	require.NoError(t, idx.UpsertMetadata("a", models.Metadata{Title: "Alpha", Created: "2025-01-01T00:00:00.000000Z"}))
	require.NoError(t, idx.UpsertMetadata("b", models.Metadata{Title: "Alphabet", Created: "2025-01-02T00:00:00.000000Z"}))

	id, ok := r.Resolve("alpha")
	require.True(t, ok)
	assert.Equal(t, "a", id)

	_, ok = r.Resolve("Alph")
	assert.False(t, ok, "substring must not match")
}

func TestBacklinks(t *testing.T) {
	r, _ := testResolver(t)
	require.NoError(t, r.IndexOutbound("x", []string{"alpha", "Other"}))
	require.NoError(t, r.IndexOutbound("y", []string{"ALPHA"}))
	require.NoError(t, r.IndexOutbound("z", []string{"Beta"}))

	assert.Equal(t, []string{"x", "y"}, r.Backlinks("Alpha"))
	assert.Empty(t, r.Backlinks("Gamma"))

	require.NoError(t, r.Remove("x"))
	assert.Equal(t, []string{"y"}, r.Backlinks("Alpha"))
}

func TestRender(t *testing.T) {
	r, idx := testResolver(t)
	require.NoError(t, idx.UpsertMetadata("id-a", models.Metadata{Title: "Alpha"}))

	out := r.Render("Go to [[alpha]] or [[Missing <b>]].")
	assert.Contains(t, out, `<a href="#note-id-a" class="wiki-link" data-note-id="id-a">[[alpha]]</a>`)
	assert.Contains(t, out, `<span class="wiki-link-broken">[[Missing &lt;b&gt;]]</span>`)
	assert.True(t, strings.HasPrefix(out, "Go to "))

	_, ok := idx.LinksOf("id-a")
	assert.False(t, ok, "render must not touch the link index")
}

func TestExtensionRendersLinksInMarkdown(t *testing.T) {
	r, idx := testResolver(t)
	require.NoError(t, idx.UpsertMetadata("id-a", models.Metadata{Title: "Alpha"}))
	md := goldmark.New(goldmark.WithExtensions(Extension{Resolver: r}))

	var buf bytes.Buffer
	require.NoError(t, md.Convert([]byte("See **[[Alpha]]**, [[Gone]] and [x](y) <b>raw</b>"), &buf))
	out := buf.String()

	assert.Contains(t, out, `<strong><a href="#note-id-a" class="wiki-link" data-note-id="id-a">[[Alpha]]</a></strong>`)
	assert.Contains(t, out, `<span class="wiki-link-broken">[[Gone]]</span>`)
	assert.Contains(t, out, `<a href="y">x</a>`)
	assert.NotContains(t, out, "<b>")
}

func TestExtensionLeavesUnclosedMarkers(t *testing.T) {
	r, _ := testResolver(t)
	md := goldmark.New(goldmark.WithExtensions(Extension{Resolver: r}))

	var buf bytes.Buffer
	require.NoError(t, md.Convert([]byte("open [[ only"), &buf))
	assert.Equal(t, "<p>open [[ only</p>\n", buf.String())
}

