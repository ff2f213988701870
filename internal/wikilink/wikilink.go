// Package wikilink extracts [[reference]] markers from note content,
// maintains the outbound-link index and resolves references to note ids.
package wikilink

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/alma/internal/index"
)

// linkRe matches [[text]] where text contains no closing bracket.
var linkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Extract returns the distinct reference texts found in content, sorted.
func Extract(content string) []string {
	matches := linkRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		ref := m[1]
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Resolver answers link queries against the index store.
type Resolver struct {
	idx *index.Store
}

// NewResolver creates a Resolver over idx.
func NewResolver(idx *index.Store) *Resolver {
	return &Resolver{idx: idx}
}

// IndexOutbound replaces the outbound reference set of noteID.
func (r *Resolver) IndexOutbound(noteID string, refs []string) error {
	if refs == nil {
		refs = []string{}
	}
	return r.idx.SetLinks(noteID, refs)
}

// Remove drops the outbound entry of noteID.
func (r *Resolver) Remove(noteID string) error {
	return r.idx.RemoveLinks(noteID)
}

// Resolve finds the note whose title equals ref case-insensitively. When
// several match, the newest note wins. Linear in the corpus size.
func (r *Resolver) Resolve(ref string) (string, bool) {
	want := strings.ToLower(ref)
	for _, m := range r.idx.AllMetadata(0, 0) {
		if strings.ToLower(m.Title) == want {
			return m.ID, true
		}
	}
	return "", false
}

// Backlinks returns the ids of notes with an outbound reference equal to
// title case-insensitively, in note id order.
func (r *Resolver) Backlinks(title string) []string {
	want := strings.ToLower(title)
	out := []string{}
	r.idx.EachLinks(func(noteID string, refs []string) {
		for _, ref := range refs {
			if strings.ToLower(ref) == want {
				out = append(out, noteID)
				return
			}
		}
	})
	return out
}

// Render replaces each reference marker with a cross-reference anchor when
// it resolves, or a broken-link span when it does not. It never mutates
// any index.
func (r *Resolver) Render(content string) string {
	resolved := make(map[string]string)
	return linkRe.ReplaceAllStringFunc(content, func(match string) string {
		ref := linkRe.FindStringSubmatch(match)[1]
		id, ok := resolved[ref]
		if !ok {
			id, _ = r.Resolve(ref)
			resolved[ref] = id
		}
		return markup(ref, id)
	})
}

// markup is the HTML of one reference: an anchor to id, or a broken-link
// span when id is empty.
func markup(ref, id string) string {
	text := html.EscapeString(ref)
	if id == "" {
		return fmt.Sprintf(`<span class="wiki-link-broken">[[%s]]</span>`, text)
	}
	eid := html.EscapeString(id)
	return fmt.Sprintf(`<a href="#note-%s" class="wiki-link" data-note-id="%s">[[%s]]</a>`, eid, eid, text)
}
