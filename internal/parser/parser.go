// Package parser reads and writes canonical note documents: a YAML
// frontmatter header followed by a free-text Markdown body.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	delim = "---"

	// MaxTitleLen is the maximum title length in runes.
	MaxTitleLen = 100

	// UntitledTitle is used when content has no usable first line.
	UntitledTitle = "Untitled"
)

// ErrUnterminated is returned when a header is opened but never closed.
var ErrUnterminated = errors.New("parser: frontmatter has no closing delimiter")

// Frontmatter holds the fixed metadata fields of a note document.
type Frontmatter struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Created  string   `yaml:"created"`
	Modified string   `yaml:"modified"`
	Project  string   `yaml:"project"`
	Type     string   `yaml:"type"`
	Tags     []string `yaml:"tags"`
	User     string   `yaml:"user"`
}

// Document is a parsed note file.
type Document struct {
	Meta Frontmatter
	Body string
}

// Parse splits data into frontmatter and body. A file without a header is
// returned as body only with zero-valued metadata; a header that is not
// closed or not valid YAML is an error.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) && !bytes.HasPrefix(trimmed, []byte(delim+"\r\n")) {
		return &Document{Body: string(data)}, nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, ErrUnterminated
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, fmt.Errorf("parser: frontmatter: %w", err)
	}

	// Skip the remainder of the closing delimiter line, then one blank line.
	after := rest[idx+1+len(delim):]
	if nl := bytes.IndexByte(after, '\n'); nl >= 0 {
		after = after[nl+1:]
	} else {
		after = nil
	}
	body := strings.TrimPrefix(string(after), "\r\n")
	body = strings.TrimPrefix(body, "\n")

	return &Document{Meta: fm, Body: body}, nil
}

// Marshal renders doc in the canonical on-disk format.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc.Meta); err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	buf.WriteString(delim + "\n\n")
	buf.WriteString(doc.Body)
	return buf.Bytes(), nil
}

// Title derives a note title from the first line of content, truncated to
// MaxTitleLen runes.
func Title(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return UntitledTitle
	}
	first, _, _ := strings.Cut(trimmed, "\n")
	first = strings.TrimSpace(first)
	if utf8.RuneCountInString(first) > MaxTitleLen {
		first = string([]rune(first)[:MaxTitleLen])
	}
	if first == "" {
		return UntitledTitle
	}
	return first
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping first-seen order. The result is never nil.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated tag list as sent by forms and tools.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}
