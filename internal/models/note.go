// Package models defines the domain types for Alma.
package models

import "time"

// TimeLayout is the ISO-8601 layout used for every persisted timestamp.
// It is fixed-width so that lexicographic order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Note is a fully materialized note document.
type Note struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Created     string   `json:"created"`
	Modified    string   `json:"modified"`
	Project     string   `json:"project"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
	User        string   `json:"user"`
	FilePath    string   `json:"file_path"`
	Checksum    string   `json:"checksum"`
	Rendered    string   `json:"rendered,omitempty"`
	ContentHTML string   `json:"content_html,omitempty"`
	Backlinks   []string `json:"backlinks,omitempty"`
}

// Metadata is the Metadata Index projection of a note.
type Metadata struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Created  string   `json:"created"`
	Modified string   `json:"modified"`
	FilePath string   `json:"file_path"`
	Project  string   `json:"project"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
}

// MetadataPatch carries the fields to overwrite on an existing metadata
// record. Nil fields are left untouched.
type MetadataPatch struct {
	Title    *string
	Modified *string
	FilePath *string
	Project  *string
	Type     *string
	Tags     *[]string
}

// TagCount pairs a tag with the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
