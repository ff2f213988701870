package mcpserver

// NoteFormatContract describes the canonical note document format that
// LLM consumers should understand when reading note files.
const NoteFormatContract = `# Alma Note Format Contract

Every note is one Markdown file under ` + "`" + `<project>/` + "`" + ` in the vault, named
` + "`" + `YYYYMMDD-HHMMSS-<slug>.md` + "`" + `. Notes are created through the tools; the
server assigns id, timestamps and file name.

## Structure

` + "```" + `markdown
---
id: 3f2b8c1e-8a51-4a4e-9f55-0c3e1f7d2a10   # immutable, assigned on create
title: Weekly standup                        # first line of the body, max 100 chars
created: 2025-01-20T09:30:00.000000Z         # ISO-8601, UTC
modified: 2025-01-20T09:30:00.000000Z        # bumped on every update
project: work                                # project id (slug)
type: note                                   # free-form content type
tags:
  - meeting-notes
user: alice                                  # owning user
---

Weekly standup

Body text in standard Markdown.
` + "```" + `

## Rules

1. **The title is derived.** It is the first non-empty line of the body,
   truncated to 100 characters; an empty body is titled "Untitled".
2. **Wiki-links reference titles.** ` + "`" + `[[Weekly standup]]` + "`" + ` links to the note
   whose title matches case-insensitively. Unknown titles render as broken links.
3. **Backlinks** of a note are the notes whose body links to its title.
4. **Tags** are free strings; duplicates are dropped.
5. **Do not edit files by hand** while the server runs without watching; if you do,
   call ` + "`" + `regenerate_indexes` + "`" + ` to bring the indexes back in line.
`
