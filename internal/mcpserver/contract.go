package mcpserver

// WikilinkSyntax documents the link syntax the site generator understands,
// so that LLM consumers write notes that render as intended.
const WikilinkSyntax = `# Vault Wikilink Syntax

Notes are Markdown files ending in ` + "`" + `.md` + "`" + `. Every other file in the
vault is copied to the site unchanged.

## Frontmatter

An optional YAML block fenced by ` + "`" + `---` + "`" + ` lines at the very top:

` + "```" + `markdown
---
title: Weekly standup        # page title; defaults to the file name
date: 2026-01-20             # shown under the title
tags: [meeting-notes, team]  # each tag gets a page under tags/
---
` + "```" + `

## Links

- ` + "`" + `[[Some Note]]` + "`" + ` becomes ` + "`" + `<a href="some-note.html">Some Note</a>` + "`" + `.
  The target is lower-cased and spaces become hyphens. Nothing else changes.
- The href is relative to the linking page, so link to notes in the same folder.
- ` + "`" + `![[diagram.png]]` + "`" + ` becomes ` + "`" + `<img src="diagram.png">` + "`" + `; the text is used verbatim.

## Edge cases

- A link with no closing ` + "`" + `]]` + "`" + ` is left exactly as written.
- ` + "`" + `[` + "`" + ` and ` + "`" + `!` + "`" + ` inside a link are dropped: ` + "`" + `[[a[b]]` + "`" + ` links to ` + "`" + `ab` + "`" + `.
- A single ` + "`" + `]` + "`" + ` inside a link is kept as part of the text.
- There is no alias (` + "`" + `|` + "`" + `) or heading (` + "`" + `#` + "`" + `) support; both stay in the target.
`
