// Package models defines the domain types shared across the site pipeline.
package models

// Note is one emitted HTML page.
type Note struct {
	Title string `json:"title"`
	// Path is the page location relative to the output root, slash-separated.
	Path string `json:"path"`
}

// Frontmatter is the optional YAML block at the top of a note.
// Date is kept verbatim and never parsed.
type Frontmatter struct {
	Title string   `yaml:"title" json:"title,omitempty"`
	Date  string   `yaml:"date" json:"date,omitempty"`
	Tags  []string `yaml:"tags" json:"tags,omitempty"`
}
