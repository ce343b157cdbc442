// Package templates renders note, index and tag pages with html/template.
//
// Defaults are embedded. An override directory may replace any of the
// *.html files and the stylesheet; templates it does not define keep their
// embedded version.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/navtree"
)

// Template names.
const (
	PageTemplate  = "base.html"
	IndexTemplate = "index.html"
	TagTemplate   = "tag.html"
	Stylesheet    = "style.css"
)

//go:embed files/*
var embedded embed.FS

// Page is the context of a rendered note.
type Page struct {
	Title string
	Date  string
	Tags  []string
	// RelativePath leads from the page back to the output root ("." or "../..").
	RelativePath string
	Content      template.HTML
	TagPages     bool
	LiveReload   bool
}

// Index is the context of index.html.
type Index struct {
	Title      string
	Tree       *navtree.Node
	Tags       []string
	LiveReload bool
}

// Tag is the context of one tag listing.
type Tag struct {
	Tag          string
	Notes        []models.Note
	RelativePath string
	LiveReload   bool
}

// Set holds the parsed templates and the shared stylesheet.
type Set struct {
	tmpl       *template.Template
	stylesheet []byte
}

// Load parses the embedded templates and then, when dir is non-empty, the
// *.html files and style.css found in dir.
func Load(dir string) (*Set, error) {
	base, err := fs.Sub(embedded, "files")
	if err != nil {
		return nil, fmt.Errorf("templates: embedded: %w", err)
	}

	tmpl, err := template.New("").ParseFS(base, "*.html")
	if err != nil {
		return nil, fmt.Errorf("templates: parse embedded: %w", err)
	}
	css, err := fs.ReadFile(base, Stylesheet)
	if err != nil {
		return nil, fmt.Errorf("templates: read embedded stylesheet: %w", err)
	}

	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("templates: stat %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("templates: not a directory: %s", dir)
		}
		override := os.DirFS(dir)

		matches, err := fs.Glob(override, "*.html")
		if err != nil {
			return nil, fmt.Errorf("templates: glob %s: %w", dir, err)
		}
		if len(matches) > 0 {
			if tmpl, err = tmpl.ParseFS(override, matches...); err != nil {
				return nil, fmt.Errorf("templates: parse %s: %w", dir, err)
			}
		}

		custom, err := os.ReadFile(filepath.Join(dir, Stylesheet))
		switch {
		case err == nil:
			css = custom
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("templates: read stylesheet: %w", err)
		}
	}

	return &Set{tmpl: tmpl, stylesheet: css}, nil
}

// Stylesheet returns the shared CSS copied to the output root.
func (s *Set) Stylesheet() []byte {
	return s.stylesheet
}

// RenderPage renders a note page.
func (s *Set) RenderPage(w io.Writer, p Page) error {
	return s.render(w, PageTemplate, p)
}

// RenderIndex renders the navigation index.
func (s *Set) RenderIndex(w io.Writer, idx Index) error {
	return s.render(w, IndexTemplate, idx)
}

// RenderTag renders one tag listing.
func (s *Set) RenderTag(w io.Writer, t Tag) error {
	return s.render(w, TagTemplate, t)
}

func (s *Set) render(w io.Writer, name string, data any) error {
	if s.tmpl.Lookup(name) == nil {
		return fmt.Errorf("templates: %w: %s", apperr.ErrTemplateMissing, name)
	}
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("templates: render %s: %w", name, err)
	}
	return nil
}
