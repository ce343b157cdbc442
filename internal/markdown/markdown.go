// Package markdown renders note bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options tune the renderer.
type Options struct {
	// HighlightStyle is a chroma style name; empty disables code highlighting.
	HighlightStyle string
	HardWraps      bool
}

// Renderer converts Markdown to HTML. Raw HTML in the source, including the
// markup produced by the wikilink rewriter, is passed through.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer with GFM tables, strikethrough, autolinks and task
// lists plus typographic quotes.
func New(opts Options) *Renderer {
	exts := []goldmark.Extender{
		extension.GFM,
		extension.Typographer,
	}
	if opts.HighlightStyle != "" {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(opts.HighlightStyle),
		))
	}

	htmlOpts := []renderer.Option{html.WithUnsafe()}
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &Renderer{md: md}
}

// Render converts src to HTML.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("markdown: convert: %w", err)
	}
	return buf.Bytes(), nil
}

// KnownStyle reports whether name is a registered chroma style.
func KnownStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}
