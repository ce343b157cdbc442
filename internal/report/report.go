// Package report prints human-readable build summaries for the CLI.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/vaultsite/internal/navtree"
	"github.com/starford/vaultsite/internal/site"
)

// Monokai Pro accents.
const (
	green   = "#A9DC76"
	red     = "#FF6188"
	magenta = "#FF6188"
	comment = "#727072"
)

// Printer writes summaries to a terminal, dropping colour when w is not one.
type Printer struct {
	w       io.Writer
	success lipgloss.Style
	failure lipgloss.Style
	title   lipgloss.Style
	dim     lipgloss.Style
}

// New returns a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		success: r.NewStyle().Foreground(lipgloss.Color(green)),
		failure: r.NewStyle().Foreground(lipgloss.Color(red)),
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(magenta)),
		dim:     r.NewStyle().Foreground(lipgloss.Color(comment)),
	}
}

// Built prints the outcome of a successful build.
func (p *Printer) Built(res *site.Result, outputDir string) {
	tags := res.Tags.Sorted()
	lines := []string{
		p.success.Render(fmt.Sprintf("✓ Built %d notes and %d assets in %s",
			len(res.Notes), res.Assets, res.Duration.Round(time.Millisecond))),
		p.dim.Render("  output: " + outputDir),
	}
	if res.Tree != nil {
		folders := -1
		res.Tree.Walk(func(*navtree.Node, int) bool {
			folders++
			return true
		})
		lines = append(lines, p.dim.Render(fmt.Sprintf("  tree:   %d folders, depth %d", folders, res.Tree.Depth())))
	}
	if len(tags) > 0 {
		lines = append(lines, p.dim.Render("  tags:   "+strings.Join(tags, ", ")))
	}
	lines = append(lines, p.dim.Render("  build:  "+res.BuildID))
	fmt.Fprintln(p.w, strings.Join(lines, "\n"))
}

// Failed prints a build error.
func (p *Printer) Failed(err error) {
	fmt.Fprintln(p.w, p.failure.Render("✗ Build failed: "+err.Error()))
}

// Heading prints a bold title line.
func (p *Printer) Heading(s string) {
	fmt.Fprintln(p.w, p.title.Render(s))
}
