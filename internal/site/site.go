// Package site turns a vault into a static HTML site.
//
// A build is a full rebuild: the output root is reset, every file under the
// vault is visited in lexical order, notes are rendered and assets copied,
// and the navigation index and tag pages are written last. The first error
// aborts the build; whatever was written so far stays on disk.
package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/vaultsite/internal/checksum"
	"github.com/starford/vaultsite/internal/frontmatter"
	"github.com/starford/vaultsite/internal/markdown"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/navtree"
	"github.com/starford/vaultsite/internal/storage"
	"github.com/starford/vaultsite/internal/tagindex"
	"github.com/starford/vaultsite/internal/templates"
	"github.com/starford/vaultsite/internal/wikilink"
)

const (
	noteExt    = ".md"
	pageExt    = ".html"
	indexPage  = "index.html"
	styleSheet = "style.css"
	tagsDir    = "tags"
)

// Options configures a Builder.
type Options struct {
	VaultDir  string
	Output    storage.Provider
	Templates *templates.Set
	Markdown  *markdown.Renderer
	// Title is the heading of the index page.
	Title string
	// TagPages enables one listing page per tag under tags/.
	TagPages bool
	// LiveReload adds the reload script to every page.
	LiveReload bool
	Logger     *slog.Logger
}

// Page is everything learned about one note during a build.
type Page struct {
	Note models.Note
	// Source is the note's vault-relative path, slash-separated.
	Source   string
	Date     string
	Tags     []string
	Checksum string
	// Body is the Markdown after the frontmatter, before link rewriting.
	Body string
	// Links are the output pages the note's wikilinks point at.
	Links []string
}

// Result summarises a finished build.
type Result struct {
	BuildID   string
	Notes     []models.Note
	Pages     []Page
	Tree      *navtree.Node
	Tags      *tagindex.Index
	Assets    int
	StartedAt time.Time
	Duration  time.Duration
}

// Builder runs builds. Concurrent Build calls are serialised.
type Builder struct {
	opts  Options
	vault string
	log   *slog.Logger
	mu    sync.Mutex
}

// state is the per-build accumulator threaded through every file step.
type state struct {
	notes  []models.Note
	pages  []Page
	tags   *tagindex.Index
	assets int
}

// New validates opts and returns a Builder.
func New(opts Options) (*Builder, error) {
	if opts.Output == nil {
		return nil, fmt.Errorf("site: output is required")
	}
	if opts.Templates == nil {
		return nil, fmt.Errorf("site: templates are required")
	}
	if opts.Markdown == nil {
		opts.Markdown = markdown.New(markdown.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = "Index"
	}

	vault, err := filepath.Abs(opts.VaultDir)
	if err != nil {
		return nil, fmt.Errorf("site: resolve vault: %w", err)
	}
	info, err := os.Stat(vault)
	if err != nil {
		return nil, fmt.Errorf("site: stat vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site: vault is not a directory: %s", vault)
	}
	if vault == opts.Output.Root() {
		return nil, fmt.Errorf("site: output directory must differ from the vault: %s", vault)
	}
	if inside(vault, opts.Output.Root()) {
		return nil, fmt.Errorf("site: output directory contains the vault: %s", opts.Output.Root())
	}

	return &Builder{opts: opts, vault: vault, log: opts.Logger}, nil
}

// VaultDir returns the absolute vault directory.
func (b *Builder) VaultDir() string {
	return b.vault
}

// OutputDir returns the absolute output directory.
func (b *Builder) OutputDir() string {
	return b.opts.Output.Root()
}

// Build performs a full rebuild of the output tree.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := &Result{BuildID: uuid.NewString(), StartedAt: time.Now()}
	log := b.log.With(slog.String("build_id", res.BuildID))
	log.Info("Building site...", slog.String("vault", b.vault), slog.String("output", b.OutputDir()))

	if err := b.opts.Output.Reset(); err != nil {
		return nil, fmt.Errorf("site: prepare output: %w", err)
	}

	st := &state{tags: tagindex.New()}
	err := filepath.WalkDir(b.vault, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("site: walk %s: %w", p, walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p == b.OutputDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			log.Debug("skipping non-regular file", slog.String("path", p))
			return nil
		}

		rel, err := filepath.Rel(b.vault, p)
		if err != nil {
			return fmt.Errorf("site: relative path %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)

		if filepath.Ext(p) == noteExt {
			return b.processNote(log, st, p, rel)
		}
		return b.processAsset(log, st, p, rel)
	})
	if err != nil {
		return nil, err
	}

	if err := b.opts.Output.Write(styleSheet, b.opts.Templates.Stylesheet()); err != nil {
		return nil, fmt.Errorf("site: write %s: %w", styleSheet, err)
	}

	tree := navtree.Build(st.notes, b.OutputDir())
	if err := b.renderIndex(tree, st.tags); err != nil {
		return nil, err
	}
	if b.opts.TagPages {
		if err := b.renderTagPages(st.tags); err != nil {
			return nil, err
		}
	}

	res.Notes = st.notes
	res.Pages = st.pages
	res.Tree = tree
	res.Tags = st.tags
	res.Assets = st.assets
	res.Duration = time.Since(res.StartedAt)

	log.Info("Site built successfully",
		slog.Int("notes", len(res.Notes)),
		slog.Int("assets", res.Assets),
		slog.Int("tags", res.Tags.Len()),
		slog.Int("tree_notes", tree.Count()),
		slog.Int("tree_depth", tree.Depth()),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func (b *Builder) processNote(log *slog.Logger, st *state, abs, rel string) error {
	log.Debug("converting markdown", slog.String("path", rel))

	raw, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("site: read %s: %w", rel, err)
	}
	fm, body, err := frontmatter.Split(raw)
	if err != nil {
		return fmt.Errorf("site: frontmatter %s: %w", rel, err)
	}

	title := Title(fm, rel)
	var date string
	var tags []string
	if fm != nil {
		date = fm.Date
		tags = fm.Tags
	}

	html, err := b.opts.Markdown.Render([]byte(wikilink.Rewrite(body)))
	if err != nil {
		return fmt.Errorf("site: render markdown %s: %w", rel, err)
	}

	out := HTMLPath(rel)
	var buf bytes.Buffer
	err = b.opts.Templates.RenderPage(&buf, templates.Page{
		Title:        title,
		Date:         date,
		Tags:         tags,
		RelativePath: RelativePrefix(out),
		Content:      template.HTML(html),
		TagPages:     b.opts.TagPages,
		LiveReload:   b.opts.LiveReload,
	})
	if err != nil {
		return fmt.Errorf("site: render page %s: %w", rel, err)
	}
	if err := b.opts.Output.Write(out, buf.Bytes()); err != nil {
		return fmt.Errorf("site: write %s: %w", out, err)
	}
	log.Debug("wrote html", slog.String("path", out))

	note := models.Note{Title: title, Path: out}
	st.notes = append(st.notes, note)
	st.tags.RecordAll(tags, note)
	st.pages = append(st.pages, Page{
		Note:     note,
		Source:   rel,
		Date:     date,
		Tags:     tags,
		Checksum: checksum.Sum(raw),
		Body:     body,
		Links:    linkTargets(out, body),
	})
	return nil
}

func (b *Builder) processAsset(log *slog.Logger, st *state, abs, rel string) error {
	log.Debug("copying asset", slog.String("path", rel))

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("site: open asset %s: %w", rel, err)
	}
	defer f.Close()

	if err := b.opts.Output.Copy(rel, f); err != nil {
		return fmt.Errorf("site: copy asset %s: %w", rel, err)
	}
	st.assets++
	return nil
}

func (b *Builder) renderIndex(tree *navtree.Node, tags *tagindex.Index) error {
	idx := templates.Index{
		Title:      b.opts.Title,
		Tree:       tree,
		LiveReload: b.opts.LiveReload,
	}
	if b.opts.TagPages {
		idx.Tags = tags.Sorted()
	}

	var buf bytes.Buffer
	if err := b.opts.Templates.RenderIndex(&buf, idx); err != nil {
		return fmt.Errorf("site: render %s: %w", indexPage, err)
	}
	if err := b.opts.Output.Write(indexPage, buf.Bytes()); err != nil {
		return fmt.Errorf("site: write %s: %w", indexPage, err)
	}
	return nil
}

func (b *Builder) renderTagPages(tags *tagindex.Index) error {
	for _, tag := range tags.Tags() {
		out, err := TagPath(tag)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		err = b.opts.Templates.RenderTag(&buf, templates.Tag{
			Tag:          tag,
			Notes:        tags.Notes(tag),
			RelativePath: RelativePrefix(out),
			LiveReload:   b.opts.LiveReload,
		})
		if err != nil {
			return fmt.Errorf("site: render tag %q: %w", tag, err)
		}
		if err := b.opts.Output.Write(out, buf.Bytes()); err != nil {
			return fmt.Errorf("site: write %s: %w", out, err)
		}
	}
	return nil
}

// Title is the frontmatter title, else the file name without extension.
func Title(fm *models.Frontmatter, rel string) string {
	if fm != nil && fm.Title != "" {
		return fm.Title
	}
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}

// HTMLPath maps a vault-relative note path to its output page.
func HTMLPath(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel)) + pageExt
}

// TagPath is the output page listing tag. Tags that would land outside
// tags/, or that clean to a different path than the page links use, are
// rejected.
func TagPath(tag string) (string, error) {
	out := tagsDir + "/" + tag + pageExt
	if tag == "" || strings.ContainsRune(tag, '\\') || path.Clean(out) != out {
		return "", fmt.Errorf("site: tag %q: not a valid page name", tag)
	}
	return out, nil
}

// RelativePrefix leads from the page at out back to the output root:
// "." for top-level pages, "..", "../.." and so on below that.
func RelativePrefix(out string) string {
	depth := strings.Count(path.Clean(out), "/")
	if depth == 0 {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", depth), "/")
}

// linkTargets resolves a note's wikilinks to output paths. Link hrefs are
// relative to the linking page, so they resolve inside its folder.
func linkTargets(out, body string) []string {
	links := wikilink.Links(body)
	if len(links) == 0 {
		return nil
	}
	dir := path.Dir(out)
	targets := make([]string, 0, len(links))
	for _, l := range links {
		targets = append(targets, path.Join(dir, wikilink.Href(l)))
	}
	return targets
}

func inside(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
