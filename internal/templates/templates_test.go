package templates

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/navtree"
)

func mustLoad(t *testing.T, dir string) *Set {
	t.Helper()
	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestRenderPage(t *testing.T) {
	s := mustLoad(t, "")
	var buf bytes.Buffer
	err := s.RenderPage(&buf, Page{
		Title:        "Alpha",
		Date:         "2024-01-01",
		Tags:         []string{"intro"},
		RelativePath: "..",
		Content:      `<p><a href="b.html">b</a></p>`,
		TagPages:     true,
	})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>Alpha</title>",
		`href="../style.css"`,
		"<time>2024-01-01</time>",
		`href="../tags/intro.html"`,
		`<p><a href="b.html">b</a></p>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "EventSource") {
		t.Error("live reload script rendered without LiveReload")
	}
}

func TestRenderPage_EscapesTitle(t *testing.T) {
	s := mustLoad(t, "")
	var buf bytes.Buffer
	if err := s.RenderPage(&buf, Page{Title: "<b>x</b>", RelativePath: "."}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<title><b>x</b></title>") {
		t.Error("title was not escaped")
	}
}

func TestRenderIndex_Tree(t *testing.T) {
	s := mustLoad(t, "")
	tree := navtree.Build([]models.Note{
		{Title: "Deep", Path: "a/b/deep.html"},
		{Title: "Top", Path: "top.html"},
	}, "public")

	var buf bytes.Buffer
	if err := s.RenderIndex(&buf, Index{Title: "public", Tree: tree, LiveReload: true}); err != nil {
		t.Fatalf("RenderIndex: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<a href="top.html">Top</a>`,
		"<summary>a</summary>",
		"<summary>b</summary>",
		`<a href="a/b/deep.html">Deep</a>`,
		"EventSource",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestRenderTag(t *testing.T) {
	s := mustLoad(t, "")
	var buf bytes.Buffer
	err := s.RenderTag(&buf, Tag{
		Tag:          "intro",
		Notes:        []models.Note{{Title: "Alpha", Path: "notes/a.html"}},
		RelativePath: "..",
	})
	if err != nil {
		t.Fatalf("RenderTag: %v", err)
	}
	if !strings.Contains(buf.String(), `<a href="../notes/a.html">Alpha</a>`) {
		t.Errorf("note link missing:\n%s", buf.String())
	}
}

func TestLoad_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tag.html"), []byte(`custom {{.Tag}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := mustLoad(t, dir)
	var buf bytes.Buffer
	if err := s.RenderTag(&buf, Tag{Tag: "x"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "custom x" {
		t.Errorf("tag override not used: %q", buf.String())
	}
	if string(s.Stylesheet()) != "body{}" {
		t.Errorf("stylesheet override not used: %q", s.Stylesheet())
	}

	// base.html was not overridden.
	buf.Reset()
	if err := s.RenderPage(&buf, Page{Title: "T", RelativePath: "."}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<title>T</title>") {
		t.Error("embedded base.html should still render")
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing override dir")
	}
}

func TestLoad_BrokenOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "base.html"), []byte(`{{.Title`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestRender_MissingTemplate(t *testing.T) {
	s := mustLoad(t, "")
	err := s.render(&bytes.Buffer{}, "nope.html", nil)
	if !errors.Is(err, apperr.ErrTemplateMissing) {
		t.Errorf("err = %v, want ErrTemplateMissing", err)
	}
}
