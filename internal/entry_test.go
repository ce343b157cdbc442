package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/testutil"
)

func TestBuild_WritesSiteAndIndex(t *testing.T) {
	vault := testutil.TestVault(t, map[string]string{
		"notes/a.md": "---\ntitle: Alpha\ntags: [go]\n---\nSee [[b]].",
		"notes/b.md": "B",
	})
	work := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.Vault.Path = vault
	cfg.Site.Output = filepath.Join(work, "public")
	cfg.SQLite.Path = filepath.Join(work, "site.db")
	cfg.App.LogFormat = LogFormatJSON

	var logs, stdout bytes.Buffer
	if err := Build(context.Background(), WithConfig(cfg), WithLogOutput(&logs), WithStdout(&stdout)); err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, rel := range []string{"index.html", "style.css", "notes/a.html", "notes/b.html", "tags/go.html"} {
		if _, err := os.Stat(filepath.Join(cfg.Site.Output, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
	if !strings.Contains(logs.String(), `"msg":"Site built successfully"`) {
		t.Errorf("expected JSON build log, got %q", logs.String())
	}
	if !strings.Contains(logs.String(), `"tree_notes":2,"tree_depth":1`) {
		t.Errorf("expected tree stats in build log, got %q", logs.String())
	}
	if !strings.Contains(stdout.String(), "Built 2 notes and 0 assets") {
		t.Errorf("summary = %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "tree:   1 folders, depth 1") {
		t.Errorf("summary = %q", stdout.String())
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	bl, err := db.Backlinks("notes/b.html")
	if err != nil {
		t.Fatal(err)
	}
	if len(bl) != 1 || bl[0] != "notes/a.html" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestBuild_NoIndexWhenPathEmpty(t *testing.T) {
	vault := testutil.TestVault(t, map[string]string{"a.md": "a"})
	work := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.Vault.Path = vault
	cfg.Site.Output = filepath.Join(work, "public")

	if err := Build(context.Background(), WithConfig(cfg), WithLogOutput(&bytes.Buffer{}), WithStdout(&bytes.Buffer{})); err != nil {
		t.Fatalf("Build: %v", err)
	}
	entries, err := os.ReadDir(work)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("unexpected files next to output: %v", entries)
	}
}

func TestBuild_RequiresConfig(t *testing.T) {
	if err := Build(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
