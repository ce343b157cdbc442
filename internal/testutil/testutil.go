// Package testutil provides shared test helpers for setting up vaults, builders and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/site"
	"github.com/starford/vaultsite/internal/storage"
	"github.com/starford/vaultsite/internal/templates"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vaultsite-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault holding files, keyed by slash-separated
// relative path.
func TestVault(t *testing.T, files map[string]string) string {
	t.Helper()
	vaultDir := t.TempDir()
	for rel, content := range files {
		WriteFile(t, vaultDir, rel, content)
	}
	return vaultDir
}

// WriteFile writes content to rel below dir, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestBuilder returns a site builder for vault writing to a fresh temporary
// output directory, with tag pages enabled.
func TestBuilder(t *testing.T, vault string) (*site.Builder, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "public")
	store, err := storage.NewFS(out)
	if err != nil {
		t.Fatal(err)
	}
	set, err := templates.Load("")
	if err != nil {
		t.Fatal(err)
	}
	b, err := site.New(site.Options{
		VaultDir:  vault,
		Output:    store,
		Templates: set,
		Title:     "Test",
		TagPages:  true,
		Logger:    Logger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return b, out
}
