//go:build sqlite_fts5

package index

import (
	"strings"
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages_fts`).Scan(&count); err != nil {
		t.Fatalf("pages_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	err := db.Replace(BuildRow{ID: "b", StartedAt: time.Now()}, []PageRow{
		page("fts.html", "FTS Note", "Vault pages get powerful full-text search.", []string{"search"}),
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts.html" {
		t.Errorf("path = %q", results[0].Path)
	}
	if !strings.Contains(results[0].Snippet, "<b>powerful</b>") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestFTS5_ReplaceClearsOldContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.Replace(BuildRow{ID: "b1", StartedAt: now}, []PageRow{page("evo.html", "Old", "original text", nil)})
	_ = db.Replace(BuildRow{ID: "b2", StartedAt: now}, []PageRow{page("evo.html", "New", "replacement text", nil)})

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}

func TestFTS5_SearchesTags(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(BuildRow{ID: "b", StartedAt: time.Now()}, []PageRow{page("t.html", "T", "body", []string{"gardening"})})

	results, err := db.Search("gardening", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
}
