package index

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/site"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "vaultsite-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func page(path, title, body string, tags []string, links ...string) PageRow {
	return PageRow{
		NoteRow: NoteRow{
			Path:      path,
			Source:    path[:len(path)-len(".html")] + ".md",
			Title:     title,
			Checksum:  "cs-" + path,
			Tags:      tags,
			Body:      body,
			UpdatedAt: time.Now(),
		},
		Links: links,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"notes", "links", "builds"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestReplaceAndGetNote(t *testing.T) {
	db := testDB(t)
	build := BuildRow{ID: "b1", StartedAt: time.Now(), Duration: 1500 * time.Millisecond, Notes: 1}
	if err := db.Replace(build, []PageRow{page("hello.html", "Hello", "hello body", []string{"go", "test"})}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	n, err := db.GetNote("hello.html")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.Title != "Hello" || n.Source != "hello.md" || n.BuildID != "b1" {
		t.Errorf("unexpected row: %+v", n)
	}
	if len(n.Tags) != 2 || n.Tags[0] != "go" || n.Tags[1] != "test" {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetNote("missing.html")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReplaceDropsPreviousBuild(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.Replace(BuildRow{ID: "b1", StartedAt: now}, []PageRow{page("old.html", "Old", "old", nil, "gone.html")})
	if err := db.Replace(BuildRow{ID: "b2", StartedAt: now.Add(time.Second)}, []PageRow{page("new.html", "New", "new", nil)}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if _, err := db.GetNote("old.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old note survived: %v", err)
	}
	bl, _ := db.Backlinks("gone.html")
	if len(bl) != 0 {
		t.Errorf("stale backlinks: %v", bl)
	}
	last, err := db.LastBuild()
	if err != nil {
		t.Fatalf("LastBuild: %v", err)
	}
	if last.ID != "b2" {
		t.Errorf("last build = %q, want b2", last.ID)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	err := db.Replace(BuildRow{ID: "b", StartedAt: time.Now()}, []PageRow{
		page("a.html", "A", "", nil, "b.html"),
		page("c.html", "C", "", nil, "b.html", "b.html"),
		page("b.html", "B", "", nil),
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	bl, err := db.Backlinks("b.html")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 || bl[0] != "a.html" || bl[1] != "c.html" {
		t.Fatalf("backlinks = %v", bl)
	}
}

func TestListNotes(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(BuildRow{ID: "b", StartedAt: time.Now()}, []PageRow{
		page("c.html", "C", "", []string{"x"}),
		page("a.html", "A", "", []string{"x", "y"}),
		page("b.html", "B", "", nil),
	})

	all, total, err := db.ListNotes("", 0, 0)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 || len(all) != 3 || all[0].Path != "a.html" {
		t.Fatalf("all = %+v total=%d", all, total)
	}

	tagged, total, err := db.ListNotes("x", 1, 1)
	if err != nil {
		t.Fatalf("ListNotes tag: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(tagged) != 1 || tagged[0].Path != "c.html" {
		t.Errorf("page = %+v", tagged)
	}
}

func TestTags(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(BuildRow{ID: "b", StartedAt: time.Now()}, []PageRow{
		page("a.html", "A", "", []string{"rust", "go"}),
		page("b.html", "B", "", []string{"go"}),
	})

	tags, err := db.Tags()
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	want := []TagCount{{"go", 2}, {"rust", 1}}
	if len(tags) != len(want) {
		t.Fatalf("tags = %+v", tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %+v, want %+v", i, tags[i], want[i])
		}
	}
}

func TestLastBuild_Empty(t *testing.T) {
	db := testDB(t)
	if _, err := db.LastBuild(); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(BuildRow{ID: "b", StartedAt: time.Now()}, []PageRow{
		page("s.html", "Searchable", "the quick brown fox", nil),
		page("o.html", "Other", "nothing here", nil),
	})

	results, err := db.Search("brown", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.html" {
		t.Fatalf("results = %+v", results)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	res := &site.Result{
		BuildID:   "build-1",
		StartedAt: time.Now(),
		Duration:  time.Second,
		Assets:    2,
		Notes:     []models.Note{{Title: "N", Path: "dir/n.html"}},
		Pages: []site.Page{{
			Note:   models.Note{Title: "N", Path: "dir/n.html"},
			Source: "dir/n.md",
			Tags:   []string{"t"},
			Body:   "see [[Other]]",
			Links:  []string{"dir/other.html"},
		}},
	}
	if err := Sync(db, res, slog.Default()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	n, err := db.GetNote("dir/n.html")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.BuildID != "build-1" || n.Source != "dir/n.md" {
		t.Errorf("row = %+v", n)
	}
	bl, _ := db.Backlinks("dir/other.html")
	if len(bl) != 1 || bl[0] != "dir/n.html" {
		t.Errorf("backlinks = %v", bl)
	}
	last, err := db.LastBuild()
	if err != nil {
		t.Fatalf("LastBuild: %v", err)
	}
	if last.Notes != 1 || last.Assets != 2 || last.Duration != time.Second {
		t.Errorf("build = %+v", last)
	}
}
