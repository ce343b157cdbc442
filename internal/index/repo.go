package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/vaultsite/internal/apperr"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string    `json:"path"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Date      string    `json:"date,omitempty"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Body      string    `json:"-"`
	BuildID   string    `json:"build_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageRow is a note together with the pages it links to.
type PageRow struct {
	NoteRow
	Links []string
}

// BuildRow records one finished build.
type BuildRow struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Notes     int           `json:"notes"`
	Assets    int           `json:"assets"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// TagCount is a tag and how many times notes declare it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Replace swaps the whole index for pages in a single transaction and
// records the build.
func (db *DB) Replace(build BuildRow, pages []PageRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM links`); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes`); err != nil {
		return fmt.Errorf("index: clear notes: %w", err)
	}
	if err := ftsReset(tx); err != nil {
		return err
	}

	noteStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO notes (path, source, title, date, checksum, tags, body, build_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare note insert: %w", err)
	}
	defer noteStmt.Close()

	linkStmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer linkStmt.Close()

	for _, p := range pages {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("index: encode tags %s: %w", p.Path, err)
		}
		if _, err := noteStmt.Exec(p.Path, p.Source, p.Title, p.Date, p.Checksum,
			string(tagsJSON), p.Body, build.ID, p.UpdatedAt); err != nil {
			return fmt.Errorf("index: insert note %s: %w", p.Path, err)
		}
		if err := ftsInsert(tx, p.Path, p.Title, p.Body, tags); err != nil {
			return err
		}
		for _, target := range p.Links {
			if _, err := linkStmt.Exec(p.Path, target); err != nil {
				return fmt.Errorf("index: insert link %s: %w", p.Path, err)
			}
		}
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO builds (id, started_at, duration_ms, notes, assets)
		VALUES (?, ?, ?, ?, ?)
	`, build.ID, build.StartedAt, build.Duration.Milliseconds(), build.Notes, build.Assets); err != nil {
		return fmt.Errorf("index: record build: %w", err)
	}

	return tx.Commit()
}

// GetNote returns the row for an output page path.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, source, title, date, checksum, tags, body, build_id, updated_at
		FROM notes WHERE path = ?
	`, path)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return n, nil
}

// ListNotes returns notes ordered by path, optionally only those declaring
// tag, along with the total number of matches.
func (db *DB) ListNotes(tag string, limit, offset int) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if tag != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, source, title, date, checksum, tags, body, build_id, updated_at
		FROM notes `+where+`
		ORDER BY path
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("index: scan note: %w", err)
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

// Backlinks returns all page paths that link to the given target page.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Tags returns every declared tag with its declaration count, by name.
func (db *DB) Tags() ([]TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT j.value, count(*)
		FROM notes, json_each(notes.tags) AS j
		GROUP BY j.value
		ORDER BY j.value
	`)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// LastBuild returns the most recently started build.
func (db *DB) LastBuild() (*BuildRow, error) {
	var (
		b  BuildRow
		ms int64
	)
	err := db.conn.QueryRow(`
		SELECT id, started_at, duration_ms, notes, assets
		FROM builds ORDER BY started_at DESC LIMIT 1
	`).Scan(&b.ID, &b.StartedAt, &ms, &b.Notes, &b.Assets)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: last build: %w", err)
	}
	b.Duration = time.Duration(ms) * time.Millisecond
	return &b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*NoteRow, error) {
	var (
		n    NoteRow
		tags string
	)
	if err := s.Scan(&n.Path, &n.Source, &n.Title, &n.Date, &n.Checksum, &tags, &n.Body, &n.BuildID, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", n.Path, err)
	}
	return &n, nil
}
