// Package noteservice ties the site builder and the page index together for
// the preview server and the MCP tools.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/site"
	"github.com/starford/vaultsite/internal/watch"
)

// ErrInvalidPath is returned for empty or escaping note paths.
var ErrInvalidPath = errors.New("invalid note path")

// Builder produces a site build.
type Builder interface {
	Build(ctx context.Context) (*site.Result, error)
}

// Publisher is told about vault changes and build outcomes.
type Publisher interface {
	PublishChange(kind, path string)
	PublishRebuilt(buildID string, notes, assets int, d time.Duration)
	PublishFailed(err error)
}

// NoteDetail is the full representation of an indexed note.
type NoteDetail struct {
	Path      string    `json:"path"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Date      string    `json:"date,omitempty"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Backlinks []string  `json:"backlinks"`
	BuildID   string    `json:"build_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Date      string    `json:"date,omitempty"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BuildSummary describes a finished rebuild.
type BuildSummary struct {
	BuildID   string        `json:"build_id"`
	Notes     int           `json:"notes"`
	Assets    int           `json:"assets"`
	Tags      []string      `json:"tags"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Service coordinates builds and index queries.
type Service struct {
	builder Builder
	db      index.SiteIndex
	pub     Publisher
	log     *slog.Logger

	// rebuildMu keeps build, sync and publish of one rebuild together so
	// the index never holds an older build than the last one reported.
	rebuildMu sync.Mutex
}

// NewService creates a new note service. pub may be nil.
func NewService(builder Builder, db index.SiteIndex, pub Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{builder: builder, db: db, pub: pub, log: logger}
}

// Rebuild runs a full build, refreshes the index and notifies the publisher.
func (s *Service) Rebuild(ctx context.Context) (*BuildSummary, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	res, err := s.builder.Build(ctx)
	if err != nil {
		if s.pub != nil {
			s.pub.PublishFailed(err)
		}
		return nil, err
	}
	if err := index.Sync(s.db, res, s.log); err != nil {
		return nil, fmt.Errorf("noteservice: sync index: %w", err)
	}
	if s.pub != nil {
		s.pub.PublishRebuilt(res.BuildID, len(res.Notes), res.Assets, res.Duration)
	}
	return &BuildSummary{
		BuildID:   res.BuildID,
		Notes:     len(res.Notes),
		Assets:    res.Assets,
		Tags:      nonNilSlice(res.Tags.Sorted()),
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
	}, nil
}

// OnChanges announces a settled batch of vault changes and rebuilds.
// Its signature matches watch.Func.
func (s *Service) OnChanges(ctx context.Context, changes []watch.Change) {
	for _, c := range changes {
		s.log.Debug("vault changed", slog.String("kind", c.Kind), slog.String("path", c.Path))
		if s.pub != nil {
			s.pub.PublishChange(c.Kind, c.Path)
		}
	}
	if _, err := s.Rebuild(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error("rebuild failed", slog.Int("changes", len(changes)), slog.String("error", err.Error()))
	}
}

// GetNote returns an indexed note with its backlinks. p may name either the
// output page or the vault source file.
func (s *Service) GetNote(_ context.Context, p string) (*NoteDetail, error) {
	p, err := pagePath(p)
	if err != nil {
		return nil, err
	}
	row, err := s.db.GetNote(p)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(p)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:      row.Path,
		Source:    row.Source,
		Title:     row.Title,
		Date:      row.Date,
		Content:   row.Body,
		Checksum:  row.Checksum,
		Tags:      nonNilSlice(row.Tags),
		Backlinks: nonNilSlice(bl),
		BuildID:   row.BuildID,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, tag string, limit, offset int) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(tag, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Date:      r.Date,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// Tags lists every tag with its note count.
func (s *Service) Tags(_ context.Context) ([]index.TagCount, error) {
	tags, err := s.db.Tags()
	return nonNilSlice(tags), err
}

// LastBuild returns the most recent indexed build.
func (s *Service) LastBuild(_ context.Context) (*index.BuildRow, error) {
	return s.db.LastBuild()
}

// pagePath normalises p to a clean output page path.
func pagePath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	if path.Ext(clean) == ".md" {
		clean = site.HTMLPath(clean)
	}
	return clean, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
