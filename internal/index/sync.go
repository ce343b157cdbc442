package index

import (
	"log/slog"

	"github.com/starford/vaultsite/internal/site"
)

// Sync replaces the index contents with the pages of a finished build.
func Sync(db SiteIndex, res *site.Result, logger *slog.Logger) error {
	pages := make([]PageRow, 0, len(res.Pages))
	for _, p := range res.Pages {
		pages = append(pages, PageRow{
			NoteRow: NoteRow{
				Path:      p.Note.Path,
				Source:    p.Source,
				Title:     p.Note.Title,
				Date:      p.Date,
				Checksum:  p.Checksum,
				Tags:      p.Tags,
				Body:      p.Body,
				BuildID:   res.BuildID,
				UpdatedAt: res.StartedAt,
			},
			Links: p.Links,
		})
	}

	build := BuildRow{
		ID:        res.BuildID,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Notes:     len(res.Notes),
		Assets:    res.Assets,
	}
	if err := db.Replace(build, pages); err != nil {
		return err
	}
	logger.Debug("index synced", slog.String("build_id", res.BuildID), slog.Int("pages", len(pages)))
	return nil
}
