package api

import (
	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/noteservice"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// BuildSummary is returned after a requested rebuild.
type BuildSummary = noteservice.BuildSummary

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// TagsResponse lists every tag with its note count.
type TagsResponse struct {
	Tags []index.TagCount `json:"tags" validate:"required"`
}

// BuildResponse describes the latest indexed build.
type BuildResponse struct {
	ID         string `json:"id" example:"5f0c5a1e-8f3b-4a51-9a51-1e2f3a4b5c6d" validate:"required"`
	StartedAt  string `json:"started_at" example:"2026-01-02T15:04:05Z" validate:"required"`
	DurationMS int64  `json:"duration_ms" example:"42"`
	Notes      int    `json:"notes" example:"12"`
	Assets     int    `json:"assets" example:"3"`
}
