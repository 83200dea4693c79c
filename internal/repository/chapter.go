package repository

import (
	"context"

	"studyguide/internal/model"
)

// ChapterRepository defines data access for chapters using SQL queries only.
// No business logic here — strictly persistence operations.
type ChapterRepository interface {
	// Create inserts a new chapter record.
	// The caller provides required fields (ID, timestamps) according to the schema defaults.
	// Returns the stored chapter (may include values set by the DB).
	Create(ctx context.Context, ch *model.Chapter) (*model.Chapter, error)

	// FindBySlug returns a chapter by its slug.
	FindBySlug(ctx context.Context, slug string) (*model.Chapter, error)

	// FindByNumber returns a chapter by its position number.
	FindByNumber(ctx context.Context, number int) (*model.Chapter, error)

	// List returns a paginated list of chapters ordered by number and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Chapter], error)

	// Delete removes a chapter by slug. Links cascade at the schema level.
	// It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, slug string) error

	// ReplaceLinks swaps the stored outgoing links of a chapter for the given set.
	ReplaceLinks(ctx context.Context, chapterID string, links []model.ChapterLink) error

	// ListLinks returns all stored links of the given kind across the corpus.
	ListLinks(ctx context.Context, kind string) ([]model.ChapterLink, error)

	// ListFilenames returns every stored chapter filename, the resolution
	// universe for internal link targets.
	ListFilenames(ctx context.Context) ([]string, error)

	// TOC returns the full table of contents ordered by chapter number.
	TOC(ctx context.Context) ([]model.TOCEntry, error)
}
