package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"studyguide/internal/model"
	"studyguide/internal/repository"
)

// ChapterPostgres is a PostgreSQL implementation of repository.ChapterRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ChapterPostgres struct {
	db *sql.DB
}

// NewChapterPostgres creates a new ChapterPostgres repository.
func NewChapterPostgres(db *sql.DB) *ChapterPostgres {
	return &ChapterPostgres{db: db}
}

var _ repository.ChapterRepository = (*ChapterPostgres)(nil)

const chapterColumns = `id, number, slug, title, filename, storage_path, size, checksum,
		word_count, code_block_count, question_count, created_at, updated_at`

func scanChapter(row interface{ Scan(...any) error }) (*model.Chapter, error) {
	var ch model.Chapter
	err := row.Scan(
		&ch.ID,
		&ch.Number,
		&ch.Slug,
		&ch.Title,
		&ch.Filename,
		&ch.StoragePath,
		&ch.Size,
		&ch.Checksum,
		&ch.WordCount,
		&ch.CodeBlockCount,
		&ch.QuestionCount,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Create inserts a new chapter row and returns the stored record.
func (r *ChapterPostgres) Create(ctx context.Context, ch *model.Chapter) (*model.Chapter, error) {
	const q = `
		INSERT INTO chapters (id, number, slug, title, filename, storage_path, size, checksum,
			word_count, code_block_count, question_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + chapterColumns
	row := r.db.QueryRowContext(ctx, q,
		ch.ID,
		ch.Number,
		ch.Slug,
		ch.Title,
		ch.Filename,
		ch.StoragePath,
		ch.Size,
		ch.Checksum,
		ch.WordCount,
		ch.CodeBlockCount,
		ch.QuestionCount,
		ch.CreatedAt,
		ch.UpdatedAt,
	)
	return scanChapter(row)
}

// FindBySlug fetches a single chapter by its slug.
func (r *ChapterPostgres) FindBySlug(ctx context.Context, slug string) (*model.Chapter, error) {
	const q = `
		SELECT ` + chapterColumns + `
		FROM chapters
		WHERE slug = $1
	`
	return scanChapter(r.db.QueryRowContext(ctx, q, slug))
}

// FindByNumber fetches a single chapter by its position number.
func (r *ChapterPostgres) FindByNumber(ctx context.Context, number int) (*model.Chapter, error) {
	const q = `
		SELECT ` + chapterColumns + `
		FROM chapters
		WHERE number = $1
	`
	return scanChapter(r.db.QueryRowContext(ctx, q, number))
}

// List returns chapters in reading order using LIMIT/OFFSET pagination and a total count.
func (r *ChapterPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Chapter], error) {
	const qCount = `SELECT COUNT(*) FROM chapters`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + chapterColumns + `
		FROM chapters
		ORDER BY number ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Chapter, 0)
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Chapter]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a chapter by slug. Chapter links cascade via the FK.
// It does not return an error if the row does not exist.
func (r *ChapterPostgres) Delete(ctx context.Context, slug string) error {
	const q = `DELETE FROM chapters WHERE slug = $1`
	res, err := r.db.ExecContext(ctx, q, slug)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// ReplaceLinks swaps the stored link set of a chapter inside one transaction.
func (r *ChapterPostgres) ReplaceLinks(ctx context.Context, chapterID string, links []model.ChapterLink) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const qDel = `DELETE FROM chapter_links WHERE chapter_id = $1`
	if _, err := tx.ExecContext(ctx, qDel, chapterID); err != nil {
		return fmt.Errorf("delete old links: %w", err)
	}

	const qIns = `
		INSERT INTO chapter_links (chapter_id, target, kind, line)
		VALUES ($1, $2, $3, $4)
	`
	for _, l := range links {
		if _, err := tx.ExecContext(ctx, qIns, chapterID, l.Target, l.Kind, l.Line); err != nil {
			return fmt.Errorf("insert link %q: %w", l.Target, err)
		}
	}

	return tx.Commit()
}

// ListLinks returns all stored links of one kind across the corpus.
func (r *ChapterPostgres) ListLinks(ctx context.Context, kind string) ([]model.ChapterLink, error) {
	const q = `
		SELECT chapter_id, target, kind, line
		FROM chapter_links
		WHERE kind = $1
		ORDER BY chapter_id, line
	`
	rows, err := r.db.QueryContext(ctx, q, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]model.ChapterLink, 0)
	for rows.Next() {
		var l model.ChapterLink
		if err := rows.Scan(&l.ChapterID, &l.Target, &l.Kind, &l.Line); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListFilenames returns every stored chapter filename.
func (r *ChapterPostgres) ListFilenames(ctx context.Context) ([]string, error) {
	const q = `SELECT filename FROM chapters ORDER BY number ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// TOC returns the table of contents ordered by chapter number.
// Prev/Next navigation is filled in by the service from this ordering.
func (r *ChapterPostgres) TOC(ctx context.Context) ([]model.TOCEntry, error) {
	const q = `
		SELECT number, slug, title, filename, question_count
		FROM chapters
		ORDER BY number ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]model.TOCEntry, 0)
	for rows.Next() {
		var e model.TOCEntry
		if err := rows.Scan(&e.Number, &e.Slug, &e.Title, &e.Filename, &e.QuestionCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
