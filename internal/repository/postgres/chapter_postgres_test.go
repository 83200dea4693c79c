package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyguide/internal/model"
	"studyguide/internal/repository"
)

var chapterCols = []string{
	"id", "number", "slug", "title", "filename", "storage_path", "size", "checksum",
	"word_count", "code_block_count", "question_count", "created_at", "updated_at",
}

func sampleChapter(now time.Time) *model.Chapter {
	return &model.Chapter{
		ID:             "test-uuid",
		Number:         5,
		Slug:           "arrays",
		Title:          "Arrays",
		Filename:       "05-arrays.md",
		StoragePath:    "chapters/05-arrays.md",
		Size:           1234,
		Checksum:       "abc123",
		WordCount:      800,
		CodeBlockCount: 6,
		QuestionCount:  4,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func chapterRow(ch *model.Chapter) *sqlmock.Rows {
	return sqlmock.NewRows(chapterCols).AddRow(
		ch.ID, ch.Number, ch.Slug, ch.Title, ch.Filename, ch.StoragePath, ch.Size,
		ch.Checksum, ch.WordCount, ch.CodeBlockCount, ch.QuestionCount,
		ch.CreatedAt, ch.UpdatedAt,
	)
}

func TestChapterPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	ch := sampleChapter(now)

	mock.ExpectQuery("INSERT INTO chapters").
		WithArgs(ch.ID, ch.Number, ch.Slug, ch.Title, ch.Filename, ch.StoragePath,
			ch.Size, ch.Checksum, ch.WordCount, ch.CodeBlockCount, ch.QuestionCount,
			ch.CreatedAt, ch.UpdatedAt).
		WillReturnRows(chapterRow(ch))

	result, err := repo.Create(ctx, ch)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, ch.ID, result.ID)
	assert.Equal(t, ch.Slug, result.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterPostgres_FindBySlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM chapters WHERE slug = ?").
			WithArgs("arrays").
			WillReturnRows(chapterRow(sampleChapter(time.Now())))

		ch, err := repo.FindBySlug(ctx, "arrays")

		assert.NoError(t, err)
		assert.NotNil(t, ch)
		assert.Equal(t, "arrays", ch.Slug)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM chapters WHERE slug = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		ch, err := repo.FindBySlug(ctx, "missing")

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, ch)
	})
}

func TestChapterPostgres_FindByNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)

	mock.ExpectQuery("SELECT (.+) FROM chapters WHERE number = ?").
		WithArgs(5).
		WillReturnRows(chapterRow(sampleChapter(time.Now())))

	ch, err := repo.FindByNumber(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, 5, ch.Number)
}

func TestChapterPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM chapters").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT (.+) FROM chapters ORDER BY number").
			WithArgs(10, 0).
			WillReturnRows(chapterRow(sampleChapter(time.Now())))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM chapters").
			WillReturnError(errors.New("db down"))

		_, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})
		assert.Error(t, err)
	})
}

func TestChapterPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)

	mock.ExpectExec("DELETE FROM chapters WHERE slug = ?").
		WithArgs("arrays").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(context.Background(), "arrays")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterPostgres_ReplaceLinks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)
	links := []model.ChapterLink{
		{ChapterID: "test-uuid", Target: "./02-operators.md", Kind: model.LinkKindInternal, Line: 12},
		{ChapterID: "test-uuid", Target: "https://developer.mozilla.org", Kind: model.LinkKindExternal, Line: 30},
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM chapter_links WHERE chapter_id = ?").
			WithArgs("test-uuid").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO chapter_links").
			WithArgs("test-uuid", "./02-operators.md", model.LinkKindInternal, 12).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO chapter_links").
			WithArgs("test-uuid", "https://developer.mozilla.org", model.LinkKindExternal, 30).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ReplaceLinks(context.Background(), "test-uuid", links)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM chapter_links WHERE chapter_id = ?").
			WithArgs("test-uuid").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO chapter_links").
			WithArgs("test-uuid", "./02-operators.md", model.LinkKindInternal, 12).
			WillReturnError(errors.New("constraint violation"))
		mock.ExpectRollback()

		err := repo.ReplaceLinks(context.Background(), "test-uuid", links)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChapterPostgres_ListLinks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)

	rows := sqlmock.NewRows([]string{"chapter_id", "target", "kind", "line"}).
		AddRow("test-uuid", "./02-operators.md", model.LinkKindInternal, 12)

	mock.ExpectQuery("SELECT (.+) FROM chapter_links WHERE kind = ?").
		WithArgs(model.LinkKindInternal).
		WillReturnRows(rows)

	links, err := repo.ListLinks(context.Background(), model.LinkKindInternal)

	assert.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "./02-operators.md", links[0].Target)
}

func TestChapterPostgres_ListFilenames(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)

	rows := sqlmock.NewRows([]string{"filename"}).
		AddRow("01-variables-and-types.md").
		AddRow("02-operators.md")

	mock.ExpectQuery("SELECT filename FROM chapters ORDER BY number").
		WillReturnRows(rows)

	names, err := repo.ListFilenames(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"01-variables-and-types.md", "02-operators.md"}, names)
}

func TestChapterPostgres_TOC(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChapterPostgres(db)

	rows := sqlmock.NewRows([]string{"number", "slug", "title", "filename", "question_count"}).
		AddRow(1, "variables-and-types", "Variables and Types", "01-variables-and-types.md", 5).
		AddRow(2, "operators", "Operators", "02-operators.md", 3)

	mock.ExpectQuery("SELECT (.+) FROM chapters ORDER BY number").
		WillReturnRows(rows)

	entries, err := repo.TOC(context.Background())

	assert.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "variables-and-types", entries[0].Slug)
	assert.Equal(t, 2, entries[1].Number)
}
