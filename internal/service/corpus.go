package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"studyguide/internal/lint"
	"studyguide/internal/linkcheck"
	"studyguide/internal/markdown"
	"studyguide/internal/model"
	"studyguide/internal/repository"
	"studyguide/internal/storage"
)

var (
	ErrSlugRequired   = errors.New("slug is required")
	ErrNotFound       = errors.New("chapter not found")
	ErrReaderNil      = errors.New("reader is nil")
	ErrChapterInvalid = errors.New("chapter failed lint checks")
	ErrChapterTooBig  = errors.New("chapter exceeds size limit")
)

// storagePrefix is the object-store key prefix for chapter bodies.
const storagePrefix = "chapters"

// ChapterListResult is the service-level DTO for paginated chapters.
type ChapterListResult struct {
	Items []model.Chapter `json:"data"`
	Total int             `json:"total"`
}

// CorpusService defines the use cases for managing the study-guide corpus.
type CorpusService interface {
	// Publish lints and stores one chapter file. The returned issues carry
	// warnings on success; on ErrChapterInvalid they carry the blocking errors.
	// Re-publishing an existing slug replaces its content.
	Publish(ctx context.Context, r io.Reader, filename string, size int64) (*model.Chapter, []model.LintIssue, error)

	// List returns chapters in reading order using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ChapterListResult, error)

	// Get returns a single chapter's metadata by its slug.
	Get(ctx context.Context, slug string) (*model.Chapter, error)

	// TOC returns the generated table of contents with prev/next navigation.
	TOC(ctx context.Context) ([]model.TOCEntry, error)

	// RenderHTML fetches a chapter body from storage and renders it to HTML.
	RenderHTML(ctx context.Context, slug string) ([]byte, error)

	// DownloadURL returns a presigned URL for the raw Markdown of a chapter.
	DownloadURL(ctx context.Context, slug string, expiry time.Duration) (string, error)

	// Delete removes a chapter from both storage and the repository.
	Delete(ctx context.Context, slug string) error

	// Validate re-lints every stored chapter and checks corpus-level
	// integrity: internal links resolve to stored chapters, numbering is
	// gap-free, and (when enabled) external URLs answer.
	Validate(ctx context.Context) (*model.CorpusReport, error)

	// SeedFromDir publishes every chapter file found in a local directory.
	// Invalid files are reported in the returned error but do not stop the seed.
	SeedFromDir(ctx context.Context, dir string) (int, error)
}

// corpusService is a concrete implementation of CorpusService.
type corpusService struct {
	store    storage.Storage
	repo     repository.ChapterRepository
	checker  *linkcheck.Checker
	maxBytes int64
}

// Option configures optional corpus service behavior.
type Option func(*corpusService)

// WithLinkChecker enables external URL probing during Validate.
func WithLinkChecker(c *linkcheck.Checker) Option {
	return func(s *corpusService) { s.checker = c }
}

// WithMaxChapterSize caps the accepted chapter body size in bytes.
func WithMaxChapterSize(n int64) Option {
	return func(s *corpusService) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewCorpusService constructs a new CorpusService.
func NewCorpusService(store storage.Storage, repo repository.ChapterRepository, opts ...Option) CorpusService {
	s := &corpusService{
		store:    store,
		repo:     repo,
		maxBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *corpusService) Publish(ctx context.Context, r io.Reader, filename string, size int64) (*model.Chapter, []model.LintIssue, error) {
	if r == nil {
		return nil, nil, ErrReaderNil
	}

	body, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read chapter body: %w", err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, nil, ErrChapterTooBig
	}

	doc, err := markdown.Parse(filename, body)
	if err != nil {
		issues := []model.LintIssue{{
			Rule:     "parse",
			Severity: model.SeverityError,
			Message:  err.Error(),
		}}
		return nil, issues, ErrChapterInvalid
	}

	issues := lint.Run(doc)
	if lint.HasErrors(issues) {
		return nil, issues, ErrChapterInvalid
	}

	// FilenameConvention passed, so the name splits cleanly.
	number, slug, _ := markdown.SplitFilename(filename)

	sum := sha256.Sum256(body)
	checksum := hex.EncodeToString(sum[:])

	now := time.Now().UTC()
	createdAt := now

	// Re-publishing the same content is a no-op; changed content replaces the
	// stored chapter but keeps its original creation time.
	existing, err := s.repo.FindBySlug(ctx, slug)
	switch {
	case err == nil:
		if existing.Checksum == checksum {
			return existing, issues, nil
		}
		createdAt = existing.CreatedAt
		if err := s.repo.Delete(ctx, slug); err != nil {
			return nil, issues, fmt.Errorf("replace chapter: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// new chapter
	default:
		return nil, issues, err
	}

	key := filepath.ToSlash(filepath.Join(storagePrefix, filename))
	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: storage.ContentTypeMarkdown,
		Metadata: map[string]string{
			"chapter-slug": slug,
		},
	})
	if err != nil {
		return nil, issues, fmt.Errorf("upload to storage: %w", err)
	}

	ch := &model.Chapter{
		ID:             uuid.New().String(),
		Number:         number,
		Slug:           slug,
		Title:          doc.Title,
		Filename:       filename,
		StoragePath:    objInfo.Key,
		Size:           objInfo.Size,
		Checksum:       checksum,
		WordCount:      doc.WordCount,
		CodeBlockCount: len(doc.Fences),
		QuestionCount:  doc.QuestionCount,
		CreatedAt:      createdAt,
		UpdatedAt:      now,
	}
	stored, err := s.repo.Create(ctx, ch)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, issues, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, issues, fmt.Errorf("db save failed: %w", err)
	}

	links := make([]model.ChapterLink, 0, len(doc.Links))
	for _, l := range doc.Links {
		links = append(links, model.ChapterLink{
			ChapterID: stored.ID,
			Target:    l.Target,
			Kind:      l.Kind,
			Line:      l.Line,
		})
	}
	if err := s.repo.ReplaceLinks(ctx, stored.ID, links); err != nil {
		return nil, issues, fmt.Errorf("store links: %w", err)
	}

	return stored, issues, nil
}

// List returns paginated chapters without exposing repository types.
func (s *corpusService) List(ctx context.Context, limit, offset int) (*ChapterListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ChapterListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a chapter by slug.
func (s *corpusService) Get(ctx context.Context, slug string) (*model.Chapter, error) {
	if slug == "" {
		return nil, ErrSlugRequired
	}
	ch, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ch, nil
}

// TOC returns the table of contents with prev/next reading-order navigation.
func (s *corpusService) TOC(ctx context.Context) ([]model.TOCEntry, error) {
	entries, err := s.repo.TOC(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if i > 0 {
			entries[i].Prev = entries[i-1].Slug
		}
		if i < len(entries)-1 {
			entries[i].Next = entries[i+1].Slug
		}
	}
	return entries, nil
}

// RenderHTML streams the stored chapter body out of object storage and
// renders it to HTML.
func (s *corpusService) RenderHTML(ctx context.Context, slug string) ([]byte, error) {
	ch, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	rc, _, err := s.store.Get(ctx, ch.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("fetch chapter body: %w", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read chapter body: %w", err)
	}
	return markdown.Render(body)
}

// DownloadURL returns a presigned URL for the raw Markdown.
func (s *corpusService) DownloadURL(ctx context.Context, slug string, expiry time.Duration) (string, error) {
	ch, err := s.Get(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, ch.StoragePath, expiry)
}

// Delete removes a chapter from storage, then deletes its record.
func (s *corpusService) Delete(ctx context.Context, slug string) error {
	if slug == "" {
		return ErrSlugRequired
	}
	ch, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep the DB row so the
	// storage reference is not lost.
	if err := s.store.Delete(ctx, ch.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, slug)
}

// Validate re-lints every stored chapter and adds the corpus-level checks no
// single file can answer on its own.
func (s *corpusService) Validate(ctx context.Context) (*model.CorpusReport, error) {
	report := &model.CorpusReport{}

	entries, err := s.repo.TOC(ctx)
	if err != nil {
		return nil, err
	}
	report.ChapterCount = len(entries)

	// Per-chapter lint over the stored bodies.
	for _, e := range entries {
		issues, err := s.lintStored(ctx, e.Filename)
		if err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			report.Chapters = append(report.Chapters, model.ChapterReport{
				Slug:     e.Slug,
				Filename: e.Filename,
				Issues:   issues,
			})
		}
	}

	// Every internal link must land on a stored chapter file.
	filenames, err := s.repo.ListFilenames(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(filenames))
	for _, f := range filenames {
		known[f] = true
	}

	internal, err := s.repo.ListLinks(ctx, model.LinkKindInternal)
	if err != nil {
		return nil, err
	}
	for _, l := range internal {
		target := lint.InternalTarget(l.Target)
		if !known[target] {
			report.CorpusIssues = append(report.CorpusIssues, model.LintIssue{
				Rule:     "link-integrity",
				Severity: model.SeverityError,
				Line:     l.Line,
				Message:  fmt.Sprintf("link %q does not resolve to a stored chapter", l.Target),
			})
		}
	}

	// Numbering is unique at the schema level; gaps break the reading order.
	for i, e := range entries {
		if e.Number != i+1 {
			report.CorpusIssues = append(report.CorpusIssues, model.LintIssue{
				Rule:     "chapter-numbering",
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("expected chapter %02d, found %02d (%s)", i+1, e.Number, e.Filename),
			})
			break
		}
	}

	if s.checker != nil {
		if err := s.checkExternal(ctx, report); err != nil {
			return nil, err
		}
	}

	report.Count()
	return report, nil
}

// lintStored fetches one chapter body from storage and runs the lint rules.
func (s *corpusService) lintStored(ctx context.Context, filename string) ([]model.LintIssue, error) {
	key := filepath.ToSlash(filepath.Join(storagePrefix, filename))
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", filename, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	doc, err := markdown.Parse(filename, body)
	if err != nil {
		return []model.LintIssue{{
			Rule:     "parse",
			Severity: model.SeverityError,
			Message:  err.Error(),
		}}, nil
	}
	return lint.Run(doc), nil
}

// checkExternal probes every distinct external URL in the corpus.
func (s *corpusService) checkExternal(ctx context.Context, report *model.CorpusReport) error {
	external, err := s.repo.ListLinks(ctx, model.LinkKindExternal)
	if err != nil {
		return err
	}
	if len(external) == 0 {
		return nil
	}

	urls := make([]string, 0, len(external))
	for _, l := range external {
		urls = append(urls, l.Target)
	}
	results, err := s.checker.CheckAll(ctx, urls)
	if err != nil {
		return err
	}

	for _, l := range external {
		res, ok := results[l.Target]
		if !ok || res.OK() {
			continue
		}
		if res.Err != nil {
			// Unreachable could be transient; do not fail the corpus on it.
			report.CorpusIssues = append(report.CorpusIssues, model.LintIssue{
				Rule:     "external-link",
				Severity: model.SeverityWarning,
				Line:     l.Line,
				Message:  fmt.Sprintf("external link %q unreachable: %v", l.Target, res.Err),
			})
			continue
		}
		report.CorpusIssues = append(report.CorpusIssues, model.LintIssue{
			Rule:     "external-link",
			Severity: model.SeverityError,
			Line:     l.Line,
			Message:  fmt.Sprintf("external link %q answered %d", l.Target, res.Status),
		})
	}
	return nil
}

// SeedFromDir publishes every NN-slug.md file found in dir. Files that fail
// lint are collected into the returned error; the rest of the seed proceeds.
func (s *corpusService) SeedFromDir(ctx context.Context, dir string) (int, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read corpus dir: %w", err)
	}

	published := 0
	var errs []error
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if _, _, ok := markdown.SplitFilename(name); !ok {
			continue
		}

		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		_, _, err = s.Publish(ctx, f, name, -1)
		f.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		published++
	}

	return published, errors.Join(errs...)
}
