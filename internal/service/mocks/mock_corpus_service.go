package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"studyguide/internal/model"
	"studyguide/internal/service"
)

type MockCorpusService struct {
	mock.Mock
}

func (m *MockCorpusService) Publish(ctx context.Context, r io.Reader, filename string, size int64) (*model.Chapter, []model.LintIssue, error) {
	args := m.Called(ctx, r, filename, size)
	var ch *model.Chapter
	if args.Get(0) != nil {
		ch = args.Get(0).(*model.Chapter)
	}
	var issues []model.LintIssue
	if args.Get(1) != nil {
		issues = args.Get(1).([]model.LintIssue)
	}
	return ch, issues, args.Error(2)
}

func (m *MockCorpusService) List(ctx context.Context, limit, offset int) (*service.ChapterListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChapterListResult), args.Error(1)
}

func (m *MockCorpusService) Get(ctx context.Context, slug string) (*model.Chapter, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chapter), args.Error(1)
}

func (m *MockCorpusService) TOC(ctx context.Context) ([]model.TOCEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TOCEntry), args.Error(1)
}

func (m *MockCorpusService) RenderHTML(ctx context.Context, slug string) ([]byte, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCorpusService) DownloadURL(ctx context.Context, slug string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, slug, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockCorpusService) Delete(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func (m *MockCorpusService) Validate(ctx context.Context) (*model.CorpusReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CorpusReport), args.Error(1)
}

func (m *MockCorpusService) SeedFromDir(ctx context.Context, dir string) (int, error) {
	args := m.Called(ctx, dir)
	return args.Int(0), args.Error(1)
}
