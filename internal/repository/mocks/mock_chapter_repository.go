package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studyguide/internal/model"
	"studyguide/internal/repository"
)

type MockChapterRepository struct {
	mock.Mock
}

func (m *MockChapterRepository) Create(ctx context.Context, ch *model.Chapter) (*model.Chapter, error) {
	args := m.Called(ctx, ch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chapter), args.Error(1)
}

func (m *MockChapterRepository) FindBySlug(ctx context.Context, slug string) (*model.Chapter, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chapter), args.Error(1)
}

func (m *MockChapterRepository) FindByNumber(ctx context.Context, number int) (*model.Chapter, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chapter), args.Error(1)
}

func (m *MockChapterRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Chapter], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Chapter]), args.Error(1)
}

func (m *MockChapterRepository) Delete(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func (m *MockChapterRepository) ReplaceLinks(ctx context.Context, chapterID string, links []model.ChapterLink) error {
	args := m.Called(ctx, chapterID, links)
	return args.Error(0)
}

func (m *MockChapterRepository) ListLinks(ctx context.Context, kind string) ([]model.ChapterLink, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChapterLink), args.Error(1)
}

func (m *MockChapterRepository) ListFilenames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockChapterRepository) TOC(ctx context.Context) ([]model.TOCEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TOCEntry), args.Error(1)
}
