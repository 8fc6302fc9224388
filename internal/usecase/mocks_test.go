package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"blog-recommender/internal/domain"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func msgContains(s, substr string) bool {
	return strings.Contains(s, substr)
}

// MockBlogStore
type MockBlogStore struct {
	mock.Mock
}

func (m *MockBlogStore) GetByID(ctx context.Context, id int64) (*domain.Blog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Blog), args.Error(1)
}

func (m *MockBlogStore) GetAll(ctx context.Context, limit int) ([]domain.Blog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Blog), args.Error(1)
}

func (m *MockBlogStore) MatchBySimilarity(ctx context.Context, query pgvector.Vector, threshold float64, count int) ([]domain.SimilarityMatch, error) {
	args := m.Called(ctx, query, threshold, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SimilarityMatch), args.Error(1)
}

func (m *MockBlogStore) Insert(ctx context.Context, blog *domain.Blog) error {
	args := m.Called(ctx, blog)
	return args.Error(0)
}

func (m *MockBlogStore) InsertBatch(ctx context.Context, blogs []domain.Blog) error {
	args := m.Called(ctx, blogs)
	return args.Error(0)
}

func (m *MockBlogStore) UpdateByPostID(ctx context.Context, postID string, update domain.BlogUpdate) error {
	args := m.Called(ctx, postID, update)
	return args.Error(0)
}

func (m *MockBlogStore) Count(ctx context.Context, includeDuplicates bool) (int, error) {
	args := m.Called(ctx, includeDuplicates)
	return args.Int(0), args.Error(1)
}

func (m *MockBlogStore) DeleteDuplicates(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockChatClient
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) Complete(ctx context.Context, model, prompt string, opts domain.CompletionOptions) (*domain.CompletionResult, error) {
	args := m.Called(ctx, model, prompt, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompletionResult), args.Error(1)
}

// MockEmbedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) Model() string {
	return "mock-embedding-model"
}

// MockReranker
type MockReranker struct {
	mock.Mock
}

func (m *MockReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]domain.RerankResult, error) {
	args := m.Called(ctx, query, documents, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RerankResult), args.Error(1)
}

func (m *MockReranker) ModelName() string {
	return "mock-rerank-model"
}
