package usecase_test

import (
	"context"
	"errors"
	"testing"

	"blog-recommender/internal/domain"
	"blog-recommender/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRerankStage(store *MockBlogStore, embedder *MockEmbedder, reranker *MockReranker, chat *MockChatClient) *usecase.RerankStage {
	vector := usecase.NewVectorRanking(store, embedder, 0.1, testLogger())
	rules := usecase.NewRulesPostProcessor(chat, "m", 10, testLogger())
	return usecase.NewRerankStage(vector, reranker, rules, testLogger())
}

func TestRerankStage_Rerank_Disabled(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockEmbedder := new(MockEmbedder)
	mockReranker := new(MockReranker)
	mockChat := new(MockChatClient)
	stage := newRerankStage(mockStore, mockEmbedder, mockReranker, mockChat)

	ctx := context.Background()
	mockEmbedder.On("Embed", ctx, mock.Anything).Return([]float32{0.1}, nil)
	mockStore.On("MatchBySimilarity", ctx, mock.Anything, 0.1, 2).Return([]domain.SimilarityMatch{
		{Blog: domain.Blog{ID: 1}, Similarity: 0.5},
		{Blog: domain.Blog{ID: 2}, Similarity: 0.3},
	}, nil)

	output, err := stage.Rerank(ctx, usecase.Preferences{"mood": "calm"}, 2, "", false)

	assert.NoError(t, err)
	assert.Len(t, output.RerankedBlogs, 2)
	// Vector similarities pass through untouched.
	assert.Equal(t, 0.5, output.RerankedBlogs[0].Similarity)
	assert.Equal(t, 0.3, output.RerankedBlogs[1].Similarity)
	mockReranker.AssertNotCalled(t, "Rerank", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockChat.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Full pipeline: vector scores, cross-encoder rescoring, one rule boost,
// then the final descending sort.
func TestRerankStage_Rerank_FullPipeline(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockEmbedder := new(MockEmbedder)
	mockReranker := new(MockReranker)
	mockChat := new(MockChatClient)
	stage := newRerankStage(mockStore, mockEmbedder, mockReranker, mockChat)

	ctx := context.Background()
	mockEmbedder.On("Embed", ctx, mock.Anything).Return([]float32{0.1}, nil)
	mockStore.On("MatchBySimilarity", ctx, mock.Anything, 0.1, 2).Return([]domain.SimilarityMatch{
		{Blog: domain.Blog{ID: 1, Title: "A", EmbeddingText: "doc-a"}, Similarity: 0.4},
		{Blog: domain.Blog{ID: 2, Title: "B", EmbeddingText: "doc-b"}, Similarity: 0.6},
	}, nil)

	// Cross-encoder scores replace the vector similarities by index.
	mockReranker.On("Rerank", ctx, `{"mood":"calm"}`, []string{"doc-a", "doc-b"}, 2).
		Return([]domain.RerankResult{
			{Index: 0, RelevanceScore: 0.6},
			{Index: 1, RelevanceScore: 0.5},
		}, nil)

	// Rule boosts A by 0.1 and leaves B alone.
	mockChat.On("Complete", ctx, "m", mock.MatchedBy(func(p string) bool {
		return msgContains(p, `"A"`)
	}), mock.Anything).Return(&domain.CompletionResult{Text: "0.1"}, nil)
	mockChat.On("Complete", ctx, "m", mock.MatchedBy(func(p string) bool {
		return msgContains(p, `"B"`)
	}), mock.Anything).Return(&domain.CompletionResult{Text: "0"}, nil)

	output, err := stage.Rerank(ctx, usecase.Preferences{"mood": "calm"}, 2, "boost A", true)

	assert.NoError(t, err)
	assert.Len(t, output.RerankedBlogs, 2)
	assert.Equal(t, int64(1), output.RerankedBlogs[0].ID)
	assert.InDelta(t, 0.7, output.RerankedBlogs[0].Similarity, 1e-9)
	assert.Equal(t, int64(2), output.RerankedBlogs[1].ID)
	assert.InDelta(t, 0.5, output.RerankedBlogs[1].Similarity, 1e-9)
	mockReranker.AssertExpectations(t)
}

func TestRerankStage_Rerank_RerankerFailureIsFatal(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockEmbedder := new(MockEmbedder)
	mockReranker := new(MockReranker)
	mockChat := new(MockChatClient)
	stage := newRerankStage(mockStore, mockEmbedder, mockReranker, mockChat)

	ctx := context.Background()
	mockEmbedder.On("Embed", ctx, mock.Anything).Return([]float32{0.1}, nil)
	mockStore.On("MatchBySimilarity", ctx, mock.Anything, 0.1, 2).Return([]domain.SimilarityMatch{
		{Blog: domain.Blog{ID: 1, EmbeddingText: "doc"}, Similarity: 0.4},
	}, nil)
	mockReranker.On("Rerank", ctx, mock.Anything, mock.Anything, 2).
		Return(nil, errors.New("service unavailable"))

	output, err := stage.Rerank(ctx, usecase.Preferences{}, 2, "", true)

	assert.Nil(t, output)
	assert.Error(t, err)
}

func TestRerankStage_Rerank_OutOfRangeIndexIsFatal(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockEmbedder := new(MockEmbedder)
	mockReranker := new(MockReranker)
	mockChat := new(MockChatClient)
	stage := newRerankStage(mockStore, mockEmbedder, mockReranker, mockChat)

	ctx := context.Background()
	mockEmbedder.On("Embed", ctx, mock.Anything).Return([]float32{0.1}, nil)
	mockStore.On("MatchBySimilarity", ctx, mock.Anything, 0.1, 2).Return([]domain.SimilarityMatch{
		{Blog: domain.Blog{ID: 1, EmbeddingText: "doc"}, Similarity: 0.4},
	}, nil)
	// A reranker implementation violating the index contract must fail
	// the request, not panic it.
	mockReranker.On("Rerank", ctx, mock.Anything, mock.Anything, 2).
		Return([]domain.RerankResult{{Index: 5, RelevanceScore: 0.9}}, nil)

	output, err := stage.Rerank(ctx, usecase.Preferences{}, 2, "", true)

	assert.Nil(t, output)
	assert.ErrorContains(t, err, "out of range")
}

func TestRerankStage_Rerank_EmptyCandidatesSkipsReranker(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockEmbedder := new(MockEmbedder)
	mockReranker := new(MockReranker)
	mockChat := new(MockChatClient)
	stage := newRerankStage(mockStore, mockEmbedder, mockReranker, mockChat)

	ctx := context.Background()
	mockEmbedder.On("Embed", ctx, mock.Anything).Return([]float32{0.1}, nil)
	mockStore.On("MatchBySimilarity", ctx, mock.Anything, 0.1, 5).Return([]domain.SimilarityMatch{}, nil)

	output, err := stage.Rerank(ctx, usecase.Preferences{}, 5, "", true)

	assert.NoError(t, err)
	assert.Empty(t, output.RerankedBlogs)
	mockReranker.AssertNotCalled(t, "Rerank", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRerankStage_Rerank_OrderingNonIncreasing(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockEmbedder := new(MockEmbedder)
	mockReranker := new(MockReranker)
	mockChat := new(MockChatClient)
	stage := newRerankStage(mockStore, mockEmbedder, mockReranker, mockChat)

	ctx := context.Background()
	mockEmbedder.On("Embed", ctx, mock.Anything).Return([]float32{0.1}, nil)
	mockStore.On("MatchBySimilarity", ctx, mock.Anything, 0.1, 3).Return([]domain.SimilarityMatch{
		{Blog: domain.Blog{ID: 1, EmbeddingText: "a"}, Similarity: 0.9},
		{Blog: domain.Blog{ID: 2, EmbeddingText: "b"}, Similarity: 0.8},
		{Blog: domain.Blog{ID: 3, EmbeddingText: "c"}, Similarity: 0.7},
	}, nil)
	mockReranker.On("Rerank", ctx, mock.Anything, mock.Anything, 3).
		Return([]domain.RerankResult{
			{Index: 2, RelevanceScore: 0.95},
			{Index: 0, RelevanceScore: 0.5},
			{Index: 1, RelevanceScore: 0.2},
		}, nil)

	output, err := stage.Rerank(ctx, usecase.Preferences{}, 3, "", true)

	assert.NoError(t, err)
	for i := 1; i < len(output.RerankedBlogs); i++ {
		assert.GreaterOrEqual(t,
			output.RerankedBlogs[i-1].Similarity,
			output.RerankedBlogs[i].Similarity)
	}
	assert.Equal(t, int64(3), output.RerankedBlogs[0].ID)
}
