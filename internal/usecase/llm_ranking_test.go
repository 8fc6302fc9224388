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

func newLLMRanking(store *MockBlogStore, chat *MockChatClient) *usecase.LLMRanking {
	return usecase.NewLLMRanking(store, chat, usecase.CyclicPadder{}, 2000, testLogger())
}

func TestLLMRanking_Rank_Success(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockChat := new(MockChatClient)
	uc := newLLMRanking(mockStore, mockChat)

	ctx := context.Background()
	mockStore.On("GetAll", ctx, 2000).Return([]domain.Blog{
		{ID: 1, Title: "Beach Day"},
		{ID: 2, Title: "Wine Trail"},
	}, nil)
	mockChat.On("Complete", ctx, "test-model", mock.Anything, domain.CompletionOptions{Temperature: 0.7}).
		Return(&domain.CompletionResult{
			Text:  `[{"id": "2", "score": 95}, {"id": "1", "score": 80}]`,
			Usage: domain.TokenUsage{TotalTokens: 120},
		}, nil)

	output, err := uc.Rank(ctx, usecase.Preferences{"activities": []string{"Wine"}}, "test-model", 2)

	assert.NoError(t, err)
	assert.Len(t, output.Recommendations, 2)
	assert.Equal(t, int64(2), output.Recommendations[0].ID)
	assert.Equal(t, float64(95), output.Recommendations[0].Score)
	assert.Equal(t, int64(1), output.Recommendations[1].ID)
	assert.Equal(t, 120, output.Metric.Usage.TotalTokens)
	assert.Equal(t, 2, output.Metric.Total)
}

func TestLLMRanking_Rank_BareNumericIDs(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockChat := new(MockChatClient)
	uc := newLLMRanking(mockStore, mockChat)

	ctx := context.Background()
	mockStore.On("GetAll", ctx, 2000).Return([]domain.Blog{{ID: 7, Title: "Hike"}}, nil)
	// Models sometimes emit ids as bare numbers despite the prompt.
	mockChat.On("Complete", ctx, "m", mock.Anything, mock.Anything).
		Return(&domain.CompletionResult{Text: `[{"id": 7, "score": 88}]`}, nil)

	output, err := uc.Rank(ctx, usecase.Preferences{}, "m", 1)

	assert.NoError(t, err)
	assert.Len(t, output.Recommendations, 1)
	assert.Equal(t, int64(7), output.Recommendations[0].ID)
}

func TestLLMRanking_Rank_PadsAndRanksDuplicates(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockChat := new(MockChatClient)
	uc := newLLMRanking(mockStore, mockChat)

	ctx := context.Background()
	mockStore.On("GetAll", ctx, 2000).Return([]domain.Blog{{ID: 1, Title: "Only Post"}}, nil)
	mockChat.On("Complete", ctx, "m", mock.Anything, mock.Anything).
		Return(&domain.CompletionResult{
			Text: `[{"id": "1", "score": 90}, {"id": "dup-1", "score": 85}, {"id": "dup-2", "score": 80}]`,
		}, nil)

	output, err := uc.Rank(ctx, usecase.Preferences{}, "m", 3)

	assert.NoError(t, err)
	assert.Len(t, output.Recommendations, 3)
	// Padded entries resolve back to their source blog.
	assert.Equal(t, int64(1), output.Recommendations[1].ID)
	assert.Equal(t, float64(85), output.Recommendations[1].Score)
	assert.Equal(t, 3, output.Metric.Total)
}

func TestLLMRanking_Rank_ExtractsWrappedArray(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockChat := new(MockChatClient)
	uc := newLLMRanking(mockStore, mockChat)

	ctx := context.Background()
	mockStore.On("GetAll", ctx, 2000).Return([]domain.Blog{{ID: 3, Title: "Tide Pools"}}, nil)
	mockChat.On("Complete", ctx, "m", mock.Anything, mock.Anything).
		Return(&domain.CompletionResult{
			Text: "Here is the ranking:\n```json\n[{\"id\": \"3\", \"score\": 77}]\n```\nHope this helps!",
		}, nil)

	output, err := uc.Rank(ctx, usecase.Preferences{}, "m", 1)

	assert.NoError(t, err)
	assert.Len(t, output.Recommendations, 1)
	assert.Equal(t, float64(77), output.Recommendations[0].Score)
}

func TestLLMRanking_Rank_UnparseableResponse(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockChat := new(MockChatClient)
	uc := newLLMRanking(mockStore, mockChat)

	ctx := context.Background()
	mockStore.On("GetAll", ctx, 2000).Return([]domain.Blog{{ID: 1}}, nil)
	mockChat.On("Complete", ctx, "m", mock.Anything, mock.Anything).
		Return(&domain.CompletionResult{Text: "I cannot rank these posts."}, nil)

	output, err := uc.Rank(ctx, usecase.Preferences{}, "m", 1)

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domain.ErrRankingParse)
}

func TestLLMRanking_Rank_UnknownIDsDropped(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockChat := new(MockChatClient)
	uc := newLLMRanking(mockStore, mockChat)

	ctx := context.Background()
	mockStore.On("GetAll", ctx, 2000).Return([]domain.Blog{{ID: 1, Title: "Real"}}, nil)
	mockChat.On("Complete", ctx, "m", mock.Anything, mock.Anything).
		Return(&domain.CompletionResult{
			Text: `[{"id": "999", "score": 99}, {"id": "1", "score": 50}]`,
		}, nil)

	output, err := uc.Rank(ctx, usecase.Preferences{}, "m", 1)

	assert.NoError(t, err)
	assert.Len(t, output.Recommendations, 1)
	assert.Equal(t, int64(1), output.Recommendations[0].ID)
}

func TestLLMRanking_Rank_EmptyCatalog(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockChat := new(MockChatClient)
	uc := newLLMRanking(mockStore, mockChat)

	ctx := context.Background()
	mockStore.On("GetAll", ctx, 2000).Return([]domain.Blog{}, nil)

	output, err := uc.Rank(ctx, usecase.Preferences{}, "m", 5)

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domain.ErrStoreQueryFailed)
	mockChat.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLLMRanking_Rank_StoreFailure(t *testing.T) {
	mockStore := new(MockBlogStore)
	mockChat := new(MockChatClient)
	uc := newLLMRanking(mockStore, mockChat)

	ctx := context.Background()
	mockStore.On("GetAll", ctx, 2000).Return(nil, errors.New("connection reset"))

	output, err := uc.Rank(ctx, usecase.Preferences{}, "m", 5)

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domain.ErrStoreQueryFailed)
}
