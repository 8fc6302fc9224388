package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"blog-recommender/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

func newEmbeddingServer(t *testing.T, dims int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		*calls++
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: make([]float32, dims)}},
		})
	}))
}

func TestEmbeddingClient_Embed_Success(t *testing.T) {
	calls := 0
	server := newEmbeddingServer(t, domain.EmbeddingDim, &calls)
	defer server.Close()

	client, err := NewEmbeddingClient(EmbeddingClientConfig{
		APIKey:  "key",
		BaseURL: server.URL,
		Model:   "text-embedding-3-small",
	}, testLogger())
	require.NoError(t, err)

	vec, err := client.Embed(context.Background(), "beach trip")

	require.NoError(t, err)
	assert.Len(t, vec, domain.EmbeddingDim)
	assert.Equal(t, 1, calls)
}

func TestEmbeddingClient_Embed_CachesRepeatedQueries(t *testing.T) {
	calls := 0
	server := newEmbeddingServer(t, domain.EmbeddingDim, &calls)
	defer server.Close()

	client, err := NewEmbeddingClient(EmbeddingClientConfig{
		APIKey:  "key",
		BaseURL: server.URL,
		Model:   "text-embedding-3-small",
	}, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.Embed(ctx, "beach trip")
	require.NoError(t, err)
	_, err = client.Embed(ctx, "beach trip")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestEmbeddingClient_Embed_WrongDimensionality(t *testing.T) {
	calls := 0
	server := newEmbeddingServer(t, 8, &calls)
	defer server.Close()

	client, err := NewEmbeddingClient(EmbeddingClientConfig{
		APIKey:  "key",
		BaseURL: server.URL,
		Model:   "text-embedding-3-small",
	}, testLogger())
	require.NoError(t, err)

	vec, err := client.Embed(context.Background(), "beach trip")

	assert.Nil(t, vec)
	assert.ErrorContains(t, err, "8 dimensions")
}
