package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRerankerClient_Rerank_Success(t *testing.T) {
	var gotRequest RerankRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		_ = json.NewEncoder(w).Encode(RerankResponse{
			Results: []RerankResponseResult{
				{Index: 1, RelevanceScore: 0.92},
				{Index: 0, RelevanceScore: 0.41},
			},
		})
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "rerank-v3.5", "secret", 5*time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "beach trip", []string{"doc-a", "doc-b"}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 0.92, results[0].RelevanceScore)

	assert.Equal(t, "rerank-v3.5", gotRequest.Model)
	assert.Equal(t, "beach trip", gotRequest.Query)
	assert.Equal(t, []string{"doc-a", "doc-b"}, gotRequest.Documents)
	assert.Equal(t, 2, gotRequest.TopN)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestRerankerClient_Rerank_NoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(RerankResponse{})
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "m", "", 5*time.Second, testLogger())

	_, err := client.Rerank(context.Background(), "q", []string{"doc"}, 1)
	assert.NoError(t, err)
}

func TestRerankerClient_Rerank_EmptyDocuments(t *testing.T) {
	client := NewRerankerClient("http://unreachable.invalid", "m", "", time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "q", nil, 5)

	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestRerankerClient_Rerank_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "m", "", 5*time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "q", []string{"doc"}, 1)

	assert.Nil(t, results)
	assert.ErrorContains(t, err, "503")
}

func TestRerankerClient_Rerank_OutOfRangeIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(RerankResponse{
			Results: []RerankResponseResult{{Index: 5, RelevanceScore: 0.9}},
		})
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "m", "", 5*time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "q", []string{"doc"}, 1)

	assert.Nil(t, results)
	assert.ErrorContains(t, err, "invalid result index")
}
