package blog_http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blog-recommender/internal/adapter/blog_http"
	"blog-recommender/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newTestHandler builds a handler whose request-validation paths can be
// exercised without any backing services.
func newTestHandler() *blog_http.Handler {
	recommender := usecase.NewRecommender(nil, nil, nil, 0, testLogger())
	return blog_http.NewHandler(recommender, nil, nil, nil, "")
}

func doRequest(t *testing.T, method, target, body string, handle echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handle(c))
	return rec
}

func TestHandler_Recommend_UnknownSearchType(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, http.MethodPost, "/v1/blogs/recommend",
		`{"preferences": {"mood": "calm"}, "searchType": "hybrid"}`, h.Recommend)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "hybrid")
}

func TestHandler_Recommend_MissingPreferences(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, http.MethodPost, "/v1/blogs/recommend",
		`{"searchType": "vector"}`, h.Recommend)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Recommend_MalformedBody(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, http.MethodPost, "/v1/blogs/recommend", `{not json`, h.Recommend)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Scrape_MissingLimit(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, http.MethodGet, "/v1/blogs/scrape", "", h.Scrape)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "limit")
}

func TestHandler_Scrape_InvalidLimit(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, http.MethodGet, "/v1/blogs/scrape?limit=-3", "", h.Scrape)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Health(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, http.MethodGet, "/health", "", h.Health)

	assert.Equal(t, http.StatusOK, rec.Code)
}
