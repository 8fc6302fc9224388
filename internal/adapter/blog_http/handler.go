package blog_http

import (
	"errors"
	"net/http"
	"strconv"

	"blog-recommender/internal/domain"
	"blog-recommender/internal/scraper"
	"blog-recommender/internal/usecase"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	recommender *usecase.Recommender
	processor   *usecase.BlogProcessor
	refresher   *usecase.EmbeddingRefresher
	scraper     *scraper.Scraper
	dataDir     string
}

func NewHandler(
	recommender *usecase.Recommender,
	processor *usecase.BlogProcessor,
	refresher *usecase.EmbeddingRefresher,
	scr *scraper.Scraper,
	dataDir string,
) *Handler {
	return &Handler{
		recommender: recommender,
		processor:   processor,
		refresher:   refresher,
		scraper:     scr,
		dataDir:     dataDir,
	}
}

// RegisterRoutes attaches all blog endpoints to the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/v1/blogs/recommend", h.Recommend)
	e.GET("/v1/blogs/scrape", h.Scrape)
	e.POST("/v1/blogs/process", h.Process)
	e.POST("/v1/blogs/generate-metadata", h.GenerateMetadata)
	e.POST("/v1/blogs/update-metadata", h.UpdateMetadata)
}

func (h *Handler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type recommendRequest struct {
	Preferences     usecase.Preferences `json:"preferences"`
	SearchType      string              `json:"searchType"`
	Model           string              `json:"model"`
	TargetCount     int                 `json:"targetCount"`
	Rules           string              `json:"rules"`
	RerankerEnabled bool                `json:"rerankerEnabled"`
}

type recommendResponse struct {
	Success         bool                   `json:"success"`
	SearchType      usecase.SearchType     `json:"searchType"`
	Preferences     usecase.Preferences    `json:"preferences"`
	Recommendations []domain.RankedBlog    `json:"recommendations"`
	Metric          *usecase.RankingMetric `json:"metric,omitempty"`
}

// Recommend ranks the catalog against the caller's preferences.
// (POST /v1/blogs/recommend)
func (h *Handler) Recommend(ctx echo.Context) error {
	var req recommendRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse("invalid request"))
	}
	if len(req.Preferences) == 0 {
		return ctx.JSON(http.StatusBadRequest, errorResponse("missing preferences"))
	}

	result, err := h.recommender.Recommend(ctx.Request().Context(), usecase.RecommendRequest{
		Preferences:     req.Preferences,
		SearchType:      req.SearchType,
		Model:           req.Model,
		TargetCount:     req.TargetCount,
		Rules:           req.Rules,
		RerankerEnabled: req.RerankerEnabled,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSearchType) {
			return ctx.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		}
		return ctx.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
	}

	return ctx.JSON(http.StatusOK, recommendResponse{
		Success:         true,
		SearchType:      result.SearchType,
		Preferences:     result.Preferences,
		Recommendations: result.Recommendations,
		Metric:          result.Metric,
	})
}

// Scrape crawls the source site and writes post JSON files to the data
// directory. The limit query parameter is required so a careless call
// cannot start an unbounded crawl.
// (GET /v1/blogs/scrape?limit=N)
func (h *Handler) Scrape(ctx echo.Context) error {
	limitParam := ctx.QueryParam("limit")
	if limitParam == "" {
		return ctx.JSON(http.StatusBadRequest, errorResponse("missing limit parameter"))
	}
	limit, err := strconv.Atoi(limitParam)
	if err != nil || limit <= 0 {
		return ctx.JSON(http.StatusBadRequest, errorResponse("limit must be a positive integer"))
	}

	report, err := h.scraper.ScrapeAll(ctx.Request().Context(), limit)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

// Process ingests the scraped JSON files: metadata extraction, embedding
// and insertion into the store.
// (POST /v1/blogs/process)
func (h *Handler) Process(ctx echo.Context) error {
	report, err := h.processor.ProcessDir(ctx.Request().Context(), h.dataDir)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

// GenerateMetadata regenerates metadata and embeddings for every stored
// blog.
// (POST /v1/blogs/generate-metadata)
func (h *Handler) GenerateMetadata(ctx echo.Context) error {
	report, err := h.refresher.RefreshAll(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

// UpdateMetadata rewrites each blog's embedding text to the compact
// metadata-only form and re-embeds it.
// (POST /v1/blogs/update-metadata)
func (h *Handler) UpdateMetadata(ctx echo.Context) error {
	report, err := h.refresher.CompactEmbeddingTexts(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

func errorResponse(msg string) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": msg}
}
