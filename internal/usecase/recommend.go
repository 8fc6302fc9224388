package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blog-recommender/internal/domain"

	"github.com/google/uuid"
)

// RecommendRequest carries the preferences, the strategy selector, and
// stage-specific parameters for one recommendation request.
type RecommendRequest struct {
	Preferences Preferences `json:"preferences"`
	SearchType  string      `json:"searchType"`

	// Stage parameters. Zero values are replaced by the documented
	// defaults before dispatch.
	Model           string `json:"model"`
	TargetCount     int    `json:"targetCount"`
	Rules           string `json:"rules"`
	RerankerEnabled bool   `json:"rerankerEnabled"`
}

// RecommendResult is the normalized result of any ranking strategy.
// Metric is present only for the llm strategy.
type RecommendResult struct {
	SearchType      SearchType          `json:"searchType"`
	Preferences     Preferences         `json:"preferences"`
	Recommendations []domain.RankedBlog `json:"recommendations"`
	Metric          *RankingMetric      `json:"metric,omitempty"`
}

// Defaults for the stage parameters of RecommendRequest.
const (
	DefaultModel       = "google/gemini-2.0-flash-001"
	DefaultTargetCount = 5
)

// Recommender dispatches a request to one of the three ranking stages.
type Recommender struct {
	vector             *VectorRanking
	llm                *LLMRanking
	rerank             *RerankStage
	defaultTargetCount int
	logger             *slog.Logger
}

func NewRecommender(vector *VectorRanking, llm *LLMRanking, rerank *RerankStage, defaultTargetCount int, logger *slog.Logger) *Recommender {
	if defaultTargetCount <= 0 {
		defaultTargetCount = DefaultTargetCount
	}
	return &Recommender{
		vector:             vector,
		llm:                llm,
		rerank:             rerank,
		defaultTargetCount: defaultTargetCount,
		logger:             logger,
	}
}

// Recommend validates the strategy selector, applies parameter defaults,
// and runs exactly one stage. An unrecognized selector fails with
// ErrInvalidSearchType before any store or generative call; no default
// stage is silently chosen. Stage failures bubble up unchanged.
func (r *Recommender) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResult, error) {
	searchType, err := ParseSearchType(req.SearchType)
	if err != nil {
		return nil, err
	}

	if req.Model == "" {
		req.Model = DefaultModel
	}
	if req.TargetCount <= 0 {
		req.TargetCount = r.defaultTargetCount
	}

	requestID := uuid.NewString()
	start := time.Now()
	log := r.logger.With(slog.String("request_id", requestID))

	log.Info("recommendation_started",
		slog.String("search_type", string(searchType)),
		slog.Int("target_count", req.TargetCount),
		slog.Bool("reranker_enabled", req.RerankerEnabled),
		slog.Bool("has_rules", req.Rules != ""))

	result := &RecommendResult{
		SearchType:  searchType,
		Preferences: req.Preferences,
	}

	switch searchType {
	case SearchTypeVector:
		out, err := r.vector.Rank(ctx, req.Preferences, req.TargetCount)
		if err != nil {
			return nil, err
		}
		result.Recommendations = out.Recommendations

	case SearchTypeLLM:
		out, err := r.llm.Rank(ctx, req.Preferences, req.Model, req.TargetCount)
		if err != nil {
			return nil, err
		}
		result.Recommendations = out.Recommendations
		result.Metric = &out.Metric

	case SearchTypeReranker:
		out, err := r.rerank.Rerank(ctx, req.Preferences, req.TargetCount, req.Rules, req.RerankerEnabled)
		if err != nil {
			return nil, err
		}
		result.Recommendations = out.RerankedBlogs

	default:
		// ParseSearchType already rejected everything else.
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSearchType, req.SearchType)
	}

	log.Info("recommendation_completed",
		slog.String("search_type", string(searchType)),
		slog.Int("result_count", len(result.Recommendations)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return result, nil
}
