package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"blog-recommender/internal/domain"
)

// RerankOutput is the rerank stage result: the final score-ordered
// candidate set.
type RerankOutput struct {
	RerankedBlogs []domain.RankedBlog `json:"rerankedBlogs"`
}

// RerankStage composes vector retrieval, optional cross-encoder
// reranking, and optional rule post-processing into one ordered result.
//
// Reranking is the cost-incurring step, so it sits behind its own flag;
// disabling it must not disable rule post-processing, which is an
// independent, cheaper way of biasing results.
type RerankStage struct {
	vector   *VectorRanking
	reranker domain.Reranker
	rules    *RulesPostProcessor
	logger   *slog.Logger
}

func NewRerankStage(vector *VectorRanking, reranker domain.Reranker, rules *RulesPostProcessor, logger *slog.Logger) *RerankStage {
	return &RerankStage{
		vector:   vector,
		reranker: reranker,
		rules:    rules,
		logger:   logger,
	}
}

// Rerank runs the linear pipeline: vector retrieval, then (when enabled)
// cross-encoder rescoring of each candidate's embedding text against the
// serialized preferences, then (when rules are present) rule modifiers,
// then a stable descending sort. Ties keep their prior relative order.
func (s *RerankStage) Rerank(ctx context.Context, preferences Preferences, targetCount int, rules string, rerankerEnabled bool) (*RerankOutput, error) {
	start := time.Now()

	vectorOutput, err := s.vector.Rank(ctx, preferences, targetCount)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.RankedBlog, len(vectorOutput.Recommendations))
	copy(candidates, vectorOutput.Recommendations)

	if rerankerEnabled && len(candidates) > 0 {
		query, err := SerializePreferences(preferences)
		if err != nil {
			return nil, err
		}
		documents := make([]string, len(candidates))
		for i, c := range candidates {
			documents[i] = c.EmbeddingText
		}

		results, err := s.reranker.Rerank(ctx, query, documents, targetCount)
		if err != nil {
			return nil, fmt.Errorf("rerank call failed: %w", err)
		}
		// Each result references a position in the candidate set; the
		// cross-encoder score replaces the vector similarity, identity
		// is preserved.
		for _, r := range results {
			if r.Index < 0 || r.Index >= len(candidates) {
				return nil, fmt.Errorf("rerank result index %d out of range for %d candidates", r.Index, len(candidates))
			}
			candidates[r.Index].Similarity = r.RelevanceScore
		}
	}

	if rules != "" {
		candidates = s.rules.Apply(ctx, candidates, rules)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	s.logger.Info("rerank_stage_completed",
		slog.Bool("reranker_enabled", rerankerEnabled),
		slog.Bool("rules_applied", rules != ""),
		slog.Int("result_count", len(candidates)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &RerankOutput{RerankedBlogs: candidates}, nil
}
