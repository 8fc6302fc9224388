package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blog-recommender/internal/domain"

	"github.com/pgvector/pgvector-go"
)

// VectorRankingOutput carries the similarity-ranked candidates along with
// the preferences that produced them.
type VectorRankingOutput struct {
	Preferences     Preferences         `json:"preferences"`
	Recommendations []domain.RankedBlog `json:"recommendations"`
}

// VectorRanking embeds a preference query and retrieves the nearest blogs
// by cosine similarity.
type VectorRanking struct {
	store     domain.BlogStore
	embedder  domain.Embedder
	threshold float64
	logger    *slog.Logger
}

func NewVectorRanking(store domain.BlogStore, embedder domain.Embedder, threshold float64, logger *slog.Logger) *VectorRanking {
	return &VectorRanking{
		store:     store,
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
	}
}

// Rank returns up to targetCount blogs with similarity >= the configured
// threshold, in descending similarity order. Raw similarity scores are
// returned unchanged. Embedding and store failures are fatal: the stage
// never returns partial results.
func (v *VectorRanking) Rank(ctx context.Context, preferences Preferences, targetCount int) (*VectorRankingOutput, error) {
	start := time.Now()

	query, err := SerializePreferences(preferences)
	if err != nil {
		return nil, err
	}

	vec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}

	matches, err := v.store.MatchBySimilarity(ctx, pgvector.NewVector(vec), v.threshold, targetCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreQueryFailed, err)
	}

	recommendations := make([]domain.RankedBlog, 0, len(matches))
	for _, m := range matches {
		// The store query already filters on the threshold; enforce it
		// here too so a store regression cannot leak sub-threshold
		// candidates.
		if m.Similarity < v.threshold {
			continue
		}
		recommendations = append(recommendations, domain.RankedBlog{
			ID:              m.Blog.ID,
			Title:           m.Blog.Title,
			Summary:         m.Blog.Summary,
			URL:             m.Blog.URL,
			ContentMetadata: m.Blog.ContentMetadata,
			EmbeddingText:   m.Blog.EmbeddingText,
			Similarity:      m.Similarity,
		})
	}

	v.logger.Info("vector_ranking_completed",
		slog.Int("target_count", targetCount),
		slog.Int("result_count", len(recommendations)),
		slog.Float64("threshold", v.threshold),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &VectorRankingOutput{
		Preferences:     preferences,
		Recommendations: recommendations,
	}, nil
}
