package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blog-recommender/internal/domain"
)

// RankingMetric carries observability data for one LLM ranking call.
type RankingMetric struct {
	Duration time.Duration     `json:"duration"`
	Usage    domain.TokenUsage `json:"usage"`
	Total    int               `json:"total"`
}

// LLMRankingOutput is the LLM ranking stage result.
type LLMRankingOutput struct {
	Preferences     Preferences         `json:"preferences"`
	Recommendations []domain.RankedBlog `json:"recommendations"`
	Metric          RankingMetric       `json:"metric"`
}

// LLMRanking sends the whole candidate catalog plus preferences to a chat
// model and parses back a score-ordered ranking.
type LLMRanking struct {
	store      domain.BlogStore
	chat       domain.ChatClient
	padder     CatalogPadder
	maxCatalog int
	logger     *slog.Logger
}

func NewLLMRanking(store domain.BlogStore, chat domain.ChatClient, padder CatalogPadder, maxCatalog int, logger *slog.Logger) *LLMRanking {
	return &LLMRanking{
		store:      store,
		chat:       chat,
		padder:     padder,
		maxCatalog: maxCatalog,
		logger:     logger,
	}
}

// candidateProjection is the reduced view of a blog sent to the model.
type candidateProjection struct {
	ID              string                  `json:"id"`
	Title           string                  `json:"title"`
	ContentMetadata *domain.ContentMetadata `json:"content_metadata"`
}

// rankedItem is one entry of the model's response array.
type rankedItem struct {
	ID    string
	Score float64
}

func (r *rankedItem) UnmarshalJSON(data []byte) error {
	// Models emit numeric catalog ids either quoted or bare; accept both.
	var raw struct {
		ID    json.Number `json:"id"`
		Score float64     `json:"score"`
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err == nil && raw.ID.String() != "" {
		r.ID = raw.ID.String()
		r.Score = raw.Score
		return nil
	}

	var quoted struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(data, &quoted); err != nil {
		return err
	}
	r.ID = quoted.ID
	r.Score = quoted.Score
	return nil
}

// Rank fetches the catalog (bounded by the configured maximum), pads it to
// targetCount when smaller, asks the model for a descending ranking, and
// rehydrates the response into full candidates. Entries referencing ids
// absent from the padded catalog are logged and dropped, never fatal.
func (l *LLMRanking) Rank(ctx context.Context, preferences Preferences, model string, targetCount int) (*LLMRankingOutput, error) {
	start := time.Now()

	blogs, err := l.store.GetAll(ctx, l.maxCatalog)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreQueryFailed, err)
	}
	if len(blogs) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", domain.ErrStoreQueryFailed)
	}

	catalog := l.padder.Pad(NewCatalog(blogs), targetCount)

	l.logger.Info("llm_ranking_catalog_prepared",
		slog.Int("original_count", len(blogs)),
		slog.Int("expanded_count", len(catalog)))

	prompt, err := buildRankingPrompt(preferences, catalog)
	if err != nil {
		return nil, err
	}

	result, err := l.chat.Complete(ctx, model, prompt, domain.CompletionOptions{
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("llm ranking call failed: %w", err)
	}

	items, err := parseRanking(result.Text)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]CatalogEntry, len(catalog))
	for _, entry := range catalog {
		byID[entry.ID] = entry
	}

	recommendations := make([]domain.RankedBlog, 0, len(items))
	for _, item := range items {
		entry, ok := byID[item.ID]
		if !ok {
			l.logger.Warn("ranked_id_not_in_catalog", slog.String("id", item.ID))
			continue
		}
		b := entry.Blog
		recommendations = append(recommendations, domain.RankedBlog{
			ID:              b.ID,
			Title:           b.Title,
			Summary:         b.Summary,
			URL:             b.URL,
			ContentMetadata: b.ContentMetadata,
			Categories:      domain.TermNames(b.Categories),
			Tags:            domain.TermNames(b.Tags),
			Score:           item.Score,
		})
	}

	duration := time.Since(start)
	l.logger.Info("llm_ranking_completed",
		slog.String("model", model),
		slog.Int("ranked_count", len(recommendations)),
		slog.Int("total_tokens", result.Usage.TotalTokens),
		slog.Int64("duration_ms", duration.Milliseconds()))

	return &LLMRankingOutput{
		Preferences:     preferences,
		Recommendations: recommendations,
		Metric: RankingMetric{
			Duration: duration,
			Usage:    result.Usage,
			Total:    len(catalog),
		},
	}, nil
}

func buildRankingPrompt(preferences Preferences, catalog []CatalogEntry) (string, error) {
	prefJSON, err := json.MarshalIndent(preferences, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize preferences: %w", err)
	}

	projections := make([]candidateProjection, len(catalog))
	for i, entry := range catalog {
		projections[i] = candidateProjection{
			ID:              entry.ID,
			Title:           entry.Blog.Title,
			ContentMetadata: entry.Blog.ContentMetadata,
		}
	}
	catalogJSON, err := json.MarshalIndent(projections, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize catalog: %w", err)
	}

	return fmt.Sprintf(`You are a helpful assistant that ranks blog posts based on user preferences.
Given the following user preferences and a list of blog posts, rank the blog posts from most relevant to least relevant.
Consider the title and content_metadata when ranking.

User Preferences:
%s

Blog Posts to Rank:
%s

Please return a JSON array of objects with the following structure:
[
  {
    "id": "blog_id",
    "score": numeric_score_between_0_and_100
  },
  ...
]

Sort the array by score in descending order (highest scores first).
Only return the JSON array, nothing else. Do not include any other text or formatting.`,
		prefJSON, catalogJSON), nil
}

// parseRanking decodes the model output defensively: a strict
// whole-payload decode first, then a single attempt at extracting the
// first balanced array literal. Anything else fails the stage.
func parseRanking(raw string) ([]rankedItem, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrRankingParse)
	}

	var items []rankedItem
	if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
		return items, nil
	}

	extracted := extractJSONArray(trimmed)
	if extracted == "" {
		return nil, fmt.Errorf("%w: no array literal in response", domain.ErrRankingParse)
	}
	if err := json.Unmarshal([]byte(extracted), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRankingParse, err)
	}
	return items, nil
}
