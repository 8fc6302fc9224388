package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blog-recommender/internal/domain"

	"github.com/pgvector/pgvector-go"
)

// RefreshReport summarizes one embedding refresh run.
type RefreshReport struct {
	Total     int            `json:"total"`
	Processed int            `json:"processed"`
	Failed    int            `json:"failed"`
	Errors    []RefreshError `json:"errors,omitempty"`
}

// RefreshError records a single failed blog.
type RefreshError struct {
	PostID string `json:"post_id"`
	Title  string `json:"title"`
	Error  string `json:"error"`
}

// EmbeddingRefresher regenerates metadata, embedding text, and embeddings
// for stored blogs. It enforces the derivation invariant: the embedding
// text is rebuilt first, and the new vector is computed from it.
type EmbeddingRefresher struct {
	store     domain.BlogStore
	extractor *MetadataExtractor
	embedder  domain.Embedder
	logger    *slog.Logger
}

func NewEmbeddingRefresher(store domain.BlogStore, extractor *MetadataExtractor, embedder domain.Embedder, logger *slog.Logger) *EmbeddingRefresher {
	return &EmbeddingRefresher{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		logger:    logger,
	}
}

// richEmbeddingText is the descriptive embedding-text shape used by the
// full refresh: title, summary, taxonomy, and metadata together.
type richEmbeddingText struct {
	Title           string                  `json:"title"`
	Summary         string                  `json:"summary"`
	PublishDate     time.Time               `json:"publishDate"`
	Categories      []string                `json:"categories"`
	Tags            []string                `json:"tags"`
	ContentMetadata *domain.ContentMetadata `json:"contentMetadata"`
}

// RefreshAll regenerates every blog in place. Per-blog failures are
// accumulated, not fatal.
func (r *EmbeddingRefresher) RefreshAll(ctx context.Context) (*RefreshReport, error) {
	blogs, err := r.store.GetAll(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreQueryFailed, err)
	}

	report := &RefreshReport{Total: len(blogs)}
	for i := range blogs {
		b := &blogs[i]
		if err := r.refreshBlog(ctx, b); err != nil {
			r.logger.Error("blog_refresh_failed",
				slog.String("post_id", b.PostID),
				slog.String("title", b.Title),
				slog.String("error", err.Error()))
			report.Failed++
			report.Errors = append(report.Errors, RefreshError{
				PostID: b.PostID,
				Title:  b.Title,
				Error:  err.Error(),
			})
			continue
		}
		r.logger.Info("blog_refreshed", slog.String("post_id", b.PostID))
		report.Processed++
	}
	return report, nil
}

func (r *EmbeddingRefresher) refreshBlog(ctx context.Context, b *domain.Blog) error {
	metadata, err := r.extractor.Extract(ctx, b.MainContent)
	if err != nil {
		if !errors.Is(err, domain.ErrExtractionFailed) {
			return err
		}
		metadata = nil
	}

	text, err := json.Marshal(richEmbeddingText{
		Title:           b.Title,
		Summary:         b.Summary,
		PublishDate:     b.PublishDate,
		Categories:      domain.TermNames(b.Categories),
		Tags:            domain.TermNames(b.Tags),
		ContentMetadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to build embedding text: %w", err)
	}
	embeddingText := string(text)

	vec, err := r.embedder.Embed(ctx, embeddingText)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	embedding := pgvector.NewVector(vec)

	return r.store.UpdateByPostID(ctx, b.PostID, domain.BlogUpdate{
		ContentMetadata: metadata,
		EmbeddingText:   &embeddingText,
		Embedding:       &embedding,
	})
}

// CompactEmbeddingTexts rewrites every blog's embedding text down to just
// its content metadata and re-embeds. Used when the richer text shape
// turns out to dilute similarity search.
func (r *EmbeddingRefresher) CompactEmbeddingTexts(ctx context.Context) (*RefreshReport, error) {
	blogs, err := r.store.GetAll(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreQueryFailed, err)
	}

	report := &RefreshReport{Total: len(blogs)}
	for i := range blogs {
		b := &blogs[i]
		if err := r.compactBlog(ctx, b); err != nil {
			r.logger.Error("blog_compact_failed",
				slog.String("post_id", b.PostID),
				slog.String("error", err.Error()))
			report.Failed++
			report.Errors = append(report.Errors, RefreshError{
				PostID: b.PostID,
				Title:  b.Title,
				Error:  err.Error(),
			})
			continue
		}
		report.Processed++
	}
	return report, nil
}

func (r *EmbeddingRefresher) compactBlog(ctx context.Context, b *domain.Blog) error {
	var existing richEmbeddingText
	if err := json.Unmarshal([]byte(b.EmbeddingText), &existing); err != nil {
		return fmt.Errorf("failed to parse existing embedding text: %w", err)
	}

	embeddingText, err := BuildEmbeddingText(existing.ContentMetadata)
	if err != nil {
		return err
	}

	vec, err := r.embedder.Embed(ctx, embeddingText)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	embedding := pgvector.NewVector(vec)

	return r.store.UpdateByPostID(ctx, b.PostID, domain.BlogUpdate{
		EmbeddingText: &embeddingText,
		Embedding:     &embedding,
	})
}
