package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"blog-recommender/internal/domain"

	"github.com/pgvector/pgvector-go"
)

// ProcessReport summarizes one ingestion run. Per-file failures are
// counted, never fatal to the batch.
type ProcessReport struct {
	Total     int            `json:"total"`
	Processed int            `json:"processed"`
	Failed    int            `json:"failed"`
	Errors    []ProcessError `json:"errors,omitempty"`
}

// ProcessError records a single failed file.
type ProcessError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// BlogProcessor enriches scraped posts with metadata and embeddings and
// stores them.
type BlogProcessor struct {
	store     domain.BlogStore
	extractor *MetadataExtractor
	embedder  domain.Embedder
	logger    *slog.Logger
}

func NewBlogProcessor(store domain.BlogStore, extractor *MetadataExtractor, embedder domain.Embedder, logger *slog.Logger) *BlogProcessor {
	return &BlogProcessor{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		logger:    logger,
	}
}

// ProcessDir ingests every *.json file in dir: extract metadata, build
// the embedding text, embed, insert. A metadata extraction failure is
// recoverable (the post is stored without metadata); anything else fails
// that file only.
func (p *BlogProcessor) ProcessDir(ctx context.Context, dir string) (*ProcessReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read blog data dir: %w", err)
	}

	report := &ProcessReport{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		report.Total++

		if err := p.processFile(ctx, filepath.Join(dir, entry.Name())); err != nil {
			p.logger.Error("blog_processing_failed",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()))
			report.Failed++
			report.Errors = append(report.Errors, ProcessError{
				File:  entry.Name(),
				Error: err.Error(),
			})
			continue
		}

		p.logger.Info("blog_processed", slog.String("file", entry.Name()))
		report.Processed++
	}
	return report, nil
}

func (p *BlogProcessor) processFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var post domain.ScrapedPost
	if err := json.Unmarshal(data, &post); err != nil {
		return fmt.Errorf("failed to decode post: %w", err)
	}

	metadata, err := p.extractor.Extract(ctx, post.MainContent)
	if err != nil {
		if !errors.Is(err, domain.ErrExtractionFailed) {
			return err
		}
		// Extraction is advisory: store the post without metadata.
		p.logger.Warn("metadata_unavailable",
			slog.String("post_id", post.PostID),
			slog.String("error", err.Error()))
		metadata = nil
	}

	embeddingText, err := BuildEmbeddingText(metadata)
	if err != nil {
		return err
	}

	vec, err := p.embedder.Embed(ctx, embeddingText)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}

	blog := &domain.Blog{
		PostID:          post.PostID,
		Title:           post.Title,
		Slug:            post.Slug,
		URL:             post.URL,
		PublishDate:     post.PublishDate,
		Author:          post.Author.Name,
		Categories:      post.Categories,
		Tags:            post.Tags,
		Content:         post.Content,
		MainContent:     post.MainContent,
		Summary:         post.Summary,
		ContentMetadata: metadata,
		EmbeddingText:   embeddingText,
		Embedding:       pgvector.NewVector(vec),
	}
	if err := p.store.Insert(ctx, blog); err != nil {
		return err
	}
	return nil
}

// BuildEmbeddingText renders the exact string that gets embedded. The
// embedding column is always derived from this text, never from raw
// content: regenerating an embedding starts here.
func BuildEmbeddingText(metadata *domain.ContentMetadata) (string, error) {
	data, err := json.Marshal(struct {
		ContentMetadata *domain.ContentMetadata `json:"contentMetadata"`
	}{ContentMetadata: metadata})
	if err != nil {
		return "", fmt.Errorf("failed to build embedding text: %w", err)
	}
	return string(data), nil
}
