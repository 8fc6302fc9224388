package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"blog-recommender/internal/domain"
)

// SummaryGenerator produces short post summaries during ingestion.
type SummaryGenerator struct {
	chat   domain.ChatClient
	model  string
	logger *slog.Logger
}

func NewSummaryGenerator(chat domain.ChatClient, model string, logger *slog.Logger) *SummaryGenerator {
	return &SummaryGenerator{
		chat:   chat,
		model:  model,
		logger: logger,
	}
}

// Generate returns a 2-3 sentence summary of content. Callers fall back
// to an excerpt of the post when generation fails.
func (g *SummaryGenerator) Generate(ctx context.Context, content string) (string, error) {
	prompt := fmt.Sprintf(`You are a helpful assistant that creates concise, engaging summaries of blog posts. Keep the summary under 2-3 sentences and focus on the main points.

Please summarize this blog post content:

%s`, content)

	result, err := g.chat.Complete(ctx, g.model, prompt, domain.CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   150,
	})
	if err != nil {
		g.logger.Warn("summary_generation_failed", slog.String("error", err.Error()))
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}
