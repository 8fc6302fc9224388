package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"blog-recommender/internal/domain"

	"golang.org/x/sync/errgroup"
)

// RulesPostProcessor applies natural-language scoring rules to candidates.
// Rule application is advisory: any per-candidate failure leaves that
// candidate unmodified and never affects the others.
type RulesPostProcessor struct {
	chat      domain.ChatClient
	model     string
	maxTokens int
	logger    *slog.Logger
}

func NewRulesPostProcessor(chat domain.ChatClient, model string, maxTokens int, logger *slog.Logger) *RulesPostProcessor {
	if maxTokens <= 0 {
		maxTokens = 10
	}
	return &RulesPostProcessor{
		chat:      chat,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Apply scores every candidate concurrently and returns the adjusted set
// in input order. With empty rules or no candidates it returns the input
// unchanged. The join waits for every call to settle; stragglers are not
// cancelled by their siblings.
func (p *RulesPostProcessor) Apply(ctx context.Context, candidates []domain.RankedBlog, rules string) []domain.RankedBlog {
	if rules == "" || len(candidates) == 0 {
		return candidates
	}

	adjusted := make([]domain.RankedBlog, len(candidates))
	copy(adjusted, candidates)

	g, gctx := errgroup.WithContext(ctx)
	for i := range adjusted {
		g.Go(func() error {
			modifier, err := p.scoreCandidate(gctx, &adjusted[i], rules)
			if err != nil {
				// Advisory path: keep the candidate as-is.
				p.logger.Warn("rule_modifier_failed",
					slog.Int64("blog_id", adjusted[i].ID),
					slog.String("error", err.Error()))
				return nil
			}
			adjusted[i].Similarity += modifier
			adjusted[i].AppliedModifier = &modifier
			return nil
		})
	}
	// Goroutines always return nil; Wait is a pure join.
	_ = g.Wait()

	p.logger.Info("rules_applied",
		slog.Int("candidate_count", len(adjusted)),
		slog.String("rules", truncate(rules, 120)))

	return adjusted
}

func (p *RulesPostProcessor) scoreCandidate(ctx context.Context, candidate *domain.RankedBlog, rules string) (float64, error) {
	prompt, err := buildModifierPrompt(candidate, rules)
	if err != nil {
		return 0, err
	}

	result, err := p.chat.Complete(ctx, p.model, prompt, domain.CompletionOptions{
		Temperature: 0.1,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return 0, err
	}

	modifier, err := strconv.ParseFloat(strings.TrimSpace(result.Text), 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric modifier %q", strings.TrimSpace(result.Text))
	}
	return modifier, nil
}

func buildModifierPrompt(candidate *domain.RankedBlog, rules string) (string, error) {
	candidateJSON, err := json.Marshal(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to serialize candidate: %w", err)
	}
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("failed to serialize rules: %w", err)
	}

	return fmt.Sprintf(`Given the following blog content and a set of rules, determine a modifier value to apply to the blog's similarity score.
Return ONLY a number (positive or negative) with no other text or explanation.

BLOG CONTENT: %s

RULES: %s

MODIFIER VALUE:

Example:

If the blog is about surfing, and the rules are to increase all blogs about surfing by 0.08 points, then the modifier value should be 0.08.
If the blog is about surfing, and the rules are to decrease all blogs about surfing by 0.08 points, then the modifier value should be -0.08.`,
		candidateJSON, rulesJSON), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
