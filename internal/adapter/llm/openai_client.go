package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"blog-recommender/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
	openai "github.com/sashabaranov/go-openai"
)

// ChatClient implements domain.ChatClient against an OpenAI-compatible
// chat-completion endpoint (OpenRouter in production).
type ChatClient struct {
	client *openai.Client
	logger *slog.Logger
}

// ChatClientConfig configures the chat endpoint.
type ChatClientConfig struct {
	APIKey  string
	BaseURL string // optional, defaults to api.openai.com
	Timeout time.Duration
	HTTP    *http.Client // optional, overrides Timeout when set
}

func NewChatClient(cfg ChatClientConfig, logger *slog.Logger) *ChatClient {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTP != nil {
		cc.HTTPClient = cfg.HTTP
	} else if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &ChatClient{
		client: openai.NewClientWithConfig(cc),
		logger: logger,
	}
}

// Complete sends one user prompt and returns the model's text plus token
// usage.
func (c *ChatClient) Complete(ctx context.Context, model, prompt string, opts domain.CompletionOptions) (*domain.CompletionResult, error) {
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Warn("chat_completion_failed",
			slog.String("model", model),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug("chat_completion_done",
		slog.String("model", model),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &domain.CompletionResult{
		Text: resp.Choices[0].Message.Content,
		Usage: domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

var _ domain.ChatClient = (*ChatClient)(nil)

// EmbeddingClient implements domain.Embedder against an OpenAI-compatible
// embeddings endpoint, with a small LRU in front so repeated preference
// queries do not re-embed.
type EmbeddingClient struct {
	client *openai.Client
	model  string
	cache  *lru.Cache[string, []float32]
	logger *slog.Logger
}

// EmbeddingClientConfig configures the embedding endpoint.
type EmbeddingClientConfig struct {
	APIKey    string
	BaseURL   string // optional
	Model     string
	Timeout   time.Duration
	CacheSize int
	HTTP      *http.Client // optional
}

func NewEmbeddingClient(cfg EmbeddingClientConfig, logger *slog.Logger) (*EmbeddingClient, error) {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTP != nil {
		cc.HTTPClient = cfg.HTTP
	} else if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return &EmbeddingClient{
		client: openai.NewClientWithConfig(cc),
		model:  cfg.Model,
		cache:  cache,
		logger: logger,
	}, nil
}

func (e *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		return vec, nil
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		e.logger.Warn("embedding_failed",
			slog.String("model", e.model),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}

	vec := resp.Data[0].Embedding
	// The vector column is fixed-width; a wrong-sized vector would only
	// surface later as an insert failure.
	if len(vec) != domain.EmbeddingDim {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(vec), domain.EmbeddingDim)
	}
	e.cache.Add(text, vec)

	e.logger.Debug("embedding_done",
		slog.String("model", e.model),
		slog.Int("dims", len(vec)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return vec, nil
}

func (e *EmbeddingClient) Model() string {
	return e.model
}

var _ domain.Embedder = (*EmbeddingClient)(nil)
