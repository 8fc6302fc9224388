package domain

import "context"

// CompletionOptions tune a single chat-completion call.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// TokenUsage reports token consumption of one generative call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResult carries the model's text output plus usage metadata.
type CompletionResult struct {
	Text  string
	Usage TokenUsage
}

// ChatClient defines the chat-completion capability.
type ChatClient interface {
	Complete(ctx context.Context, model, prompt string, opts CompletionOptions) (*CompletionResult, error)
}

// Embedder defines the embedding capability with a fixed model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// RerankResult is a single cross-encoder score referencing a position in
// the submitted document list.
type RerankResult struct {
	Index          int
	RelevanceScore float64
}

// Reranker defines cross-encoder reranking. Results come back sorted by
// relevance score descending. Each call carries latency and cost, so
// callers gate it behind an explicit flag.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
	ModelName() string
}
