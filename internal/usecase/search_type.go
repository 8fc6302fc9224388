package usecase

import (
	"fmt"

	"blog-recommender/internal/domain"
)

// SearchType selects the ranking strategy for a recommendation request.
// The set is closed: dispatch is by exact match and unknown values fail
// before any store or generative call is made.
type SearchType string

const (
	SearchTypeVector   SearchType = "vector"
	SearchTypeLLM      SearchType = "llm"
	SearchTypeReranker SearchType = "reranker"
)

// ParseSearchType validates a raw strategy selector.
func ParseSearchType(raw string) (SearchType, error) {
	switch SearchType(raw) {
	case SearchTypeVector:
		return SearchTypeVector, nil
	case SearchTypeLLM:
		return SearchTypeLLM, nil
	case SearchTypeReranker:
		return SearchTypeReranker, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSearchType, raw)
	}
}
