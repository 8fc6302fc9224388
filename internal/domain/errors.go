package domain

import "errors"

// Stage failure taxonomy. Stage-level failures bubble unchanged to the
// orchestrator and from there to the transport boundary; no stage retries.
var (
	// ErrInvalidSearchType is returned for an unrecognized strategy
	// selector. No fallback stage is chosen.
	ErrInvalidSearchType = errors.New("invalid search type")

	// ErrEmbeddingFailed means the embedding call failed. Fatal to the
	// invoking stage.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrStoreQueryFailed means a content store query failed. Fatal to
	// the invoking stage.
	ErrStoreQueryFailed = errors.New("store query failed")

	// ErrRankingParse means the LLM ranking response could not be decoded
	// after both the strict and the extracted-substring attempts.
	ErrRankingParse = errors.New("ranking response parse failed")

	// ErrExtractionFailed means metadata generation failed. Callers treat
	// this as "no metadata available" and continue with a nil value.
	ErrExtractionFailed = errors.New("metadata extraction failed")
)
