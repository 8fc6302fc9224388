package domain

import (
	"context"

	"github.com/pgvector/pgvector-go"
)

// SimilarityMatch is a blog returned by an approximate-nearest-neighbor
// query, carrying its cosine similarity to the query vector.
type SimilarityMatch struct {
	Blog       Blog
	Similarity float64
}

// BlogUpdate holds the partially-updatable fields of a blog row. Nil
// pointers are left untouched.
type BlogUpdate struct {
	Summary         *string
	ContentMetadata *ContentMetadata
	EmbeddingText   *string
	Embedding       *pgvector.Vector
}

// BlogStore defines typed access to stored blogs.
type BlogStore interface {
	// GetByID retrieves a blog by its store-assigned ID.
	// Returns nil, nil if not found.
	GetByID(ctx context.Context, id int64) (*Blog, error)

	// GetAll retrieves up to limit blogs in insertion order. limit <= 0
	// means no bound.
	GetAll(ctx context.Context, limit int) ([]Blog, error)

	// MatchBySimilarity returns the blogs nearest to the query vector by
	// cosine similarity, filtered to similarity >= threshold, capped at
	// count, in descending similarity order.
	MatchBySimilarity(ctx context.Context, query pgvector.Vector, threshold float64, count int) ([]SimilarityMatch, error)

	// Insert stores a new blog.
	Insert(ctx context.Context, blog *Blog) error

	// InsertBatch stores multiple blogs in one round trip.
	InsertBatch(ctx context.Context, blogs []Blog) error

	// UpdateByPostID applies a partial update to the row with the given
	// source-site post ID.
	UpdateByPostID(ctx context.Context, postID string, update BlogUpdate) error

	// Count reports the number of stored blogs. When includeDuplicates is
	// false, synthetic load-test copies are excluded so the count stays
	// authoritative.
	Count(ctx context.Context, includeDuplicates bool) (int, error)

	// DeleteDuplicates removes every synthetic copy without touching
	// originals. Returns the number of rows deleted.
	DeleteDuplicates(ctx context.Context) (int, error)
}
