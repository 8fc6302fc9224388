package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"blog-recommender/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type blogRepository struct {
	pool *pgxpool.Pool
}

// NewBlogRepository creates a pgx-backed BlogStore.
func NewBlogRepository(pool *pgxpool.Pool) domain.BlogStore {
	return &blogRepository{pool: pool}
}

const blogColumns = `id, post_id, title, slug, url, publish_date, author,
	categories, tags, content, main_content, summary,
	content_metadata, embedding_text, embedding, is_duplicate`

func scanBlog(row pgx.Row) (*domain.Blog, error) {
	var b domain.Blog
	var categories, tags, metadata []byte
	var embedding *pgvector.Vector
	err := row.Scan(
		&b.ID, &b.PostID, &b.Title, &b.Slug, &b.URL, &b.PublishDate, &b.Author,
		&categories, &tags, &b.Content, &b.MainContent, &b.Summary,
		&metadata, &b.EmbeddingText, &embedding, &b.IsDuplicate,
	)
	if err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &b.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &b.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &b.ContentMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode content metadata: %w", err)
		}
	}
	if embedding != nil {
		b.Embedding = *embedding
	}
	return &b, nil
}

func (r *blogRepository) GetByID(ctx context.Context, id int64) (*domain.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs WHERE id = $1`, blogColumns)
	blog, err := scanBlog(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog %d: %w", id, err)
	}
	return blog, nil
}

func (r *blogRepository) GetAll(ctx context.Context, limit int) ([]domain.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs ORDER BY id ASC`, blogColumns)
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blogs: %w", err)
	}
	defer rows.Close()

	var blogs []domain.Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return blogs, nil
}

// MatchBySimilarity runs a cosine nearest-neighbor query. Similarity is
// 1 - cosine distance; rows below the threshold never come back, even when
// count would allow them.
func (r *blogRepository) MatchBySimilarity(ctx context.Context, queryVec pgvector.Vector, threshold float64, count int) ([]domain.SimilarityMatch, error) {
	query := `
		SELECT id, post_id, title, summary, url,
		       content_metadata, embedding_text,
		       1 - (embedding <=> $1) AS similarity
		FROM blogs
		WHERE embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1 ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, queryVec, threshold, count)
	if err != nil {
		return nil, fmt.Errorf("failed to run similarity query: %w", err)
	}
	defer rows.Close()

	var matches []domain.SimilarityMatch
	for rows.Next() {
		var m domain.SimilarityMatch
		var metadata []byte
		if err := rows.Scan(
			&m.Blog.ID, &m.Blog.PostID, &m.Blog.Title, &m.Blog.Summary, &m.Blog.URL,
			&metadata, &m.Blog.EmbeddingText, &m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &m.Blog.ContentMetadata); err != nil {
				return nil, fmt.Errorf("failed to decode content metadata: %w", err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return matches, nil
}

func marshalBlogJSON(b *domain.Blog) (categories, tags, metadata []byte, err error) {
	categories, err = json.Marshal(b.Categories)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode categories: %w", err)
	}
	tags, err = json.Marshal(b.Tags)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	if b.ContentMetadata != nil {
		metadata, err = json.Marshal(b.ContentMetadata)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode content metadata: %w", err)
		}
	}
	return categories, tags, metadata, nil
}

func (r *blogRepository) Insert(ctx context.Context, blog *domain.Blog) error {
	categories, tags, metadata, err := marshalBlogJSON(blog)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO blogs (post_id, title, slug, url, publish_date, author,
			categories, tags, content, main_content, summary,
			content_metadata, embedding_text, embedding, is_duplicate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	err = r.pool.QueryRow(ctx, query,
		blog.PostID, blog.Title, blog.Slug, blog.URL, blog.PublishDate, blog.Author,
		categories, tags, blog.Content, blog.MainContent, blog.Summary,
		metadata, blog.EmbeddingText, blog.Embedding, blog.IsDuplicate,
	).Scan(&blog.ID)
	if err != nil {
		return fmt.Errorf("failed to insert blog %s: %w", blog.PostID, err)
	}
	return nil
}

func (r *blogRepository) InsertBatch(ctx context.Context, blogs []domain.Blog) error {
	if len(blogs) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(blogs))
	for i := range blogs {
		b := &blogs[i]
		categories, tags, metadata, err := marshalBlogJSON(b)
		if err != nil {
			return err
		}
		rows[i] = []interface{}{
			b.PostID, b.Title, b.Slug, b.URL, b.PublishDate, b.Author,
			categories, tags, b.Content, b.MainContent, b.Summary,
			metadata, b.EmbeddingText, b.Embedding, b.IsDuplicate,
		}
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"blogs"},
		[]string{"post_id", "title", "slug", "url", "publish_date", "author",
			"categories", "tags", "content", "main_content", "summary",
			"content_metadata", "embedding_text", "embedding", "is_duplicate"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert blogs: %w", err)
	}
	return nil
}

func (r *blogRepository) UpdateByPostID(ctx context.Context, postID string, update domain.BlogUpdate) error {
	set := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Summary != nil {
		add("summary", *update.Summary)
	}
	if update.ContentMetadata != nil {
		metadata, err := json.Marshal(update.ContentMetadata)
		if err != nil {
			return fmt.Errorf("failed to encode content metadata: %w", err)
		}
		add("content_metadata", metadata)
	}
	if update.EmbeddingText != nil {
		add("embedding_text", *update.EmbeddingText)
	}
	if update.Embedding != nil {
		add("embedding", *update.Embedding)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, postID)
	query := fmt.Sprintf(`UPDATE blogs SET %s WHERE post_id = $%d`,
		strings.Join(set, ", "), len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update blog %s: %w", postID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blog %s not found", postID)
	}
	return nil
}

func (r *blogRepository) Count(ctx context.Context, includeDuplicates bool) (int, error) {
	query := `SELECT COUNT(*) FROM blogs`
	if !includeDuplicates {
		query += ` WHERE is_duplicate = FALSE`
	}
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count blogs: %w", err)
	}
	return count, nil
}

func (r *blogRepository) DeleteDuplicates(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blogs WHERE is_duplicate = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicates: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
