package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"blog-recommender/internal/domain"
)

// duplicateBatchSize keeps individual insert round trips bounded.
const duplicateBatchSize = 100

// DuplicateReport summarizes one duplication run.
type DuplicateReport struct {
	OriginalCount   int `json:"originalCount"`
	DuplicatedCount int `json:"duplicatedCount"`
	FinalCount      int `json:"finalCount"`
}

// BlogDuplicator grows the catalog with synthetic copies for
// ranking-capacity testing. Copies are always flagged IsDuplicate so
// authoritative counts and batch purges never touch originals.
type BlogDuplicator struct {
	store  domain.BlogStore
	logger *slog.Logger
}

func NewBlogDuplicator(store domain.BlogStore, logger *slog.Logger) *BlogDuplicator {
	return &BlogDuplicator{store: store, logger: logger}
}

// DuplicateTo cyclically copies existing blogs until the total row count
// reaches target. Already at or above target is a no-op.
func (d *BlogDuplicator) DuplicateTo(ctx context.Context, target int) (*DuplicateReport, error) {
	current, err := d.store.Count(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreQueryFailed, err)
	}
	if current >= target {
		d.logger.Info("duplication_skipped",
			slog.Int("current", current),
			slog.Int("target", target))
		return &DuplicateReport{OriginalCount: current, FinalCount: current}, nil
	}

	originals, err := d.store.GetAll(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreQueryFailed, err)
	}
	if len(originals) == 0 {
		return nil, fmt.Errorf("%w: nothing to duplicate", domain.ErrStoreQueryFailed)
	}

	needed := target - current
	batch := make([]domain.Blog, 0, duplicateBatchSize)
	duplicated := 0

	for duplicated < needed {
		copyOf := originals[duplicated%len(originals)]
		copyOf.ID = 0
		copyOf.IsDuplicate = true
		copyOf.Title = "[DUPLICATE] " + copyOf.Title

		batch = append(batch, copyOf)
		duplicated++

		if len(batch) == duplicateBatchSize || duplicated == needed {
			if err := d.store.InsertBatch(ctx, batch); err != nil {
				return nil, err
			}
			d.logger.Info("duplicate_batch_inserted", slog.Int("count", len(batch)))
			batch = batch[:0]
		}
	}

	final, err := d.store.Count(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreQueryFailed, err)
	}

	return &DuplicateReport{
		OriginalCount:   current,
		DuplicatedCount: duplicated,
		FinalCount:      final,
	}, nil
}

// PurgeDuplicates deletes every synthetic copy in one batch. Originals
// are never touched.
func (d *BlogDuplicator) PurgeDuplicates(ctx context.Context) (int, error) {
	deleted, err := d.store.DeleteDuplicates(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreQueryFailed, err)
	}
	d.logger.Info("duplicates_purged", slog.Int("deleted", deleted))
	return deleted, nil
}
