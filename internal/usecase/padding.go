package usecase

import (
	"fmt"
	"strconv"

	"blog-recommender/internal/domain"
)

// CatalogEntry pairs a blog with the string identity the LLM ranking
// stage matches on. Organic entries use the store-assigned numeric id;
// synthetic padding copies get ids of the form "dup-<n>".
type CatalogEntry struct {
	ID   string
	Blog domain.Blog
}

// NewCatalog projects stored blogs into catalog entries.
func NewCatalog(blogs []domain.Blog) []CatalogEntry {
	entries := make([]CatalogEntry, len(blogs))
	for i, b := range blogs {
		entries[i] = CatalogEntry{ID: strconv.FormatInt(b.ID, 10), Blog: b}
	}
	return entries
}

// CatalogPadder grows a candidate catalog to a target size. Keeping this
// behind a named policy keeps ranking-capacity test logic out of the
// ranking stage itself.
type CatalogPadder interface {
	Pad(entries []CatalogEntry, targetCount int) []CatalogEntry
}

// CyclicPadder pads by cyclically duplicating existing entries with
// synthesized unique ids until the catalog reaches targetCount. A catalog
// already at or above targetCount is returned unchanged: the stage never
// truncates.
type CyclicPadder struct{}

func (CyclicPadder) Pad(entries []CatalogEntry, targetCount int) []CatalogEntry {
	if len(entries) == 0 || len(entries) >= targetCount {
		return entries
	}

	padded := make([]CatalogEntry, len(entries), targetCount)
	copy(padded, entries)

	for len(padded) < targetCount {
		source := entries[len(padded)%len(entries)]
		source.ID = fmt.Sprintf("dup-%d", len(padded))
		padded = append(padded, source)
	}
	return padded
}
