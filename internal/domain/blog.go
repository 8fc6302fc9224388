package domain

import (
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingDim is the dimensionality of blog embeddings
// (text-embedding-3-small).
const EmbeddingDim = 1536

// Activity is a constrained content attribute describing what a blog post
// is about.
type Activity string

const (
	ActivityBeach      Activity = "Beach"
	ActivityWine       Activity = "Wine"
	ActivityOutdoors   Activity = "Outdoors"
	ActivityAdventure  Activity = "Adventure"
	ActivityLuxury     Activity = "Luxury"
	ActivityCuisine    Activity = "Cuisine"
	ActivityRelaxation Activity = "Relaxation"
	ActivityCulture    Activity = "Culture"
	ActivityWellness   Activity = "Wellness"
)

var validActivities = map[Activity]struct{}{
	ActivityBeach:      {},
	ActivityWine:       {},
	ActivityOutdoors:   {},
	ActivityAdventure:  {},
	ActivityLuxury:     {},
	ActivityCuisine:    {},
	ActivityRelaxation: {},
	ActivityCulture:    {},
	ActivityWellness:   {},
}

// GroupType describes the travel party a post targets.
type GroupType string

const (
	GroupSolo    GroupType = "Solo"
	GroupCouple  GroupType = "Couple"
	GroupFamily  GroupType = "Family"
	GroupFriends GroupType = "Friends"
)

var validGroups = map[GroupType]struct{}{
	GroupSolo:    {},
	GroupCouple:  {},
	GroupFamily:  {},
	GroupFriends: {},
}

// PriceRange is the coarse cost bucket of the activities a post describes.
type PriceRange string

const (
	PriceBudget   PriceRange = "$"
	PriceModerate PriceRange = "$$"
	PriceLuxury   PriceRange = "$$$"
)

var validPriceRanges = map[PriceRange]struct{}{
	PriceBudget:   {},
	PriceModerate: {},
	PriceLuxury:   {},
}

// ContentMetadata is the structured attribute set derived from a post's
// main content by the metadata extractor.
type ContentMetadata struct {
	Activities    []Activity `json:"activities"`
	ExertionLevel int        `json:"exertionLevel"`
	Group         GroupType  `json:"group"`
	PriceRange    PriceRange `json:"priceRange"`
}

// Validate rejects attribute values outside the closed sets. Values are
// never coerced: an unknown activity or an out-of-range exertion level is
// an error, not a warning.
func (m *ContentMetadata) Validate() error {
	for _, a := range m.Activities {
		if _, ok := validActivities[a]; !ok {
			return fmt.Errorf("unknown activity %q", a)
		}
	}
	if m.ExertionLevel < 1 || m.ExertionLevel > 5 {
		return fmt.Errorf("exertion level %d out of range [1,5]", m.ExertionLevel)
	}
	if _, ok := validGroups[m.Group]; !ok {
		return fmt.Errorf("unknown group %q", m.Group)
	}
	if _, ok := validPriceRanges[m.PriceRange]; !ok {
		return fmt.Errorf("unknown price range %q", m.PriceRange)
	}
	return nil
}

// TaxonomyTerm is a category or tag attached to a post at the source site.
type TaxonomyTerm struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	URL  string `json:"url"`
}

// Blog is the canonical content item. ID is assigned by the store;
// PostID is the identity the source site uses and may differ.
type Blog struct {
	ID          int64
	PostID      string
	Title       string
	Slug        string
	URL         string
	PublishDate time.Time
	Author      string
	Categories  []TaxonomyTerm
	Tags        []TaxonomyTerm

	// Content holds the original markup; MainContent is the extracted
	// plain text the enrichment pipeline works from.
	Content     string
	MainContent string
	Summary     string

	// Enrichment. Embedding is always derived from EmbeddingText; writing
	// a new embedding requires regenerating EmbeddingText first.
	ContentMetadata *ContentMetadata
	EmbeddingText   string
	Embedding       pgvector.Vector

	// IsDuplicate marks synthetic load-test copies. Never set on
	// organically scraped posts.
	IsDuplicate bool
}

// RankedBlog is a request-scoped projection of a Blog annotated with a
// relevance score. Vector and rerank stages populate Similarity; the LLM
// ranking stage populates Score. Never persisted.
type RankedBlog struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	Summary         string           `json:"summary"`
	URL             string           `json:"url"`
	ContentMetadata *ContentMetadata `json:"content_metadata"`
	EmbeddingText   string           `json:"embedding_text,omitempty"`
	Categories      []string         `json:"categories,omitempty"`
	Tags            []string         `json:"tags,omitempty"`

	Similarity float64 `json:"similarity,omitempty"`
	Score      float64 `json:"score,omitempty"`

	// AppliedModifier records the signed adjustment the rules
	// post-processor added to Similarity, for auditability.
	AppliedModifier *float64 `json:"appliedModifier,omitempty"`
}

// TermNames flattens taxonomy terms to their display names.
func TermNames(terms []TaxonomyTerm) []string {
	if len(terms) == 0 {
		return nil
	}
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name)
	}
	return names
}
