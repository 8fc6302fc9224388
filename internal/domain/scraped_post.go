package domain

import "time"

// ScrapedImage is the featured image of a scraped post.
type ScrapedImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// ScrapedAuthor is the author by-line of a scraped post.
type ScrapedAuthor struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl"`
}

// ScrapedPost is the on-disk JSON shape the scraper produces and the
// ingestion processor consumes. This is the input contract of the
// enrichment pipeline.
type ScrapedPost struct {
	PostID        string         `json:"postId"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	URL           string         `json:"url"`
	PublishDate   time.Time      `json:"publishDate"`
	FeaturedImage ScrapedImage   `json:"featuredImage"`
	Author        ScrapedAuthor  `json:"author"`
	Content       string         `json:"content"`
	MainContent   string         `json:"mainContent"`
	Summary       string         `json:"summary"`
	Categories    []TaxonomyTerm `json:"categories"`
	Tags          []TaxonomyTerm `json:"tags"`
}
