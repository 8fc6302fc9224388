package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"blog-recommender/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// SummaryGenerator is the LLM summary capability the scraper uses for
// per-post summaries. Failures fall back to the first paragraph.
type SummaryGenerator interface {
	Generate(ctx context.Context, content string) (string, error)
}

// Report summarizes one scrape run.
type Report struct {
	CategoryURLs    []string `json:"categoryUrls"`
	BlogURLs        []string `json:"blogUrls"`
	TotalBlogs      int      `json:"totalBlogs"`
	ScrapedPosts    int      `json:"scrapedPosts"`
	OutputDirectory string   `json:"outputDirectory"`
}

// Scraper walks the source site's blog categories and writes each post as
// a JSON file to the data directory.
type Scraper struct {
	baseURL   string
	dataDir   string
	client    *http.Client
	limiter   *rate.Limiter
	summaries SummaryGenerator
	logger    *slog.Logger
}

// Config configures the scraper.
type Config struct {
	BaseURL        string
	DataDir        string
	RequestsPerSec float64
	HTTP           *http.Client
}

func New(cfg Config, summaries SummaryGenerator, logger *slog.Logger) *Scraper {
	client := cfg.HTTP
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	return &Scraper{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		dataDir:   cfg.DataDir,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		summaries: summaries,
		logger:    logger,
	}
}

// ScrapeAll discovers blog categories from the index page, walks each
// category's pagination collecting post URLs, then scrapes and saves every
// post. limit > 0 stops URL collection and post scraping at that many
// posts.
func (s *Scraper) ScrapeAll(ctx context.Context, limit int) (*Report, error) {
	doc, err := s.fetch(ctx, s.baseURL+"/blog/")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blog index: %w", err)
	}

	categoryURLs := collectCategoryURLs(doc)
	s.logger.Info("categories_discovered", slog.Int("count", len(categoryURLs)))

	blogURLs := make([]string, 0)
	seen := make(map[string]bool)
collect:
	for _, categoryURL := range categoryURLs {
		s.logger.Info("scraping_category", slog.String("url", categoryURL))

		for page := 1; ; page++ {
			urls, hasNext, err := s.scrapeCategoryPage(ctx, categoryURL, page)
			if err != nil {
				return nil, fmt.Errorf("failed to scrape category page: %w", err)
			}
			for _, u := range urls {
				if seen[u] {
					continue
				}
				seen[u] = true
				blogURLs = append(blogURLs, u)
				if limit > 0 && len(blogURLs) >= limit {
					break collect
				}
			}
			if !hasNext {
				break
			}
		}
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	scraped := make([]domain.ScrapedPost, 0, len(blogURLs))
	for _, blogURL := range blogURLs {
		post, err := s.ScrapePost(ctx, blogURL)
		if err != nil {
			// A broken post page should not abort the run.
			s.logger.Error("post_scrape_failed",
				slog.String("url", blogURL),
				slog.String("error", err.Error()))
			continue
		}

		if err := s.savePost(post); err != nil {
			return nil, err
		}
		scraped = append(scraped, *post)

		if limit > 0 && len(scraped) >= limit {
			break
		}
	}

	if err := s.saveAll(scraped); err != nil {
		return nil, err
	}

	return &Report{
		CategoryURLs:    categoryURLs,
		BlogURLs:        blogURLs,
		TotalBlogs:      len(blogURLs),
		ScrapedPosts:    len(scraped),
		OutputDirectory: s.dataDir,
	}, nil
}

func collectCategoryURLs(doc *goquery.Document) []string {
	urls := make([]string, 0)
	seen := make(map[string]bool)
	doc.Find(".custom-navbar .primary-list a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || !strings.Contains(href, "/blog/all-posts/category/") {
			return
		}
		if !seen[href] {
			seen[href] = true
			urls = append(urls, href)
		}
	})
	return urls
}

func (s *Scraper) scrapeCategoryPage(ctx context.Context, categoryURL string, page int) ([]string, bool, error) {
	pageURL := categoryURL
	if page > 1 {
		pageURL = fmt.Sprintf("%s?&page=%d", categoryURL, page)
	}

	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, false, err
	}

	urls := make([]string, 0)
	seen := make(map[string]bool)
	doc.Find(".blog-post a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		full := href
		if !strings.HasPrefix(href, "http") {
			full = s.baseURL + href
		}
		if strings.Contains(full, "/blog/post/") && !seen[full] {
			seen[full] = true
			urls = append(urls, full)
		}
	})

	hasNext := doc.Find(".paging-button .next-link").Length() > 0
	return urls, hasNext, nil
}

var postIDPattern = regexp.MustCompile(`/([^/]+)/$`)

func extractIDFromURL(url string) string {
	matches := postIDPattern.FindStringSubmatch(url)
	if matches == nil {
		return ""
	}
	return matches[1]
}

// ScrapePost extracts one blog post from its page.
func (s *Scraper) ScrapePost(ctx context.Context, url string) (*domain.ScrapedPost, error) {
	doc, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	postID := extractIDFromURL(url)

	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	slug := parts[len(parts)-1]

	post := &domain.ScrapedPost{
		PostID: postID,
		Title:  strings.TrimSpace(doc.Find("h1.title").Text()),
		Slug:   slug,
		URL:    fmt.Sprintf("%s/blog/post/%s/", s.baseURL, slug),
		FeaturedImage: domain.ScrapedImage{
			URL: doc.Find(".simple-image img").AttrOr("src", ""),
			Alt: doc.Find(".simple-image img").AttrOr("alt", ""),
		},
		Author: domain.ScrapedAuthor{
			Name:       strings.TrimSpace(doc.Find(".author-by-line a").Text()),
			ProfileURL: doc.Find(".author-by-line a").AttrOr("href", ""),
		},
	}

	if datetime, ok := doc.Find("time[datetime]").Attr("datetime"); ok {
		if parsed, err := time.Parse(time.RFC3339, datetime); err == nil {
			post.PublishDate = parsed
		}
	}

	doc.Find(".post-categories a").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		post.Categories = append(post.Categories, domain.TaxonomyTerm{
			Name: strings.TrimSpace(sel.Text()),
			ID:   extractIDFromURL(href),
			URL:  href,
		})
	})
	doc.Find(".post-tags a").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		post.Tags = append(post.Tags, domain.TaxonomyTerm{
			Name: strings.TrimSpace(sel.Text()),
			ID:   extractIDFromURL(href),
			URL:  href,
		})
	})

	if html, err := doc.Find(".post-content").Html(); err == nil {
		post.Content = html
	}
	post.MainContent = extractMainContent(doc)

	summary, err := s.summaries.Generate(ctx, post.MainContent)
	if err != nil || summary == "" {
		// Fall back to the first paragraph.
		summary = strings.TrimSpace(doc.Find(".post-content p").First().Text())
	}
	post.Summary = summary

	return post, nil
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func cleanText(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

var blankLinesPattern = regexp.MustCompile(`\n{3,}`)

// extractMainContent flattens the post body to plain text, keeping
// heading and list structure readable.
func extractMainContent(doc *goquery.Document) string {
	content := doc.Find(".post-content").Clone()
	content.Find("script, style, iframe, .advertisement, .social-share").Remove()

	var b strings.Builder
	content.Find("h3, h5, p, li").Each(func(_ int, sel *goquery.Selection) {
		text := cleanText(sel.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(sel) {
		case "h3", "h5":
			fmt.Fprintf(&b, "\n\n%s\n\n", text)
		case "p":
			fmt.Fprintf(&b, "%s\n\n", text)
		case "li":
			if sel.Parent().Is("ul, ol") {
				fmt.Fprintf(&b, "- %s\n", text)
			} else {
				fmt.Fprintf(&b, "%s\n\n", text)
			}
		}
	})

	return strings.TrimSpace(blankLinesPattern.ReplaceAllString(b.String(), "\n\n"))
}

func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return doc, nil
}

func (s *Scraper) savePost(post *domain.ScrapedPost) error {
	data, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode post %s: %w", post.Slug, err)
	}
	path := filepath.Join(s.dataDir, post.Slug+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *Scraper) saveAll(posts []domain.ScrapedPost) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}
	path := filepath.Join(s.dataDir, "all-posts.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
