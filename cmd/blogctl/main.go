package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"blog-recommender/internal/adapter/llm"
	"blog-recommender/internal/adapter/repository"
	"blog-recommender/internal/infra"
	"blog-recommender/internal/infra/config"
	"blog-recommender/internal/infra/httpclient"
	"blog-recommender/internal/scraper"
	"blog-recommender/internal/usecase"
)

var (
	version = "dev"

	// Global flags
	verbose bool

	// Command flags
	scrapeLimit     int
	duplicateTarget int
	compact         bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "blogctl",
	Short:   "Manage the blog recommendation catalog",
	Version: version,
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape blog posts from the source site into the data directory",
	Long: `Scrape blog posts from the source site into the data directory.

Each post is written as a JSON file named after its slug, plus an
all-posts.json with the full run.

Examples:
  # Scrape up to 50 posts
  blogctl scrape --limit 50

  # Scrape everything
  blogctl scrape`,
	RunE: runScrape,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Ingest scraped JSON files: extract metadata, embed, store",
	RunE:  runProcess,
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate",
	Short: "Pad the catalog with marked duplicate rows up to a target count",
	RunE:  runDuplicate,
}

var purgeCmd = &cobra.Command{
	Use:   "purge-duplicates",
	Short: "Delete all duplicate rows from the catalog",
	RunE:  runPurge,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Regenerate metadata and embeddings for every stored blog",
	Long: `Regenerate metadata and embeddings for every stored blog.

With --compact, skip metadata regeneration and instead rewrite each
embedding text to its compact metadata-only form before re-embedding.`,
	RunE: runRefresh,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "maximum posts to scrape (0 = no limit)")
	duplicateCmd.Flags().IntVar(&duplicateTarget, "target", 0, "target total row count")
	_ = duplicateCmd.MarkFlagRequired("target")
	refreshCmd.Flags().BoolVar(&compact, "compact", false, "compact embedding texts instead of regenerating metadata")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(duplicateCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(refreshCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func connectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return infra.NewPostgresDB(ctx, cfg.DB.DSN(), infra.PoolConfig{
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
}

func newChatClient(cfg *config.Config, logger *slog.Logger) *llm.ChatClient {
	return llm.NewChatClient(llm.ChatClientConfig{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		HTTP:    httpclient.NewPooledClient(time.Duration(cfg.Chat.Timeout) * time.Second),
	}, logger)
}

func newEmbeddingClient(cfg *config.Config, logger *slog.Logger) (*llm.EmbeddingClient, error) {
	return llm.NewEmbeddingClient(llm.EmbeddingClientConfig{
		APIKey:    cfg.Embed.APIKey,
		BaseURL:   cfg.Embed.BaseURL,
		Model:     cfg.Embed.Model,
		CacheSize: cfg.Embed.CacheSize,
		HTTP:      httpclient.NewPooledClient(time.Duration(cfg.Embed.Timeout) * time.Second),
	}, logger)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", v)
		return
	}
	fmt.Println(string(data))
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg := config.Load()

	summaries := usecase.NewSummaryGenerator(newChatClient(cfg, logger), cfg.Chat.Model, logger)
	s := scraper.New(scraper.Config{
		BaseURL:        cfg.Scraper.BaseURL,
		DataDir:        cfg.Scraper.DataDir,
		RequestsPerSec: cfg.Scraper.RequestsPerSec,
		HTTP:           httpclient.NewPooledClient(time.Duration(cfg.Scraper.Timeout) * time.Second),
	}, summaries, logger)

	report, err := s.ScrapeAll(cmd.Context(), scrapeLimit)
	if err != nil {
		return err
	}
	printJSON(report)
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg := config.Load()

	pool, err := connectDB(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	embedder, err := newEmbeddingClient(cfg, logger)
	if err != nil {
		return err
	}
	chat := newChatClient(cfg, logger)
	extractor := usecase.NewMetadataExtractor(chat, cfg.Chat.Model, logger)
	processor := usecase.NewBlogProcessor(repository.NewBlogRepository(pool), extractor, embedder, logger)

	report, err := processor.ProcessDir(cmd.Context(), cfg.Scraper.DataDir)
	if err != nil {
		return err
	}
	printJSON(report)
	return nil
}

func runDuplicate(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg := config.Load()

	if duplicateTarget <= 0 {
		return fmt.Errorf("--target must be positive")
	}

	pool, err := connectDB(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	duplicator := usecase.NewBlogDuplicator(repository.NewBlogRepository(pool), logger)
	report, err := duplicator.DuplicateTo(cmd.Context(), duplicateTarget)
	if err != nil {
		return err
	}
	printJSON(report)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg := config.Load()

	pool, err := connectDB(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	duplicator := usecase.NewBlogDuplicator(repository.NewBlogRepository(pool), logger)
	deleted, err := duplicator.PurgeDuplicates(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d duplicate rows\n", deleted)
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg := config.Load()

	pool, err := connectDB(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	embedder, err := newEmbeddingClient(cfg, logger)
	if err != nil {
		return err
	}
	chat := newChatClient(cfg, logger)
	extractor := usecase.NewMetadataExtractor(chat, cfg.Chat.Model, logger)
	refresher := usecase.NewEmbeddingRefresher(repository.NewBlogRepository(pool), extractor, embedder, logger)

	var report *usecase.RefreshReport
	if compact {
		report, err = refresher.CompactEmbeddingTexts(cmd.Context())
	} else {
		report, err = refresher.RefreshAll(cmd.Context())
	}
	if err != nil {
		return err
	}
	printJSON(report)
	return nil
}
