package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"blog-recommender/internal/adapter/blog_http"
	"blog-recommender/internal/adapter/llm"
	"blog-recommender/internal/adapter/repository"
	"blog-recommender/internal/infra"
	"blog-recommender/internal/infra/config"
	"blog-recommender/internal/infra/httpclient"
	"blog-recommender/internal/infra/logger"
	"blog-recommender/internal/scraper"
	"blog-recommender/internal/usecase"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New()
	slog.SetDefault(log)

	// 3. Initialize DB
	dbPool, err := infra.NewPostgresDB(context.Background(), cfg.DB.DSN(), infra.PoolConfig{
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Initialize Adapters
	blogStore := repository.NewBlogRepository(dbPool)

	chatClient := llm.NewChatClient(llm.ChatClientConfig{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		HTTP:    httpclient.NewPooledClient(time.Duration(cfg.Chat.Timeout) * time.Second),
	}, log)

	embeddingClient, err := llm.NewEmbeddingClient(llm.EmbeddingClientConfig{
		APIKey:    cfg.Embed.APIKey,
		BaseURL:   cfg.Embed.BaseURL,
		Model:     cfg.Embed.Model,
		CacheSize: cfg.Embed.CacheSize,
		HTTP:      httpclient.NewPooledClient(time.Duration(cfg.Embed.Timeout) * time.Second),
	}, log)
	if err != nil {
		log.Error("failed to initialize embedding client", "error", err)
		os.Exit(1)
	}

	rerankerClient := llm.NewRerankerClient(
		cfg.Rerank.URL,
		cfg.Rerank.Model,
		cfg.Rerank.APIKey,
		time.Duration(cfg.Rerank.Timeout)*time.Second,
		log,
	)

	// 5. Initialize Usecases
	extractor := usecase.NewMetadataExtractor(chatClient, cfg.Chat.Model, log)
	summaries := usecase.NewSummaryGenerator(chatClient, cfg.Chat.Model, log)

	vectorRanking := usecase.NewVectorRanking(blogStore, embeddingClient, cfg.Ranking.SimilarityThreshold, log)
	llmRanking := usecase.NewLLMRanking(blogStore, chatClient, usecase.CyclicPadder{}, cfg.Ranking.MaxCatalog, log)
	rules := usecase.NewRulesPostProcessor(chatClient, cfg.Chat.Model, cfg.Ranking.RuleModifierMaxTokens, log)
	rerankStage := usecase.NewRerankStage(vectorRanking, rerankerClient, rules, log)
	recommender := usecase.NewRecommender(vectorRanking, llmRanking, rerankStage, cfg.Ranking.DefaultTargetCount, log)

	processor := usecase.NewBlogProcessor(blogStore, extractor, embeddingClient, log)
	refresher := usecase.NewEmbeddingRefresher(blogStore, extractor, embeddingClient, log)

	blogScraper := scraper.New(scraper.Config{
		BaseURL:        cfg.Scraper.BaseURL,
		DataDir:        cfg.Scraper.DataDir,
		RequestsPerSec: cfg.Scraper.RequestsPerSec,
		HTTP:           httpclient.NewPooledClient(time.Duration(cfg.Scraper.Timeout) * time.Second),
	}, summaries, log)

	// 6. Initialize Echo
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// 7. Register Handlers
	handler := blog_http.NewHandler(recommender, processor, refresher, blogScraper, cfg.Scraper.DataDir)
	handler.RegisterRoutes(e)

	// 8. Readiness Check
	e.GET("/readyz", func(c echo.Context) error {
		if err := dbPool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db down", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	// 9. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Info("Starting server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
