package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int32
	MinConns int32
}

// DSN builds the pgx connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// ChatConfig holds the chat-completion endpoint settings. The base URL
// points at an OpenAI-compatible gateway (OpenRouter by default).
type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout int // seconds
}

// EmbeddingConfig holds the embedding endpoint settings.
type EmbeddingConfig struct {
	BaseURL   string // empty means the OpenAI default
	APIKey    string
	Model     string
	Timeout   int // seconds
	CacheSize int // LRU entries for repeated preference queries
}

// RerankConfig holds the cross-encoder rerank endpoint settings.
type RerankConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout int // seconds
}

// RankingConfig holds the recommendation pipeline knobs.
type RankingConfig struct {
	SimilarityThreshold float64
	DefaultTargetCount  int
	// MaxCatalog bounds the full-catalog fetch of the LLM ranking stage
	// so prompt size cannot grow without limit.
	MaxCatalog int
	// RuleModifierMaxTokens caps each per-candidate rule-modifier call.
	RuleModifierMaxTokens int
}

// ScraperConfig holds the source-site scraper settings.
type ScraperConfig struct {
	BaseURL        string
	DataDir        string
	RequestsPerSec float64
	Timeout        int // seconds
}

// Config is the top-level application configuration.
type Config struct {
	Env     string
	Server  ServerConfig
	DB      DBConfig
	Chat    ChatConfig
	Embed   EmbeddingConfig
	Rerank  RerankConfig
	Ranking RankingConfig
	Scraper ScraperConfig
}

func Load() *Config {
	return &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port: getEnv("PORT", "9020"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "blog-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "blog_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "blog_password"),
			Name:     getEnv("DB_NAME", "blog_db"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Chat: ChatConfig{
			BaseURL: getEnv("CHAT_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:  getSecret("OPENROUTER_API_KEY", "OPENROUTER_API_KEY_FILE", ""),
			Model:   getEnv("CHAT_MODEL", "google/gemini-2.0-flash-001"),
			Timeout: getEnvInt("CHAT_TIMEOUT", 120),
		},
		Embed: EmbeddingConfig{
			BaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
			APIKey:    getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Timeout:   getEnvInt("EMBEDDING_TIMEOUT", 30),
			CacheSize: getEnvInt("EMBEDDING_CACHE_SIZE", 256),
		},
		Rerank: RerankConfig{
			URL:     getEnv("RERANK_URL", "https://api.cohere.com"),
			APIKey:  getSecret("RERANK_API_KEY", "RERANK_API_KEY_FILE", ""),
			Model:   getEnv("RERANK_MODEL", "rerank-v3.5"),
			Timeout: getEnvInt("RERANK_TIMEOUT", 30),
		},
		Ranking: RankingConfig{
			SimilarityThreshold:   getEnvFloat64("RANKING_SIMILARITY_THRESHOLD", 0.1),
			DefaultTargetCount:    getEnvInt("RANKING_DEFAULT_TARGET_COUNT", 5),
			MaxCatalog:            getEnvInt("RANKING_MAX_CATALOG", 2000),
			RuleModifierMaxTokens: getEnvInt("RANKING_RULE_MAX_TOKENS", 10),
		},
		Scraper: ScraperConfig{
			BaseURL:        getEnv("SCRAPER_BASE_URL", "https://www.slocal.com"),
			DataDir:        getEnv("SCRAPER_DATA_DIR", defaultDataDir()),
			RequestsPerSec: getEnvFloat64("SCRAPER_REQUESTS_PER_SEC", 2),
			Timeout:        getEnvInt("SCRAPER_TIMEOUT", 30),
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "slocal-blog-data"
	}
	return home + "/slocal-blog-data"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
