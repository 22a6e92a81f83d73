// Package config loads raglab settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting. Variables are read as RAGLAB_<NAME>, falling
// back to the bare name, so OPENAI_API_KEY works as is.
type Config struct {
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`

	ChatModel           string  `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	Temperature         float64 `envconfig:"TEMPERATURE" default:"0"`
	MaxTokens           int     `envconfig:"MAX_TOKENS" default:"1000"`
	EmbeddingModel      string  `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int     `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	EmbeddingProvider   string  `envconfig:"EMBEDDING_PROVIDER" default:"openai"`

	SearchProvider string `envconfig:"SEARCH_PROVIDER" default:"duckduckgo"`
	BraveAPIKey    string `envconfig:"BRAVE_API_KEY"`
	TavilyAPIKey   string `envconfig:"TAVILY_API_KEY"`
	MaxPages       int    `envconfig:"MAX_PAGES" default:"3"`

	ChunkSize      int     `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap   int     `envconfig:"CHUNK_OVERLAP" default:"200"`
	TopK           int     `envconfig:"TOP_K" default:"5"`
	ScoreThreshold float64 `envconfig:"SCORE_THRESHOLD" default:"0"`

	VectorStore   string        `envconfig:"VECTOR_STORE" default:"memory"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisPrefix   string        `envconfig:"REDIS_PREFIX" default:"raglab:"`
	RedisTTL      time.Duration `envconfig:"REDIS_TTL" default:"0"`
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	PgTable       string        `envconfig:"PG_TABLE" default:"raglab_chunks"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:"raglab.db"`
	SQLTopK    int    `envconfig:"SQL_TOP_K" default:"100"`

	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("RAGLAB", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.VectorStore = strings.ToLower(cfg.VectorStore)
	cfg.SearchProvider = strings.ToLower(cfg.SearchProvider)
	cfg.EmbeddingProvider = strings.ToLower(cfg.EmbeddingProvider)

	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, errors.New("CHUNK_SIZE must be positive"))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, %d)", c.ChunkSize))
	}
	if c.TopK <= 0 {
		errs = append(errs, errors.New("TOP_K must be positive"))
	}
	if c.SQLTopK <= 0 {
		errs = append(errs, errors.New("SQL_TOP_K must be positive"))
	}
	if c.EmbeddingDimensions <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSIONS must be positive"))
	}

	switch c.VectorStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis vector store"))
		}
	case "postgres", "pgvector":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres vector store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_STORE %q", c.VectorStore))
	}

	switch c.SearchProvider {
	case "brave":
		if c.BraveAPIKey == "" {
			errs = append(errs, errors.New("BRAVE_API_KEY is required for brave search"))
		}
	case "tavily":
		if c.TavilyAPIKey == "" {
			errs = append(errs, errors.New("TAVILY_API_KEY is required for tavily search"))
		}
	}

	return errors.Join(errs...)
}

// HasOpenAI reports whether an API key is configured.
func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// SearchAPIKey returns the key for the configured search provider.
func (c *Config) SearchAPIKey() string {
	switch c.SearchProvider {
	case "brave":
		return c.BraveAPIKey
	case "tavily":
		return c.TavilyAPIKey
	}
	return ""
}
