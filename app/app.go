// Package app builds ready-to-run pipelines from a config.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kataras/golog"
	"github.com/smallnest/raglab/config"
	"github.com/smallnest/raglab/llm"
	"github.com/smallnest/raglab/log"
	"github.com/smallnest/raglab/rag"
	"github.com/smallnest/raglab/rag/loader"
	"github.com/smallnest/raglab/rag/retriever"
	"github.com/smallnest/raglab/rag/splitter"
	"github.com/smallnest/raglab/rag/store"
	"github.com/smallnest/raglab/sqlrag"
	"github.com/smallnest/raglab/tool"
	"github.com/tmc/langchaingo/llms"
)

// Options overrides components that would otherwise be built from the
// config. Nil fields are built.
type Options struct {
	LLM      llms.Model
	Embedder rag.Embedder
	Search   tool.SearchProvider
	Fetcher  loader.PageFetcher
	Logger   log.Logger
}

// NewLogger returns a golog backed logger at the named level.
func NewLogger(level string) (log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.NewGologLogger(golog.New())
	logger.SetLevel(lvl)
	return logger, nil
}

// NewChatModel builds the chat model described by cfg.
func NewChatModel(cfg *config.Config) (llms.Model, error) {
	return llm.NewChatModel(llm.ChatConfig{
		BaseURL:    cfg.OpenAIBaseURL,
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.ChatModel,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
	})
}

// NewEmbedder builds the embedder described by cfg.
func NewEmbedder(cfg *config.Config) (rag.Embedder, error) {
	return llm.NewEmbedder(cfg.EmbeddingProvider, llm.EmbedderConfig{
		BaseURL:    cfg.OpenAIBaseURL,
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
	})
}

// NewVectorStore opens the store named by cfg.VectorStore. The returned
// function releases it.
func NewVectorStore(ctx context.Context, cfg *config.Config, embedder rag.Embedder) (rag.VectorStore, func() error, error) {
	switch cfg.VectorStore {
	case "", "memory":
		s := store.NewInMemoryVectorStore(embedder)
		return s, s.Close, nil

	case "redis":
		s := store.NewRedisVectorStore(store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.RedisTTL,
		}, embedder)
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return s, s.Close, nil

	case "postgres", "pgvector":
		s, err := store.NewPgVectorStore(ctx, store.PgVectorOptions{
			ConnString: cfg.DatabaseURL,
			TableName:  cfg.PgTable,
			Dimension:  cfg.EmbeddingDimensions,
		}, embedder)
		if err != nil {
			return nil, nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}

// NewWebPipeline builds the web search pipeline. The returned function
// releases the vector store.
func NewWebPipeline(ctx context.Context, cfg *config.Config, opts Options) (*rag.Pipeline, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := log.OrDefault(opts.Logger)

	model, embedder, err := models(cfg, opts)
	if err != nil {
		return nil, nil, err
	}

	search := opts.Search
	if search == nil {
		search, err = tool.NewSearchProvider(cfg.SearchProvider, cfg.SearchAPIKey(), tool.ProviderOptions{
			MaxResults: cfg.MaxPages * 2,
			HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		})
		if err != nil {
			return nil, nil, err
		}
	}
	var fetcher loader.PageFetcher = opts.Fetcher
	if fetcher == nil {
		fetcher = tool.NewWebFetcher(tool.WithFetchTimeout(cfg.HTTPTimeout))
	}

	textSplitter, err := splitter.NewCharacterTextSplitter(
		splitter.WithCharacterChunkSize(cfg.ChunkSize),
		splitter.WithCharacterChunkOverlap(cfg.ChunkOverlap),
	)
	if err != nil {
		return nil, nil, err
	}

	vectorStore, closeStore, err := NewVectorStore(ctx, cfg, embedder)
	if err != nil {
		return nil, nil, err
	}

	pipelineConfig := rag.DefaultPipelineConfig()
	pipelineConfig.TopK = cfg.TopK
	pipelineConfig.ScoreThreshold = cfg.ScoreThreshold
	pipelineConfig.MaxTokens = cfg.MaxTokens
	pipelineConfig.Temperature = cfg.Temperature
	pipelineConfig.Source = loader.NewWebSource(search, fetcher,
		loader.WithMaxPages(cfg.MaxPages),
		loader.WithLogger(logger),
	)
	pipelineConfig.Splitter = textSplitter
	pipelineConfig.Embedder = embedder
	pipelineConfig.VectorStore = vectorStore
	pipelineConfig.Retriever = retriever.NewVectorRetriever(vectorStore, embedder, rag.RetrievalConfig{
		K:              cfg.TopK,
		ScoreThreshold: cfg.ScoreThreshold,
		SearchType:     retriever.SearchTypeSimilarity,
	})
	pipelineConfig.LLM = model
	pipelineConfig.Logger = logger

	p, err := rag.NewPipeline(pipelineConfig)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return p, closeStore, nil
}

// NewSQLPipeline opens cfg.SQLitePath and builds the SQL pipeline. The
// returned function closes the database.
func NewSQLPipeline(ctx context.Context, cfg *config.Config, opts Options) (*sqlrag.Pipeline, func() error, error) {
	if cfg.SQLTopK <= 0 {
		return nil, nil, errors.New("SQL_TOP_K must be positive")
	}

	model := opts.LLM
	if model == nil {
		var err error
		if model, err = NewChatModel(cfg); err != nil {
			return nil, nil, err
		}
	}

	db, err := sqlrag.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}

	p, err := sqlrag.NewPipeline(db, sqlrag.PipelineConfig{
		TopK:   cfg.SQLTopK,
		LLM:    model,
		Logger: opts.Logger,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return p, db.Close, nil
}

func models(cfg *config.Config, opts Options) (llms.Model, rag.Embedder, error) {
	model, embedder := opts.LLM, opts.Embedder
	var err error
	if model == nil {
		if model, err = NewChatModel(cfg); err != nil {
			return nil, nil, err
		}
	}
	if embedder == nil {
		if embedder, err = NewEmbedder(cfg); err != nil {
			return nil, nil, err
		}
	}
	return model, embedder, nil
}
