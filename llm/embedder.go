package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/smallnest/raglab/rag"
	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the model used when none is configured.
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	// DefaultEmbeddingDimensions is the vector length of DefaultEmbeddingModel.
	DefaultEmbeddingDimensions = 1536
)

var (
	// ErrEmptyText is returned when a text to embed is blank.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when the endpoint returns vectors of
	// an unexpected length.
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")
)

// EmbedderConfig configures the embedders.
type EmbedderConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	HTTPClient *http.Client
}

// shortenable reports whether model accepts a requested output dimension.
func shortenable(model string) bool {
	return strings.HasPrefix(model, "text-embedding-3")
}

func (c EmbedderConfig) withDefaults() EmbedderConfig {
	if c.Model == "" {
		c.Model = DefaultEmbeddingModel
	}
	if c.Dimensions <= 0 {
		c.Dimensions = DefaultEmbeddingDimensions
	}
	return c
}

// OpenAIEmbedder embeds text with the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	// requested is sent as the dimensions field, 0 omits it
	requested int
}

var _ rag.Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAIEmbedder.
func NewOpenAIEmbedder(cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg = cfg.withDefaults()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	e := &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
	}
	if shortenable(cfg.Model) {
		e.requested = cfg.Dimensions
	}
	return e, nil
}

// EmbedDocument embeds a single text.
func (e *OpenAIEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds texts in a single request. Vectors are returned in
// input order.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyText
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      e.model,
		Dimensions: e.requested,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", classifyAPIError(err))
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		if len(item.Embedding) != e.dimensions {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, e.dimensions, len(item.Embedding))
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// GetDimension returns the configured vector length.
func (e *OpenAIEmbedder) GetDimension() int {
	return e.dimensions
}

// classifyAPIError marks HTTP 503 responses with rag.ErrServiceUnavailable.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %w", rag.ErrServiceUnavailable, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %w", rag.ErrServiceUnavailable, err)
	}
	return rag.WrapGenerationError(err)
}

// NewLangChainEmbedder creates an embedder backed by the langchaingo OpenAI
// client.
func NewLangChainEmbedder(cfg EmbedderConfig) (*rag.LangChainEmbedder, error) {
	cfg = cfg.withDefaults()

	opts := []lcopenai.Option{lcopenai.WithEmbeddingModel(cfg.Model)}
	if shortenable(cfg.Model) {
		opts = append(opts, lcopenai.WithEmbeddingDimensions(cfg.Dimensions))
	}
	if cfg.APIKey != "" {
		opts = append(opts, lcopenai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, lcopenai.WithHTTPClient(cfg.HTTPClient))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return rag.NewLangChainEmbedder(embedder), nil
}

// NewEmbedder creates the embedder named by provider: "openai" (default) or
// "langchain".
func NewEmbedder(provider string, cfg EmbedderConfig) (rag.Embedder, error) {
	switch strings.ToLower(provider) {
	case "", "openai":
		e, err := NewOpenAIEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "langchain":
		e, err := NewLangChainEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
