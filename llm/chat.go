package llm

import (
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultChatModel is used when no chat model is configured.
const DefaultChatModel = "gpt-4o-mini"

// ChatConfig configures NewChatModel.
type ChatConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewChatModel creates an OpenAI compatible chat model. An empty APIKey falls
// back to OPENAI_API_KEY.
func NewChatModel(cfg ChatConfig) (llms.Model, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}

	opts := []openai.Option{openai.WithModel(model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, openai.WithHTTPClient(cfg.HTTPClient))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return client, nil
}
