package rag

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/smallnest/raglab/graph"
	"github.com/smallnest/raglab/log"
	"github.com/tmc/langchaingo/llms"
)

// DefaultSystemPrompt instructs the model to stay inside the retrieved context.
const DefaultSystemPrompt = "You are a helpful assistant. Answer the question based on the provided context. If you cannot answer based on the context, say so."

// MetadataRunID is the chunk metadata key holding the run that indexed it.
// Retrieval only sees chunks of the current run.
const MetadataRunID = "run_id"

// RAGState is the state carried between pipeline nodes.
type RAGState struct {
	RunID     string
	Query     string
	Documents []Document
	Chunks    []Document
	Results   []DocumentSearchResult
	Context   string
	Answer    string
	Citations []string
	Metadata  map[string]any
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Retrieval configuration
	TopK           int     // Number of chunks to retrieve, DefaultK when zero
	ScoreThreshold float64 // Minimum similarity, 0 keeps everything

	// Generation configuration
	SystemPrompt     string
	IncludeCitations bool
	IncludeScores    bool
	MaxTokens        int
	Temperature      float64

	// Components
	Source      Source
	Splitter    TextSplitter
	Embedder    Embedder
	VectorStore VectorStore
	Retriever   Retriever
	LLM         llms.Model
	Logger      log.Logger
}

// DefaultPipelineConfig returns the configuration used by the notebooks.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		TopK:             DefaultK,
		SystemPrompt:     DefaultSystemPrompt,
		IncludeCitations: true,
		MaxTokens:        1000,
		Temperature:      0.0,
	}
}

// Pipeline is the retrieval-augmented query orchestrator for unstructured sources.
type Pipeline struct {
	config   *PipelineConfig
	logger   log.Logger
	full     *graph.StateGraph[RAGState]
	retrieve *graph.StateGraph[RAGState]
}

// NewPipeline validates config and builds both the answering graph and the
// retrieval-only graph.
func NewPipeline(config *PipelineConfig) (*Pipeline, error) {
	if config == nil {
		config = DefaultPipelineConfig()
	}
	cfg := *config
	config = &cfg
	switch {
	case config.Source == nil:
		return nil, errors.New("source is required")
	case config.Splitter == nil:
		return nil, errors.New("splitter is required")
	case config.Embedder == nil:
		return nil, errors.New("embedder is required")
	case config.VectorStore == nil:
		return nil, errors.New("vector store is required")
	case config.Retriever == nil:
		return nil, errors.New("retriever is required")
	case config.LLM == nil:
		return nil, errors.New("LLM is required")
	}
	if config.TopK <= 0 {
		config.TopK = DefaultK
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}

	p := &Pipeline{config: config, logger: log.OrDefault(config.Logger)}
	p.full = p.buildGraph(true)
	p.retrieve = p.buildGraph(false)
	return p, nil
}

func (p *Pipeline) buildGraph(generate bool) *graph.StateGraph[RAGState] {
	g := graph.NewStateGraph[RAGState]()
	g.AddNode("fetch", "Fetch documents from the source", p.fetchNode)
	g.AddNode("split", "Split documents into chunks", p.splitNode)
	g.AddNode("index", "Embed chunks into the vector store", p.indexNode)
	g.AddNode("retrieve", "Retrieve the top-k chunks", p.retrieveNode)
	g.AddListener(graph.NewLoggingListener(p.logger, "web-rag"))

	g.SetEntryPoint("fetch")
	g.AddEdge("fetch", "split")
	g.AddEdge("split", "index")
	g.AddEdge("index", "retrieve")

	if !generate {
		g.AddEdge("retrieve", graph.END)
		return g
	}

	g.AddNode("generate", "Generate the answer", p.generateNode)
	g.AddEdge("retrieve", "generate")
	if p.config.IncludeCitations {
		g.AddNode("format_citations", "Format citations", p.formatCitationsNode)
		g.AddEdge("generate", "format_citations")
		g.AddEdge("format_citations", graph.END)
	} else {
		g.AddEdge("generate", graph.END)
	}
	return g
}

// Graph returns the answering graph, for visualization.
func (p *Pipeline) Graph() *graph.StateGraph[RAGState] {
	return p.full
}

// NewPipelineGraph returns the answering graph without any components
// attached. It can be drawn but not run.
func NewPipelineGraph(includeCitations bool) *graph.StateGraph[RAGState] {
	p := &Pipeline{
		config: &PipelineConfig{IncludeCitations: includeCitations},
		logger: &log.NoOpLogger{},
	}
	return p.buildGraph(true)
}

// Query runs the full pipeline and returns a non-empty answer.
func (p *Pipeline) Query(ctx context.Context, query string) (*QueryResult, error) {
	state, err := p.run(ctx, p.full, query)
	if err != nil {
		return nil, err
	}
	return p.result(state), nil
}

// Retrieve runs fetch to retrieve and returns the scored chunks without
// calling the model.
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]DocumentSearchResult, error) {
	state, err := p.run(ctx, p.retrieve, query)
	if err != nil {
		return nil, err
	}
	return state.Results, nil
}

func (p *Pipeline) run(ctx context.Context, g *graph.StateGraph[RAGState], query string) (RAGState, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return RAGState{}, ErrEmptyQuery
	}

	runnable, err := g.Compile()
	if err != nil {
		return RAGState{}, err
	}

	started := time.Now()
	runID := NewDocumentID()
	state, err := runnable.Invoke(ctx, RAGState{
		RunID:    runID,
		Query:    query,
		Metadata: map[string]any{MetadataRunID: runID},
	})
	if err != nil {
		if errors.Is(err, ErrServiceUnavailable) {
			p.logger.Warn("model service unavailable: %v", err)
		}
		return RAGState{}, err
	}
	state.Metadata["elapsed"] = time.Since(started).String()
	return state, nil
}

func (p *Pipeline) result(state RAGState) *QueryResult {
	sources := make([]Document, len(state.Results))
	for i, r := range state.Results {
		sources[i] = r.Document
	}

	state.Metadata["num_documents"] = len(state.Documents)
	state.Metadata["num_chunks"] = len(state.Chunks)
	state.Metadata["top_k"] = p.config.TopK

	return &QueryResult{
		Query:      state.Query,
		Answer:     state.Answer,
		Sources:    sources,
		Context:    state.Context,
		Citations:  state.Citations,
		Confidence: Confidence(state.Results),
		Metadata:   state.Metadata,
	}
}

// Node implementations

func (p *Pipeline) fetchNode(ctx context.Context, state RAGState) (RAGState, error) {
	docs, err := p.config.Source.Fetch(ctx, state.Query)
	if err != nil {
		return state, fmt.Errorf("fetch failed: %w", err)
	}
	if len(docs) == 0 {
		return state, ErrNoDocuments
	}
	EnsureIDs(docs)
	p.logger.Debug("fetched %d documents for %q", len(docs), state.Query)

	state.Documents = docs
	return state, nil
}

func (p *Pipeline) splitNode(ctx context.Context, state RAGState) (RAGState, error) {
	chunks := p.config.Splitter.SplitDocuments(state.Documents)
	if len(chunks) == 0 {
		return state, fmt.Errorf("split failed: %w", ErrNoDocuments)
	}
	EnsureIDs(chunks)
	for i := range chunks {
		metadata := make(map[string]any, len(chunks[i].Metadata)+1)
		maps.Copy(metadata, chunks[i].Metadata)
		metadata[MetadataRunID] = state.RunID
		chunks[i].Metadata = metadata
	}
	p.logger.Debug("split %d documents into %d chunks", len(state.Documents), len(chunks))

	state.Chunks = chunks
	return state, nil
}

func (p *Pipeline) indexNode(ctx context.Context, state RAGState) (RAGState, error) {
	texts := make([]string, len(state.Chunks))
	for i, c := range state.Chunks {
		texts[i] = c.Content
	}

	vectors, err := p.config.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return state, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return state, fmt.Errorf("embedding failed: got %d vectors for %d chunks", len(vectors), len(texts))
	}

	if err := p.config.VectorStore.AddBatch(ctx, state.Chunks, vectors); err != nil {
		return state, fmt.Errorf("indexing failed: %w", err)
	}
	return state, nil
}

func (p *Pipeline) retrieveNode(ctx context.Context, state RAGState) (RAGState, error) {
	results, err := p.config.Retriever.RetrieveWithConfig(ctx, state.Query, &RetrievalConfig{
		K:              p.config.TopK,
		ScoreThreshold: p.config.ScoreThreshold,
		SearchType:     "similarity",
		IncludeScores:  p.config.IncludeScores,
		Filter:         map[string]any{MetadataRunID: state.RunID},
	})
	if err != nil {
		return state, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(results) > p.config.TopK {
		results = results[:p.config.TopK]
	}

	state.Results = results
	state.Context = BuildContext(results, p.config.IncludeScores)
	return state, nil
}

func (p *Pipeline) generateNode(ctx context.Context, state RAGState) (RAGState, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, p.config.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(state.Context, state.Query)),
	}

	opts := []llms.CallOption{llms.WithTemperature(p.config.Temperature)}
	if p.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.config.MaxTokens))
	}

	response, err := p.config.LLM.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return state, fmt.Errorf("generation failed: %w", WrapGenerationError(err))
	}
	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Content) == "" {
		return state, ErrEmptyAnswer
	}

	state.Answer = strings.TrimSpace(response.Choices[0].Content)
	return state, nil
}

func (p *Pipeline) formatCitationsNode(ctx context.Context, state RAGState) (RAGState, error) {
	docs := make([]Document, len(state.Results))
	for i, r := range state.Results {
		docs[i] = r.Document
	}
	state.Citations = Citations(docs)
	return state, nil
}
