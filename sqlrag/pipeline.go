package sqlrag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallnest/raglab/graph"
	"github.com/smallnest/raglab/log"
	"github.com/smallnest/raglab/rag"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
)

// DefaultTopK caps the rows the generated query may return.
const DefaultTopK = 100

// SQLState is the state carried between pipeline nodes.
type SQLState struct {
	Question string
	Schema   string
	Answer   string
	Metadata map[string]any
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	TopK   int      // Row limit given to the model, DefaultTopK when zero
	Tables []string // Tables the model may use, all when empty
	LLM    llms.Model
	Logger log.Logger
}

// Pipeline answers questions about a Database.
type Pipeline struct {
	db     *Database
	config PipelineConfig
	logger log.Logger
	chain  *chains.SQLDatabaseChain
	graph  *graph.StateGraph[SQLState]
}

// NewPipeline creates a Pipeline over db.
func NewPipeline(db *Database, config PipelineConfig) (*Pipeline, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if config.LLM == nil {
		return nil, errors.New("LLM is required")
	}
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}

	p := &Pipeline{
		db:     db,
		config: config,
		logger: log.OrDefault(config.Logger),
		chain:  chains.NewSQLDatabaseChain(config.LLM, config.TopK, db.db),
	}

	p.graph = p.buildGraph()
	return p, nil
}

func (p *Pipeline) buildGraph() *graph.StateGraph[SQLState] {
	g := graph.NewStateGraph[SQLState]()
	g.AddNode("introspect", "Read the table schemas", p.introspectNode)
	g.AddNode("answer", "Generate, run and explain the SQL query", p.answerNode)
	g.AddListener(graph.NewLoggingListener(p.logger, "sql-rag"))
	g.SetEntryPoint("introspect")
	g.AddEdge("introspect", "answer")
	g.AddEdge("answer", graph.END)
	return g
}

// NewPipelineGraph returns the pipeline graph without a database attached.
// It can be drawn but not run.
func NewPipelineGraph() *graph.StateGraph[SQLState] {
	p := &Pipeline{logger: &log.NoOpLogger{}}
	return p.buildGraph()
}

// Graph returns the pipeline graph, for visualization.
func (p *Pipeline) Graph() *graph.StateGraph[SQLState] {
	return p.graph
}

// Query answers question from the database contents.
func (p *Pipeline) Query(ctx context.Context, question string) (*rag.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, rag.ErrEmptyQuery
	}

	runnable, err := p.graph.Compile()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	state, err := runnable.Invoke(ctx, SQLState{
		Question: question,
		Metadata: map[string]any{},
	})
	if err != nil {
		if errors.Is(err, rag.ErrServiceUnavailable) {
			p.logger.Warn("model service unavailable: %v", err)
		}
		return nil, err
	}

	state.Metadata["schema"] = state.Schema
	state.Metadata["database"] = p.db.Path()
	state.Metadata["top_k"] = p.config.TopK
	state.Metadata["elapsed"] = time.Since(started).String()

	return &rag.QueryResult{
		Query:    state.Question,
		Answer:   state.Answer,
		Context:  state.Schema,
		Metadata: state.Metadata,
	}, nil
}

func (p *Pipeline) introspectNode(ctx context.Context, state SQLState) (SQLState, error) {
	schema, err := p.db.Schema(ctx, p.config.Tables...)
	if err != nil {
		return state, err
	}
	state.Schema = schema
	return state, nil
}

func (p *Pipeline) answerNode(ctx context.Context, state SQLState) (SQLState, error) {
	inputs := map[string]any{"query": state.Question}
	if len(p.config.Tables) > 0 {
		inputs["table_names_to_use"] = p.config.Tables
	}

	out, err := chains.Call(ctx, p.chain, inputs, chains.WithTemperature(0))
	if err != nil {
		return state, fmt.Errorf("sql chain failed: %w", rag.WrapGenerationError(err))
	}

	answer, _ := out["result"].(string)
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return state, rag.ErrEmptyAnswer
	}
	state.Answer = answer
	return state, nil
}
