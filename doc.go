// raglab - Retrieval-Augmented Generation over the Web and SQL in Go
//
// raglab answers natural language questions in two ways:
//
//   - web: search the web, fetch the top pages, split them into chunks, embed
//     and index the chunks, retrieve the closest ones and ask a chat model to
//     answer from them with citations.
//   - sql: read a SQLite schema, let the model write a query, run it and have
//     the model phrase the result.
//
// Both pipelines are typed state graphs, so every step is a named node that
// can be logged, drawn and tested on its own.
//
// # Quick Start
//
// Install the command:
//
//	go install github.com/smallnest/raglab/cmd/raglab@latest
//
// Ask the web:
//
//	export OPENAI_API_KEY=sk-...
//	raglab web "What changed in the latest Go release?"
//
// Ask a CSV file:
//
//	raglab import-csv bank.csv --table bank --db bank.db
//	raglab sql --db bank.db "What is the average balance of management jobs?"
//
// # Library Use
//
// The pipeline wires interchangeable components:
//
//	config := rag.DefaultPipelineConfig()
//	config.Source = loader.NewWebSource(search, tool.NewWebFetcher())
//	config.Splitter = textSplitter
//	config.Embedder = embedder
//	config.VectorStore = store.NewInMemoryVectorStore(embedder)
//	config.Retriever = retriever.NewVectorRetriever(config.VectorStore, embedder, rag.RetrievalConfig{K: 5})
//	config.LLM = model
//
//	pipeline, err := rag.NewPipeline(config)
//	if err != nil {
//		return err
//	}
//	result, err := pipeline.Query(ctx, "How do Go channels work?")
//
// Package app builds the same pipeline from environment configuration.
//
// # Packages
//
//   - rag: core types, the query orchestrator and prompt helpers
//   - rag/splitter: character and recursive text splitters
//   - rag/store: in-memory, Redis and pgvector vector stores
//   - rag/retriever: similarity and MMR retrieval
//   - rag/loader: web, text file and static document sources
//   - tool: Brave, Tavily and DuckDuckGo search plus a page fetcher
//   - sqlrag: CSV import and the natural language to SQL pipeline
//   - llm: OpenAI compatible chat model and embedders
//   - graph: the typed state graph both pipelines run on
//   - config, app: environment configuration and wiring
//   - log: logger interface with a golog backend
//
// # Service Errors
//
// A 503 from the model endpoint surfaces as rag.ErrServiceUnavailable:
//
//	if errors.Is(err, rag.ErrServiceUnavailable) {
//		// try again later
//	}
//
// Nothing is retried or cached.
package raglab // import "github.com/smallnest/raglab"
