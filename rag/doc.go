// Package rag holds the retrieval-augmented generation contracts and the
// unstructured-source orchestrator.
//
// The orchestrator, Pipeline, answers one natural-language query per run:
//
//	fetch -> split -> index -> retrieve -> generate -> format_citations
//
// Each step is a node of a graph.StateGraph[RAGState]. The steps themselves are
// delegated to the interfaces declared here: a Source fetches documents (web
// search, local file), a TextSplitter chunks them, an Embedder turns chunks into
// vectors, a VectorStore indexes them and a Retriever returns the top-k chunks
// closest to the query. The final answer comes from a single langchaingo
// llms.Model call.
//
// Implementations live in the subpackages:
//
//   - rag/loader: static, text file and web search sources
//   - rag/splitter: fixed-window and recursive character splitters
//   - rag/store: in-memory, Redis and pgvector indexes
//   - rag/retriever: vector similarity retriever
//
// # Errors
//
// A failing external call is returned wrapped with the node it happened in.
// A generation failure that looks like HTTP 503 is additionally marked with
// ErrServiceUnavailable so callers can print a friendly message:
//
//	res, err := p.Query(ctx, "Who won the 2022 world cup?")
//	if errors.Is(err, rag.ErrServiceUnavailable) {
//		fmt.Println("model service is down, try again later")
//	}
package rag
