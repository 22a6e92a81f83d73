// Package llm builds the model clients used by the pipelines: a chat model
// behind the langchaingo llms.Model interface and embedders that satisfy
// rag.Embedder.
//
// Both talk to any OpenAI compatible endpoint. Set BaseURL to point at a local
// server or a proxy.
package llm
