package loader

import (
	"context"
	"maps"

	"github.com/smallnest/raglab/rag"
)

// StaticDocumentLoader serves a fixed document set. Callers get copies, so
// downstream metadata edits never leak back into the loader.
type StaticDocumentLoader struct {
	Documents []rag.Document
}

// NewStaticDocumentLoader creates a new StaticDocumentLoader
func NewStaticDocumentLoader(documents []rag.Document) *StaticDocumentLoader {
	return &StaticDocumentLoader{
		Documents: documents,
	}
}

// Load returns the documents
func (l *StaticDocumentLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.LoadWithMetadata(ctx, nil)
}

// LoadWithMetadata returns the documents with metadata merged into each
func (l *StaticDocumentLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	docs := make([]rag.Document, len(l.Documents))
	for i, doc := range l.Documents {
		merged := make(map[string]any, len(doc.Metadata)+len(metadata))
		maps.Copy(merged, doc.Metadata)
		maps.Copy(merged, metadata)
		doc.Metadata = merged
		docs[i] = doc
	}
	return docs, nil
}
