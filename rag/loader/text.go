package loader

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallnest/raglab/rag"
)

// TextLoader loads a text file as one document, or one document per
// paragraph when paragraph splitting is enabled.
type TextLoader struct {
	filePath        string
	metadata        map[string]any
	paragraphMarker string
}

// TextLoaderOption configures the TextLoader
type TextLoaderOption func(*TextLoader)

// WithMetadata sets additional metadata for loaded documents
func WithMetadata(metadata map[string]any) TextLoaderOption {
	return func(l *TextLoader) {
		maps.Copy(l.metadata, metadata)
	}
}

// WithParagraphs emits one document per block separated by marker.
func WithParagraphs(marker string) TextLoaderOption {
	return func(l *TextLoader) {
		l.paragraphMarker = marker
	}
}

// NewTextLoader creates a new TextLoader
func NewTextLoader(filePath string, opts ...TextLoaderOption) *TextLoader {
	l := &TextLoader{
		filePath: filePath,
		metadata: map[string]any{
			"source": filePath,
			"title":  filepath.Base(filePath),
			"type":   "text",
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads the file
func (l *TextLoader) Load(ctx context.Context) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", l.filePath, err)
	}

	if l.paragraphMarker == "" {
		return []rag.Document{{
			ID:       "text_" + l.filePath,
			Content:  string(content),
			Metadata: maps.Clone(l.metadata),
		}}, nil
	}

	var docs []rag.Document
	for i, paragraph := range strings.Split(string(content), l.paragraphMarker) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		metadata := maps.Clone(l.metadata)
		metadata["paragraph_number"] = i
		docs = append(docs, rag.Document{
			ID:       fmt.Sprintf("%s_paragraph_%d", l.filePath, i),
			Content:  paragraph,
			Metadata: metadata,
		})
	}
	return docs, nil
}
