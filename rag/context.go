package rag

import (
	"fmt"
	"math"
	"strings"
)

// BuildContext renders retrieved chunks as numbered context blocks for the prompt.
func BuildContext(results []DocumentSearchResult, includeScores bool) string {
	parts := make([]string, 0, len(results))
	for i, result := range results {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%d] Source: %s\n", i+1, result.Document.Source())
		if title, ok := result.Document.Metadata["title"]; ok && title != "" {
			fmt.Fprintf(&sb, "Title: %v\n", title)
		}
		if includeScores {
			fmt.Fprintf(&sb, "Score: %.4f\n", result.Score)
		}
		fmt.Fprintf(&sb, "Content: %s", result.Document.Content)
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt renders the user turn sent to the model.
func BuildPrompt(context, query string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", context, query)
}

// Citations lists "[i] source" for each document, in order.
func Citations(docs []Document) []string {
	citations := make([]string, len(docs))
	for i, doc := range docs {
		citations[i] = fmt.Sprintf("[%d] %s", i+1, doc.Source())
	}
	return citations
}

// Confidence is the mean absolute score of the results.
func Confidence(results []DocumentSearchResult) float64 {
	if len(results) == 0 {
		return 0.0
	}

	total := 0.0
	for _, result := range results {
		total += math.Abs(result.Score)
	}
	return total / float64(len(results))
}
