package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/smallnest/raglab/rag"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatHTML = "html"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatHTML:
		return nil
	}
	return fmt.Errorf("unknown format %q, want text, json or html", format)
}

func render(w io.Writer, format string, result *rag.QueryResult) error {
	switch format {
	case formatJSON:
		return renderJSON(w, result)
	case formatHTML:
		_, err := w.Write(renderHTML(result))
		return err
	default:
		_, err := io.WriteString(w, renderMarkdown(result))
		return err
	}
}

func renderJSON(w io.Writer, result *rag.QueryResult) error {
	out := *result
	out.Sources = make([]rag.Document, len(result.Sources))
	for i, doc := range result.Sources {
		doc.Embedding = nil
		out.Sources[i] = doc
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// renderMarkdown prints the answer followed by its citations.
func renderMarkdown(result *rag.QueryResult) string {
	var sb strings.Builder
	sb.WriteString(result.Answer)
	sb.WriteString("\n")
	if len(result.Citations) > 0 {
		sb.WriteString("\nSources:\n\n")
		for _, c := range result.Citations {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}
	return sb.String()
}

func renderHTML(result *rag.QueryResult) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(renderMarkdown(result)))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.Render(doc, renderer)
}
