package graph

import (
	"fmt"
	"strings"
)

// Exporter renders a StateGraph for humans.
type Exporter[S any] struct {
	graph *StateGraph[S]
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter[S any](graph *StateGraph[S]) *Exporter[S] {
	return &Exporter[S]{graph: graph}
}

// DrawMermaid generates a top-down Mermaid flowchart of the graph.
func (ge *Exporter[S]) DrawMermaid() string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")

	if ge.graph.entryPoint != "" {
		sb.WriteString("    START([\"START\"])\n")
		sb.WriteString(fmt.Sprintf("    START --> %s\n", ge.graph.entryPoint))
	}

	for _, name := range ge.graph.order {
		node := ge.graph.nodes[name]
		label := name
		if node.Description != "" {
			label = fmt.Sprintf("%s<br/>%s", name, node.Description)
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", name, label))
	}

	hasEnd := false
	for _, edge := range ge.graph.edges {
		if edge.To == END {
			hasEnd = true
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", edge.From, edge.To))
	}
	if hasEnd {
		sb.WriteString("    END([\"END\"])\n")
	}

	for _, from := range ge.graph.order {
		if _, ok := ge.graph.conditionalEdges[from]; ok {
			sb.WriteString(fmt.Sprintf("    %s -.-> %s_condition((?))\n", from, from))
		}
	}

	return sb.String()
}

// DrawASCII lists the linear path from the entry point, following the first
// plain edge out of each node.
func (ge *Exporter[S]) DrawASCII() string {
	if ge.graph.entryPoint == "" {
		return "No entry point set\n"
	}

	var sb strings.Builder
	sb.WriteString("START\n")
	visited := make(map[string]bool)
	current := ge.graph.entryPoint
	for current != "" && !visited[current] {
		visited[current] = true
		sb.WriteString(fmt.Sprintf("  -> %s\n", current))
		if current == END {
			break
		}
		if _, ok := ge.graph.conditionalEdges[current]; ok {
			sb.WriteString("  -> (?)\n")
			break
		}
		next := ""
		for _, e := range ge.graph.edges {
			if e.From == current {
				next = e.To
				break
			}
		}
		current = next
	}
	return sb.String()
}
