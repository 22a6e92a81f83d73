package graph

import (
	"context"
	"fmt"
	"time"
)

// StateGraph is a typed graph of nodes operating on a state of type S.
type StateGraph[S any] struct {
	nodes            map[string]TypedNode[S]
	order            []string
	edges            []Edge
	conditionalEdges map[string]func(ctx context.Context, state S) string
	entryPoint       string
	maxSteps         int
	listeners        []NodeListener
}

// TypedNode represents a typed node in the graph.
type TypedNode[S any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (S, error)
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]TypedNode[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
		maxSteps:         DefaultMaxSteps,
	}
}

// AddNode adds a node. Adding a node with an existing name replaces it.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	if _, exists := g.nodes[name]; !exists {
		g.order = append(g.order, name)
	}
	g.nodes[name] = TypedNode[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge adds an edge whose target is chosen at runtime.
// A conditional edge takes precedence over plain edges from the same node.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetMaxSteps overrides DefaultMaxSteps.
func (g *StateGraph[S]) SetMaxSteps(n int) {
	if n > 0 {
		g.maxSteps = n
	}
}

// AddListener registers a listener notified around every node.
func (g *StateGraph[S]) AddListener(l NodeListener) {
	if l != nil {
		g.listeners = append(g.listeners, l)
	}
}

// Nodes returns the nodes in insertion order.
func (g *StateGraph[S]) Nodes() []TypedNode[S] {
	out := make([]TypedNode[S], 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Compile validates the graph and returns a StateRunnable.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok && e.To != END {
			return nil, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.To)
		}
	}

	return &StateRunnable[S]{graph: g}, nil
}

// StateRunnable represents a compiled state graph.
type StateRunnable[S any] struct {
	graph *StateGraph[S]
}

// Graph returns the graph the runnable was compiled from.
func (r *StateRunnable[S]) Graph() *StateGraph[S] {
	return r.graph
}

// Invoke runs the graph from the entry point until END and returns the final state.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	var zero S
	state := initialState
	current := r.graph.entryPoint

	for steps := 0; current != END; steps++ {
		if steps >= r.graph.maxSteps {
			return zero, fmt.Errorf("%w (%d)", ErrMaxStepsExceeded, r.graph.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return zero, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		r.notifyStart(ctx, node.Name)
		started := time.Now()
		next, err := node.Function(ctx, state)
		if err != nil {
			r.notifyError(ctx, node.Name, err)
			return zero, fmt.Errorf("node %s: %w", node.Name, err)
		}
		r.notifyEnd(ctx, node.Name, time.Since(started))
		state = next

		current, err = r.nextNode(ctx, current, state)
		if err != nil {
			return zero, err
		}
	}

	return state, nil
}

func (r *StateRunnable[S]) nextNode(ctx context.Context, from string, state S) (string, error) {
	if cond, ok := r.graph.conditionalEdges[from]; ok {
		to := cond(ctx, state)
		if to == "" {
			return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
		}
		return to, nil
	}
	for _, e := range r.graph.edges {
		if e.From == from {
			return e.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}

func (r *StateRunnable[S]) notifyStart(ctx context.Context, node string) {
	for _, l := range r.graph.listeners {
		l.OnNodeStart(ctx, node)
	}
}

func (r *StateRunnable[S]) notifyEnd(ctx context.Context, node string, elapsed time.Duration) {
	for _, l := range r.graph.listeners {
		l.OnNodeEnd(ctx, node, elapsed)
	}
}

func (r *StateRunnable[S]) notifyError(ctx context.Context, node string, err error) {
	for _, l := range r.graph.listeners {
		l.OnNodeError(ctx, node, err)
	}
}
