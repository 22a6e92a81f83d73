package graph

import "errors"

// END is a special constant used to represent the end node in the graph.
const END = "END"

// DefaultMaxSteps bounds a single Invoke so a conditional cycle cannot spin forever.
const DefaultMaxSteps = 64

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrMaxStepsExceeded is returned when a run visits more nodes than allowed.
	ErrMaxStepsExceeded = errors.New("maximum number of steps exceeded")
)

// Edge represents an edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}
