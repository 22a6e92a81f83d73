// Package graph sequences pipeline steps as a typed state graph.
//
// A StateGraph[S] holds named nodes that each take the current state and return
// the next one. Edges, optionally conditional, decide which node runs next; the
// run stops when it reaches END. Execution is strictly sequential: one node at a
// time, on the caller's goroutine, under the caller's context.
//
//	g := graph.NewStateGraph[MyState]()
//	g.AddNode("fetch", "Fetch documents", fetch)
//	g.AddNode("answer", "Generate the answer", answer)
//	g.SetEntryPoint("fetch")
//	g.AddEdge("fetch", "answer")
//	g.AddEdge("answer", graph.END)
//
//	runnable, err := g.Compile()
//	final, err := runnable.Invoke(ctx, MyState{Query: "..."})
//
// Listeners observe node start, end and failure; LoggingListener forwards those
// events to a log.Logger. Exporter renders the graph as Mermaid or ASCII.
package graph
