// Package gaffer provides a federated graph-query execution layer: one
// logical query answered by one or more independently-schemed backing
// stores, with composable operators for correlating the results.
//
// # Architecture
//
// Execution flows through three layers:
//
//   - graph: the façade. It resolves each operation's view against the
//     graph's default view, runs registered hooks before and after
//     dispatch, and guarantees that chains and partial results are closed
//     on failure.
//   - federated: a store composed of N registered constituent stores. It
//     selects a subset of graphs per chain, validates every view against
//     the merged schema of the selection, dispatches clones of the chain
//     concurrently, and merges the answers into one lazy closable result.
//   - store: the backing-store contract and two implementations, an
//     in-memory map store and a SQLite-backed store.
//
// The join package is independent of stores: it correlates two keyed
// element collections inside an operation chain.
//
// Passive model packages (schema, view, element, operation) are shared by
// everything above. The errors package classifies failures as transient,
// invalid, or fatal; the metric package carries the Prometheus registry.
//
// # Usage
//
//	g, err := graph.New(graph.Config{
//		GraphID: "example",
//		Schema:  sch,
//	})
//	if err != nil { ... }
//	result, err := g.Execute(ctx, operation.NewChain(
//		operation.NewGetAllElements(nil),
//	), store.User{ID: "alice"})
package gaffer
