// Package engine drives the evaluation of a program's dependency graph.
//
// A GraphProcessor partitions the graph into subgraphs and components and
// solves every subgraph bottom-up from the program's facts:
//
//  1. Evaluate the unsolved components whose inputs are all solved (leaves)
//     against every current model and combine their results.
//  2. Wrap the nodes outside every component that no unsolved component
//     reaches (the residue) in one ordinary component and evaluate it.
//  3. Repeat until nothing is unsolved.
//
// An empty result at any step means the program has no answer set; this is
// a normal outcome, not an error. The answer sets of the subgraphs are
// combined by cross-product.
//
// Evaluation is single-threaded. A GraphProcessor is not safe for
// concurrent use, but independent processors share nothing.
package engine
