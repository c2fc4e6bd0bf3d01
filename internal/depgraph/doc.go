// Package depgraph builds the atom-level dependency graph of a program.
//
// A NodeGraph is an arena of AtomNodes addressed by integer NodeID. Nodes
// are deduplicated by atom value, and every Dependency edge is stored twice:
// as a preceding edge on its target and as a succeeding edge on its source.
// Edge sets are kept sorted by (rule, target, type) so iteration order never
// depends on insertion order.
//
// Build turns an ir.Program into a NodeGraph. ComponentFinder implementations
// compute the strongly and weakly connected components used to partition
// the graph for evaluation.
package depgraph
