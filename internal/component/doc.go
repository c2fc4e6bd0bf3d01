// Package component partitions a dependency graph into evaluable pieces.
//
// Partition splits a NodeGraph into Subgraphs, one per weakly connected
// component plus one holding the free-standing nodes, and turns every
// strongly connected component into a program Component bound to the model
// generator its shape calls for. External atoms outside every strong
// component become external Components.
//
// A Subgraph answers two read-only questions while it is being solved:
// which unsolved components are ready (UnsolvedLeaves), and which nodes
// outside every component can be evaluated now (Residue).
package component
