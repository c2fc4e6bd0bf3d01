// Package oracle is the built-in stable-model solver.
//
// Solve grounds the rules over the atoms derivable from the facts, encodes
// the ground program for a gini SAT instance and enumerates candidates.
// A candidate is accepted when no proper subset of it satisfies the rules
// whose body it makes true (the FLP reduct); a second gini instance
// answers that question. Aggregates are evaluated lazily: a candidate
// whose aggregate guesses disagree with the aggregate values is refuted
// with a nogood and the search continues.
package oracle
