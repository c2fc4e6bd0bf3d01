// Package compiler turns program documents into ir.Program values.
//
// A program document lists facts and rules. It is written either in CUE,
// checked against the embedded #Program schema, or in YAML:
//
//	facts:
//	  - d(1)
//	  - d(2)
//	rules:
//	  - "p(X) :- d(X), &diff[d,q](X)."
//	  - head: ["q(X)"]
//	    body: ["d(X)", "&diff[d,p](X)"]
//
// Rules are strings in program syntax or {head, body} objects whose entries
// are atoms and body literals. Compile parses a document, Resolve binds its
// external atoms to a plugin registry and Validate reports safety problems.
// Load runs all three.
package compiler
