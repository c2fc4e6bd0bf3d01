// Package ir provides the program representation shared by every other
// hexeval package: terms, the atom variants, rules, programs and
// interpretations, plus canonical JSON, content hashes and the fatal
// evaluation error type.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Atom variants form a closed set behind the sealed BodyAtom interface
//   - Only ordinary atoms unify; external, aggregate and builtin atoms never do
//   - Interpretations hold ground ordinary atoms and are treated as immutable
//     once handed to another component
//   - Predicates starting with "__" are reserved for synthesized atoms
package ir
