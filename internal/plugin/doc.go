// Package plugin evaluates external atoms.
//
// A plugin atom is registered under the function name used in programs
// (&name[inputs](outputs)) with the kind of each input and the arity of its
// output tuples. The Evaluator grounds an external atom's input list,
// hands the plugin the facts of its predicate inputs and turns each answer
// tuple into a replacement atom __ext_name(inputs..., outputs...).
package plugin
