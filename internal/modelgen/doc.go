// Package modelgen computes the models of one component given an input
// interpretation.
//
// Three strategies are provided:
//   - Ordinary: a single oracle call, for components whose external atoms
//     (if any) were evaluated upstream.
//   - Fixpoint: iterates external evaluation and oracle calls until the
//     interpretation stops changing, for stratified components.
//   - GuessCheck: guesses the truth of every external atom instance, keeps
//     the guesses the externals confirm and that pass the FLP-reduct
//     minimality check, for unstratified components.
//
// Every strategy is cumulative: each returned interpretation contains the
// input. An empty result means the component is inconsistent under that
// input; it is not an error.
package modelgen
