package engine

import "github.com/roach88/hexeval/internal/ir"

// combine returns the union of every choice of one interpretation from
// each list, in lexicographic choice order. Duplicates are kept. The
// product is empty when any list is empty, and holds one empty
// interpretation when there are no lists.
func combine(lists ...[]ir.Interpretation) []ir.Interpretation {
	out := []ir.Interpretation{ir.NewInterpretation()}
	for _, list := range lists {
		if len(list) == 0 {
			return []ir.Interpretation{}
		}
		next := make([]ir.Interpretation, 0, len(out)*len(list))
		for _, acc := range out {
			for _, m := range list {
				next = append(next, acc.Union(m))
			}
		}
		out = next
	}
	return out
}

// distinct drops repeated interpretations, keeping first occurrences.
func distinct(models []ir.Interpretation) []ir.Interpretation {
	var set ir.ModelSet
	for _, m := range models {
		set.Add(m)
	}
	return set.Models()
}
