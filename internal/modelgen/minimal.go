package modelgen

import "github.com/roach88/hexeval/internal/ir"

// Minimal keeps the subset-minimal interpretations of models, dropping
// duplicates. The survivors keep their first-seen order.
func Minimal(models []ir.Interpretation) []ir.Interpretation {
	return MinimalBy(models, func(i ir.Interpretation) ir.Interpretation { return i })
}

// MinimalBy is Minimal comparing the projections view(m) instead of the
// models themselves. Of several models with equal projections the first
// is kept.
func MinimalBy(models []ir.Interpretation, view func(ir.Interpretation) ir.Interpretation) []ir.Interpretation {
	views := make([]ir.Interpretation, len(models))
	for i, m := range models {
		views[i] = view(m)
	}

	out := make([]ir.Interpretation, 0, len(models))
	for i := range models {
		keep := true
		for j := range models {
			if i == j {
				continue
			}
			if views[j].ProperSubsetOf(views[i]) || (j < i && views[j].Equal(views[i])) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, models[i])
		}
	}
	return out
}
