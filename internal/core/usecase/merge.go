package usecase

import (
	"sort"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
)

// mergeCandidates collapses candidates from every strategy and name variant
// into one ranked list: per node id only the highest-confidence entry
// survives, keeping that winner's match type and details rather than blending
// them. Ties keep the earlier entry, so ordering stays deterministic for a
// given input order. Sorted confidence-descending, truncated to limit when
// limit is positive.
func mergeCandidates(candidates []domain.Candidate, limit int) []domain.Candidate {
	order := make([]string, 0, len(candidates))
	byID := make(map[string]domain.Candidate, len(candidates))

	for _, c := range candidates {
		current, ok := byID[c.ID]
		if !ok {
			order = append(order, c.ID)
			byID[c.ID] = c
			continue
		}
		if c.Confidence > current.Confidence {
			byID[c.ID] = c
		}
	}

	out := make([]domain.Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
