package usecase

import "github.com/kirillkom/graph-resolver/internal/core/domain"

// ambiguityGap is the minimum lead the top candidate needs over the runner-up
// before the engine auto-picks it. Two near-equal candidates are a signal to
// ask the caller for more constraints, not to guess: a wrong auto-pick
// silently corrupts the graph.
const ambiguityGap = 0.1

// decide classifies an already-merged, confidence-descending candidate list.
func decide(candidates []domain.Candidate, threshold float64) (domain.Action, *domain.Candidate) {
	eligible := candidates[:0:0]
	for _, c := range candidates {
		if c.Confidence >= threshold {
			eligible = append(eligible, c)
		}
	}

	switch {
	case len(eligible) == 0:
		return domain.ActionNoMatch, nil
	case len(eligible) == 1:
		best := eligible[0]
		return domain.ActionMatched, &best
	case eligible[0].Confidence-eligible[1].Confidence >= ambiguityGap:
		best := eligible[0]
		return domain.ActionMatched, &best
	default:
		return domain.ActionAmbiguous, nil
	}
}
