package domain

// MatchType names the strategy that produced a candidate.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchFuzzy    MatchType = "fuzzy"
	MatchSemantic MatchType = "semantic"
)

// MatchDetails carries the strategy-specific diagnostic for a candidate.
// Exactly one field is set, keyed by the candidate's MatchType: EditDistance
// for fuzzy, Similarity for semantic, neither for exact. It exists for
// transparency only; the decision policy never reads it.
type MatchDetails struct {
	EditDistance *int     `json:"edit_distance,omitempty"`
	Similarity   *float64 `json:"similarity,omitempty"`
}

// Candidate is one node proposed as a possible match for a query.
type Candidate struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Tags       []string     `json:"tags,omitempty"`
	Confidence float64      `json:"confidence"`
	MatchType  MatchType    `json:"match_type"`
	Details    MatchDetails `json:"match_details,omitempty"`
}

// HasTag reports whether the candidate carries the given tag.
func (c Candidate) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
