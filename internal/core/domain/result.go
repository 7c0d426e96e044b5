package domain

// Action is the outcome class of a resolution.
type Action string

const (
	// ActionMatched means exactly one candidate cleared the threshold with a
	// clear margin; BestMatch is set.
	ActionMatched Action = "matched"

	// ActionAmbiguous means two or more candidates cleared the threshold
	// without a clear winner. The caller should narrow the query (tag filter,
	// exact mode) instead of guessing.
	ActionAmbiguous Action = "ambiguous"

	// ActionNoMatch means no candidate cleared the threshold.
	ActionNoMatch Action = "no_match"
)

// ResolutionResult is the complete outcome of one Resolve call. Ambiguity and
// no-match are normal, frequent outcomes, not errors.
type ResolutionResult struct {
	Query           string `json:"query"`
	NormalizedQuery string `json:"normalized_query"`

	// Candidates is deduplicated by node id, sorted by confidence descending,
	// and capped at the query limit.
	Candidates []Candidate `json:"candidates"`

	// BestMatch is non-nil iff Action == ActionMatched.
	BestMatch *Candidate `json:"best_match,omitempty"`

	Action Action `json:"action"`

	// EmbeddingsAvailable reports whether the semantic source was reachable
	// during this call. False means results came from exact/fuzzy only.
	EmbeddingsAvailable bool `json:"embeddings_available"`
}
