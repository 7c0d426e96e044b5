package domain

const (
	// DefaultThreshold is the confidence a candidate must reach before the
	// decision policy considers it at all.
	DefaultThreshold = 0.85

	// DefaultLimit caps the candidate list returned to callers.
	DefaultLimit = 5
)

// Query is one resolution request. It is built once per Resolve call and
// never mutated.
type Query struct {
	// Text is the raw, un-normalized name the caller is asking about.
	Text string `json:"text"`

	// Tag restricts matching to nodes carrying this tag. Optional.
	Tag string `json:"tag,omitempty"`

	// Threshold is the minimum confidence for the decision policy.
	// Zero or negative means DefaultThreshold.
	Threshold float64 `json:"threshold,omitempty"`

	// Limit caps the returned candidate list. Zero or negative means
	// DefaultLimit.
	Limit int `json:"limit,omitempty"`

	// ExactOnly skips the fuzzy and semantic strategies.
	ExactOnly bool `json:"exact,omitempty"`

	// Scope restricts matching to one index scope. Optional; empty means
	// the default scope.
	Scope string `json:"scope,omitempty"`
}

// EffectiveThreshold applies the default when the caller left the field unset.
func (q Query) EffectiveThreshold() float64 {
	if q.Threshold <= 0 {
		return DefaultThreshold
	}
	return q.Threshold
}

// EffectiveLimit applies the default when the caller left the field unset or
// passed a non-positive value.
func (q Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}
