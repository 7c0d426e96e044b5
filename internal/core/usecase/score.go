package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
)

// Calibrated scoring constants. The boosts and caps were tuned against the
// live graph; changing them shifts the matched/ambiguous boundary for every
// caller.
const (
	// strategyCap keeps fuzzy and semantic confidence strictly below the
	// exact-match 1.0, so an edit distance of 0 is still distinguishable
	// from true equality.
	strategyCap = 0.95

	tagMatchBoost   = 0.10
	entityFlagBoost = 0.05

	// semanticNoiseFloor discards cosine similarity below 0.5 as noise; the
	// band [0.5, 1.0] maps linearly onto [0, strategyCap].
	semanticNoiseFloor = 0.5
	semanticScale      = 1.9
)

func exactCandidate(node domain.Node) domain.Candidate {
	return domain.Candidate{
		ID:         node.ID,
		Name:       node.Name,
		Tags:       node.Tags,
		Confidence: 1.0,
		MatchType:  domain.MatchExact,
	}
}

// fuzzyCandidate scores a full-text hit against the query. The second return
// is false when the candidate scores zero and should be dropped.
func fuzzyCandidate(query string, hit domain.FuzzyHit, tagFilter string) (domain.Candidate, bool) {
	confidence, distance := fuzzyBase(query, hit.Name)

	if tagFilter != "" && hit.HasTag(tagFilter) {
		confidence += tagMatchBoost
	}
	if hit.IsEntity {
		confidence += entityFlagBoost
	}
	if confidence > strategyCap {
		confidence = strategyCap
	}
	if confidence <= 0 {
		return domain.Candidate{}, false
	}

	return domain.Candidate{
		ID:         hit.ID,
		Name:       hit.Name,
		Tags:       hit.Tags,
		Confidence: confidence,
		MatchType:  domain.MatchFuzzy,
		Details:    domain.MatchDetails{EditDistance: &distance},
	}, true
}

// fuzzyBase returns 1 - d/maxLen over the lowercased strings, plus the edit
// distance itself for diagnostics.
func fuzzyBase(query, name string) (float64, int) {
	q := strings.ToLower(query)
	n := strings.ToLower(name)

	maxLen := utf8.RuneCountInString(q)
	if l := utf8.RuneCountInString(n); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0, 0
	}

	distance := levenshtein.ComputeDistance(q, n)
	return 1.0 - float64(distance)/float64(maxLen), distance
}

// semanticCandidate maps a raw cosine similarity onto a confidence. The
// second return is false when the hit falls below the noise floor.
func semanticCandidate(hit domain.SemanticHit) (domain.Candidate, bool) {
	confidence := semanticConfidence(hit.Similarity)
	if confidence <= 0 {
		return domain.Candidate{}, false
	}

	similarity := hit.Similarity
	return domain.Candidate{
		ID:         hit.ID,
		Name:       hit.Name,
		Tags:       hit.Tags,
		Confidence: confidence,
		MatchType:  domain.MatchSemantic,
		Details:    domain.MatchDetails{Similarity: &similarity},
	}, true
}

func semanticConfidence(similarity float64) float64 {
	if similarity < semanticNoiseFloor {
		return 0
	}
	confidence := (similarity - semanticNoiseFloor) * semanticScale
	if confidence > strategyCap {
		confidence = strategyCap
	}
	return confidence
}
