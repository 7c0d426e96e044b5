package usecase

import (
	"math"
	"testing"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}

func TestExactCandidateConfidenceIsOne(t *testing.T) {
	c := exactCandidate(domain.Node{ID: "n1", Name: "Daniel Miessler", Tags: []string{"person"}})
	if c.Confidence != 1.0 {
		t.Fatalf("exact confidence = %v, want 1.0", c.Confidence)
	}
	if c.MatchType != domain.MatchExact {
		t.Fatalf("match type = %s, want exact", c.MatchType)
	}
	if c.Details.EditDistance != nil || c.Details.Similarity != nil {
		t.Fatalf("exact candidate must carry no diagnostics")
	}
}

func TestFuzzyBaseConcreteDistance(t *testing.T) {
	base, distance := fuzzyBase("daniel", "daneil")
	if distance != 2 {
		t.Fatalf("distance = %d, want 2", distance)
	}
	if !almostEqual(base, 1.0-2.0/6.0) {
		t.Fatalf("base = %v, want %v", base, 1.0-2.0/6.0)
	}
}

func TestFuzzySelfMatchCappedBelowExact(t *testing.T) {
	c, ok := fuzzyCandidate("daniel", domain.FuzzyHit{Node: domain.Node{ID: "n1", Name: "daniel"}}, "")
	if !ok {
		t.Fatalf("expected candidate")
	}
	if c.Confidence != strategyCap {
		t.Fatalf("self-match confidence = %v, want %v", c.Confidence, strategyCap)
	}
	if c.Details.EditDistance == nil || *c.Details.EditDistance != 0 {
		t.Fatalf("expected edit distance 0 diagnostic")
	}
}

func TestFuzzyBoostsNeverReachExactCeiling(t *testing.T) {
	hit := domain.FuzzyHit{
		Node:     domain.Node{ID: "n1", Name: "daniel", Tags: []string{"person"}},
		IsEntity: true,
	}
	c, ok := fuzzyCandidate("daniel", hit, "person")
	if !ok {
		t.Fatalf("expected candidate")
	}
	if c.Confidence != strategyCap {
		t.Fatalf("boosted confidence = %v, must cap at %v", c.Confidence, strategyCap)
	}
}

func TestFuzzyTagBoostAppliesOnlyWithFilter(t *testing.T) {
	hit := domain.FuzzyHit{Node: domain.Node{ID: "n1", Name: "daneil", Tags: []string{"person"}}}

	plain, ok := fuzzyCandidate("daniel", hit, "")
	if !ok {
		t.Fatalf("expected candidate")
	}
	boosted, ok := fuzzyCandidate("daniel", hit, "person")
	if !ok {
		t.Fatalf("expected candidate")
	}
	if !almostEqual(boosted.Confidence-plain.Confidence, tagMatchBoost) {
		t.Fatalf("tag boost = %v, want %v", boosted.Confidence-plain.Confidence, tagMatchBoost)
	}
}

func TestFuzzyEntityFlagBoost(t *testing.T) {
	node := domain.Node{ID: "n1", Name: "daneil"}
	plain, _ := fuzzyCandidate("daniel", domain.FuzzyHit{Node: node}, "")
	flagged, _ := fuzzyCandidate("daniel", domain.FuzzyHit{Node: node, IsEntity: true}, "")
	if !almostEqual(flagged.Confidence-plain.Confidence, entityFlagBoost) {
		t.Fatalf("entity boost = %v, want %v", flagged.Confidence-plain.Confidence, entityFlagBoost)
	}
}

func TestFuzzyHopelessCandidateDropped(t *testing.T) {
	if _, ok := fuzzyCandidate("abcdefghij", domain.FuzzyHit{Node: domain.Node{ID: "n1", Name: "zzzzzzzzzz"}}, ""); ok {
		t.Fatalf("expected zero-confidence candidate to be dropped")
	}
}

func TestFuzzyEmptyStringsScoreZero(t *testing.T) {
	base, distance := fuzzyBase("", "")
	if base != 0 || distance != 0 {
		t.Fatalf("empty inputs: base=%v distance=%d, want 0/0", base, distance)
	}
}

func TestSemanticConfidenceMapping(t *testing.T) {
	cases := []struct {
		similarity float64
		want       float64
	}{
		{0.75, 0.475},
		{0.3, 0},
		{-0.2, 0},
		{0.5, 0},
		{1.0, 0.95},
	}
	for _, tc := range cases {
		if got := semanticConfidence(tc.similarity); !almostEqual(got, tc.want) {
			t.Fatalf("semanticConfidence(%v) = %v, want %v", tc.similarity, got, tc.want)
		}
	}
}

func TestSemanticCandidateBelowFloorDropped(t *testing.T) {
	if _, ok := semanticCandidate(domain.SemanticHit{Node: domain.Node{ID: "n1"}, Similarity: 0.49}); ok {
		t.Fatalf("expected sub-floor similarity to be dropped")
	}
}

func TestSemanticCandidateCarriesSimilarityDiagnostic(t *testing.T) {
	c, ok := semanticCandidate(domain.SemanticHit{Node: domain.Node{ID: "n1", Name: "x"}, Similarity: 0.8})
	if !ok {
		t.Fatalf("expected candidate")
	}
	if c.MatchType != domain.MatchSemantic {
		t.Fatalf("match type = %s, want semantic", c.MatchType)
	}
	if c.Details.Similarity == nil || *c.Details.Similarity != 0.8 {
		t.Fatalf("expected similarity diagnostic 0.8")
	}
}
