package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
)

type exactFake struct {
	mu      sync.Mutex
	queries []string
	nodes   map[string][]domain.Node
	err     error
}

func (f *exactFake) LookupExact(_ context.Context, name, tag, _ string) ([]domain.Node, error) {
	f.mu.Lock()
	f.queries = append(f.queries, name)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	nodes := f.nodes[name]
	if tag == "" {
		return nodes, nil
	}
	var out []domain.Node
	for _, n := range nodes {
		if n.HasTag(tag) {
			out = append(out, n)
		}
	}
	return out, nil
}

type fuzzyFake struct {
	mu      sync.Mutex
	queries []string
	hits    []domain.FuzzyHit
	err     error
}

func (f *fuzzyFake) SearchFuzzy(_ context.Context, query, _, _ string, _ int) ([]domain.FuzzyHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type semanticFake struct {
	mu     sync.Mutex
	calls  int
	hits   []domain.SemanticHit
	err    error
}

func (f *semanticFake) SearchSemantic(_ context.Context, _, _ string, _ int) ([]domain.SemanticHit, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func newResolver(exact *exactFake, fuzzy *fuzzyFake, semantic *semanticFake) *ResolveUseCase {
	return NewResolveUseCase(exact, fuzzy, semantic, nil)
}

func TestResolveShortQueryGuard(t *testing.T) {
	exact := &exactFake{}
	fuzzy := &fuzzyFake{}
	semantic := &semanticFake{}
	uc := newResolver(exact, fuzzy, semantic)

	result := uc.Resolve(context.Background(), domain.Query{Text: "ab"})

	if result.Action != domain.ActionNoMatch {
		t.Fatalf("action = %s, want no_match", result.Action)
	}
	if len(result.Candidates) != 0 {
		t.Fatalf("candidates must be empty, got %d", len(result.Candidates))
	}
	if result.EmbeddingsAvailable {
		t.Fatalf("embeddings must be reported unavailable on short-circuit")
	}
	if len(exact.queries) != 0 || len(fuzzy.queries) != 0 || semantic.calls != 0 {
		t.Fatalf("no source may be queried on short-circuit")
	}
}

func TestResolveShortQueryProceedsWithTag(t *testing.T) {
	exact := &exactFake{nodes: map[string][]domain.Node{
		"ab": {{ID: "n1", Name: "ab", Tags: []string{"person"}}},
	}}
	uc := newResolver(exact, &fuzzyFake{}, &semanticFake{})

	result := uc.Resolve(context.Background(), domain.Query{Text: "ab", Tag: "person"})

	if len(exact.queries) == 0 {
		t.Fatalf("tagged short query must reach the sources")
	}
	if result.Action != domain.ActionMatched {
		t.Fatalf("action = %s, want matched", result.Action)
	}
}

func TestResolveShortQueryProceedsInExactMode(t *testing.T) {
	exact := &exactFake{}
	fuzzy := &fuzzyFake{}
	semantic := &semanticFake{}
	uc := newResolver(exact, fuzzy, semantic)

	uc.Resolve(context.Background(), domain.Query{Text: "ab", ExactOnly: true})

	if len(exact.queries) == 0 {
		t.Fatalf("exact mode must lift the short-query guard")
	}
	if len(fuzzy.queries) != 0 || semantic.calls != 0 {
		t.Fatalf("exact mode must skip fuzzy and semantic sources")
	}
}

func TestResolveQueriesEveryVariant(t *testing.T) {
	exact := &exactFake{}
	uc := newResolver(exact, &fuzzyFake{}, &semanticFake{})

	uc.Resolve(context.Background(), domain.Query{Text: "Smith, John"})

	seen := map[string]bool{}
	for _, q := range exact.queries {
		seen[q] = true
	}
	if !seen["smith, john"] || !seen["john smith"] {
		t.Fatalf("expected both variants queried, got %v", exact.queries)
	}
}

func TestResolveVariantReversalFindsStoredName(t *testing.T) {
	exact := &exactFake{nodes: map[string][]domain.Node{
		"john smith": {{ID: "n1", Name: "John Smith"}},
	}}
	uc := newResolver(exact, &fuzzyFake{}, &semanticFake{})

	result := uc.Resolve(context.Background(), domain.Query{Text: "Smith, John"})

	if result.Action != domain.ActionMatched {
		t.Fatalf("action = %s, want matched", result.Action)
	}
	if result.BestMatch == nil || result.BestMatch.ID != "n1" {
		t.Fatalf("best match = %+v, want n1", result.BestMatch)
	}
}

func TestResolveSemanticFailureDegrades(t *testing.T) {
	exact := &exactFake{nodes: map[string][]domain.Node{
		"daniel miessler": {{ID: "n1", Name: "Daniel Miessler"}},
	}}
	semantic := &semanticFake{err: domain.ErrSemanticUnavailable}
	uc := newResolver(exact, &fuzzyFake{}, semantic)

	result := uc.Resolve(context.Background(), domain.Query{Text: "Daniel Miessler"})

	if result.EmbeddingsAvailable {
		t.Fatalf("embeddings must be reported unavailable")
	}
	if result.Action != domain.ActionMatched {
		t.Fatalf("exact result must survive semantic failure, got %s", result.Action)
	}
	if result.BestMatch == nil || result.BestMatch.Confidence != 1.0 {
		t.Fatalf("best match = %+v, want exact 1.0 candidate", result.BestMatch)
	}
}

func TestResolveUnexpectedSemanticErrorAlsoDegrades(t *testing.T) {
	semantic := &semanticFake{err: errors.New("connection refused")}
	uc := newResolver(&exactFake{}, &fuzzyFake{}, semantic)

	result := uc.Resolve(context.Background(), domain.Query{Text: "Daniel Miessler"})

	if result.EmbeddingsAvailable {
		t.Fatalf("embeddings must be reported unavailable")
	}
	if result.Action != domain.ActionNoMatch {
		t.Fatalf("action = %s, want no_match", result.Action)
	}
}

func TestResolveFuzzyFailureIsInvisible(t *testing.T) {
	exact := &exactFake{nodes: map[string][]domain.Node{
		"daniel miessler": {{ID: "n1", Name: "Daniel Miessler"}},
	}}
	fuzzy := &fuzzyFake{err: errors.New("index rebuilding")}
	semantic := &semanticFake{}
	uc := newResolver(exact, fuzzy, semantic)

	result := uc.Resolve(context.Background(), domain.Query{Text: "Daniel Miessler"})

	if result.Action != domain.ActionMatched {
		t.Fatalf("fuzzy failure must not abort resolution, got %s", result.Action)
	}
	if !result.EmbeddingsAvailable {
		t.Fatalf("semantic succeeded, embeddings must be available")
	}
}

func TestResolveAmbiguousTwinsDisambiguatedByTag(t *testing.T) {
	twins := []domain.Node{
		{ID: "p1", Name: "Daniel Miessler", Tags: []string{"person"}},
		{ID: "p2", Name: "Daniel Miessler", Tags: []string{"project"}},
	}
	exact := &exactFake{nodes: map[string][]domain.Node{
		"daniel miessler": twins,
		"miessler, daniel": nil,
	}}
	uc := newResolver(exact, &fuzzyFake{}, &semanticFake{})

	both := uc.Resolve(context.Background(), domain.Query{Text: "Daniel Miessler"})
	if both.Action != domain.ActionAmbiguous {
		t.Fatalf("two 1.0 twins must be ambiguous, got %s", both.Action)
	}
	if both.BestMatch != nil {
		t.Fatalf("ambiguous result must have nil best match")
	}

	tagged := uc.Resolve(context.Background(), domain.Query{Text: "Daniel Miessler", Tag: "person"})
	if tagged.Action != domain.ActionMatched {
		t.Fatalf("tag filter must disambiguate, got %s", tagged.Action)
	}
	if tagged.BestMatch == nil || tagged.BestMatch.ID != "p1" {
		t.Fatalf("best match = %+v, want p1", tagged.BestMatch)
	}
}

func TestResolveMergesAcrossStrategies(t *testing.T) {
	exact := &exactFake{nodes: map[string][]domain.Node{
		"daniel miessler": {{ID: "n1", Name: "Daniel Miessler"}},
	}}
	fuzzy := &fuzzyFake{hits: []domain.FuzzyHit{
		{Node: domain.Node{ID: "n1", Name: "Daniel Miessler"}},
		{Node: domain.Node{ID: "n2", Name: "Daniela Miessler"}},
	}}
	semantic := &semanticFake{hits: []domain.SemanticHit{
		{Node: domain.Node{ID: "n1", Name: "Daniel Miessler"}, Similarity: 0.97},
	}}
	uc := newResolver(exact, fuzzy, semantic)

	result := uc.Resolve(context.Background(), domain.Query{Text: "Daniel Miessler"})

	ids := map[string]domain.Candidate{}
	for _, c := range result.Candidates {
		if _, dup := ids[c.ID]; dup {
			t.Fatalf("duplicate id %s in merged candidates", c.ID)
		}
		ids[c.ID] = c
	}
	n1, ok := ids["n1"]
	if !ok {
		t.Fatalf("n1 missing from candidates")
	}
	if n1.Confidence != 1.0 || n1.MatchType != domain.MatchExact {
		t.Fatalf("n1 must keep the exact 1.0 entry, got %v/%s", n1.Confidence, n1.MatchType)
	}
	if result.Action != domain.ActionMatched {
		t.Fatalf("clear winner expected, got %s", result.Action)
	}
}

func TestResolveRespectsLimit(t *testing.T) {
	hits := make([]domain.FuzzyHit, 0, 8)
	names := []string{"daniel a", "daniel b", "daniel c", "daniel d", "daniel e", "daniel f", "daniel g", "daniel h"}
	for i, n := range names {
		hits = append(hits, domain.FuzzyHit{Node: domain.Node{ID: string(rune('a' + i)), Name: n}})
	}
	uc := newResolver(&exactFake{}, &fuzzyFake{hits: hits}, &semanticFake{})

	result := uc.Resolve(context.Background(), domain.Query{Text: "daniel x", Limit: 3})
	if len(result.Candidates) > 3 {
		t.Fatalf("limit 3 violated: %d candidates", len(result.Candidates))
	}

	defaulted := uc.Resolve(context.Background(), domain.Query{Text: "daniel x", Limit: -7})
	if len(defaulted.Candidates) > domain.DefaultLimit {
		t.Fatalf("negative limit must clamp to default, got %d", len(defaulted.Candidates))
	}
}

func TestResolveEscapesFuzzyQuery(t *testing.T) {
	fuzzy := &fuzzyFake{}
	uc := newResolver(&exactFake{}, fuzzy, &semanticFake{})

	uc.Resolve(context.Background(), domain.Query{Text: "Mary-Jane Watson"})

	if len(fuzzy.queries) == 0 {
		t.Fatalf("fuzzy source not queried")
	}
	if fuzzy.queries[0] != `"mary-jane watson"` {
		t.Fatalf("hyphenated term must be quoted, got %q", fuzzy.queries[0])
	}
}

func TestResolveNeverPanicsOnEmptyInput(t *testing.T) {
	uc := newResolver(&exactFake{}, &fuzzyFake{}, &semanticFake{})
	result := uc.Resolve(context.Background(), domain.Query{})
	if result.Action != domain.ActionNoMatch {
		t.Fatalf("empty query must be no_match, got %s", result.Action)
	}
}
