package usecase

import (
	"context"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
	"github.com/kirillkom/graph-resolver/internal/core/ports"
)

const (
	// minQueryRunes guards against pathological fuzzy/semantic false
	// positives on very short strings. A tag filter or exact mode narrows
	// the search space enough to lift the guard.
	minQueryRunes = 3

	// sourceCandidateLimit is how many raw candidates each source is asked
	// for per variant, before scoring and merging trim the list.
	sourceCandidateLimit = 20
)

// ResolveUseCase orchestrates one find-or-create resolution: normalize, fan
// out to the exact/fuzzy/semantic sources per name variant, score, merge,
// decide. Stateless; safe for concurrent callers.
type ResolveUseCase struct {
	exact    ports.ExactSource
	fuzzy    ports.FuzzySource
	semantic ports.SemanticSource
	logger   *slog.Logger
}

func NewResolveUseCase(
	exact ports.ExactSource,
	fuzzy ports.FuzzySource,
	semantic ports.SemanticSource,
	logger *slog.Logger,
) *ResolveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveUseCase{
		exact:    exact,
		fuzzy:    fuzzy,
		semantic: semantic,
		logger:   logger,
	}
}

// Resolve never returns an error: no-match and ambiguity are normal outcomes,
// and source failures degrade to empty contributions. Semantic failure on any
// variant marks EmbeddingsAvailable false for the whole call.
func (uc *ResolveUseCase) Resolve(ctx context.Context, query domain.Query) domain.ResolutionResult {
	normalized := domain.NormalizeName(query.Text)
	result := domain.ResolutionResult{
		Query:           query.Text,
		NormalizedQuery: normalized,
		Candidates:      []domain.Candidate{},
		Action:          domain.ActionNoMatch,
	}

	if utf8.RuneCountInString(normalized) < minQueryRunes && !query.ExactOnly && query.Tag == "" {
		return result
	}

	// Variants come from the original text; each is normalized before it
	// reaches a source.
	variants := normalizedVariants(query.Text)

	// One slot per (variant, strategy) keeps collection order fixed no
	// matter how the goroutines interleave, so merge tie-breaking stays
	// deterministic.
	type variantHits struct {
		exact    []domain.Candidate
		fuzzy    []domain.Candidate
		semantic []domain.Candidate
	}
	slots := make([]variantHits, len(variants))

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		semanticUp   bool
		semanticDown bool
	)

	for i, variant := range variants {
		wg.Add(1)
		go func(i int, variant string) {
			defer wg.Done()
			nodes, err := uc.exact.LookupExact(ctx, variant, query.Tag, query.Scope)
			if err != nil {
				uc.logger.Warn("exact_lookup_failed", "variant", variant, "error", err)
				return
			}
			candidates := make([]domain.Candidate, 0, len(nodes))
			for _, node := range nodes {
				candidates = append(candidates, exactCandidate(node))
			}
			slots[i].exact = candidates
		}(i, variant)

		if query.ExactOnly {
			continue
		}

		wg.Add(2)
		go func(i int, variant string) {
			defer wg.Done()
			hits, err := uc.fuzzy.SearchFuzzy(ctx, escapeFulltext(variant), query.Tag, query.Scope, sourceCandidateLimit)
			if err != nil {
				uc.logger.Warn("fuzzy_search_failed", "variant", variant, "error", err)
				return
			}
			candidates := make([]domain.Candidate, 0, len(hits))
			for _, hit := range hits {
				if c, ok := fuzzyCandidate(variant, hit, query.Tag); ok {
					candidates = append(candidates, c)
				}
			}
			slots[i].fuzzy = candidates
		}(i, variant)

		go func(i int, variant string) {
			defer wg.Done()
			hits, err := uc.semantic.SearchSemantic(ctx, variant, query.Scope, sourceCandidateLimit)
			if err != nil {
				mu.Lock()
				semanticDown = true
				mu.Unlock()
				if !domain.IsKind(err, domain.ErrSemanticUnavailable) {
					uc.logger.Warn("semantic_search_failed", "variant", variant, "error", err)
				}
				return
			}
			mu.Lock()
			semanticUp = true
			mu.Unlock()
			candidates := make([]domain.Candidate, 0, len(hits))
			for _, hit := range hits {
				if c, ok := semanticCandidate(hit); ok {
					candidates = append(candidates, c)
				}
			}
			slots[i].semantic = candidates
		}(i, variant)
	}

	wg.Wait()

	var collected []domain.Candidate
	for i := range slots {
		collected = append(collected, slots[i].exact...)
		collected = append(collected, slots[i].fuzzy...)
		collected = append(collected, slots[i].semantic...)
	}

	merged := mergeCandidates(collected, query.EffectiveLimit())
	action, best := decide(merged, query.EffectiveThreshold())

	result.Candidates = merged
	result.BestMatch = best
	result.Action = action
	result.EmbeddingsAvailable = semanticUp && !semanticDown
	return result
}

// normalizedVariants expands the original text into its surface-form variants
// and normalizes each, dropping empties and duplicates.
func normalizedVariants(text string) []string {
	variants := nameVariants(text)
	out := make([]string, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		n := domain.NormalizeName(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
