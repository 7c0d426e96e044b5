package usecase

import "strings"

// nameVariants returns alternate surface forms of a name so that one logical
// entity is found regardless of which form the query or the stored name uses.
// The input itself is always first; duplicates are dropped preserving first
// occurrence.
//
// "Last, First" gains "First Last"; a plain two-word name gains the reversed
// comma form. Names of three or more words without a comma gain nothing:
// which tokens are given vs. family name is ambiguous, and guessing would do
// more harm than the missed variant.
func nameVariants(name string) []string {
	out := []string{name}
	seen := map[string]struct{}{name: {}}
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	switch strings.Count(name, ",") {
	case 1:
		parts := strings.SplitN(name, ",", 2)
		last := strings.TrimSpace(parts[0])
		first := strings.TrimSpace(parts[1])
		if last != "" && first != "" {
			add(first + " " + last)
		}
	case 0:
		words := strings.Fields(name)
		if len(words) == 2 {
			add(words[1] + ", " + words[0])
		}
	}

	return out
}
