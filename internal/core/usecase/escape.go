package usecase

import "strings"

// fulltextReserved are the characters Lucene-style query parsers treat as
// operators. The set is deliberately broad; over-quoting a term is harmless,
// under-quoting reinterprets a user's literal name as query syntax.
const fulltextReserved = `+-!(){}[]^"~*?:\/&|`

// escapeFulltext protects a literal term from the full-text backend's query
// parser: when the term contains a reserved character or a reserved keyword
// token, it is wrapped in quotes with internal quotes doubled. Plain terms
// pass through untouched.
func escapeFulltext(term string) string {
	if term == "" {
		return term
	}
	if !strings.ContainsAny(term, fulltextReserved) && !containsReservedToken(term) {
		return term
	}
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

func containsReservedToken(term string) bool {
	for _, field := range strings.Fields(term) {
		switch strings.ToUpper(field) {
		case "AND", "OR", "NOT":
			return true
		}
	}
	return false
}
