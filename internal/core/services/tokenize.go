package services

import (
	"strings"
	"unicode"
)

// stopwords are query words that carry no retrieval signal.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"for": {}, "with": {}, "in": {}, "on": {}, "by": {}, "at": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"what": {}, "why": {}, "how": {}, "who": {}, "when": {}, "where": {},
	"which": {}, "that": {}, "this": {}, "these": {}, "those": {},
}

// NormaliseQuery collapses whitespace and lowercases a query, producing
// the canonical cache key for candidate memoisation.
func NormaliseQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// Tokenize splits a query into lowercased word/number tokens, dropping
// stopwords and tokens shorter than three characters.
func Tokenize(query string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := b.String()
		b.Reset()
		if len(tok) < 3 {
			return
		}
		if _, stop := stopwords[tok]; stop {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// PrefixCandidates composes suggestion prefixes from query tokens:
// single tokens, adjacent-token bigrams, and the last token (often the
// key term), deduplicated in first-seen order.
func PrefixCandidates(tokens []string) []string {
	var cands []string
	seen := make(map[string]struct{})
	add := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		cands = append(cands, c)
	}
	for _, t := range tokens {
		add(t)
	}
	for i := 0; i+1 < len(tokens); i++ {
		add(tokens[i] + " " + tokens[i+1])
	}
	if len(tokens) > 0 {
		add(tokens[len(tokens)-1])
	}
	return cands
}

// EstimateTokens approximates the token count of s by word count.
func EstimateTokens(s string) int {
	n := len(strings.Fields(s))
	if n == 0 {
		return 1
	}
	return n
}
