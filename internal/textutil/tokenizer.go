// Package textutil provides the text normalization shared by ingestion and
// query handling: tokenization, stop-word filtering, and the extra
// length-based filter applied to query terms.
package textutil

import "strings"

// Tokenize replaces every character outside [A-Za-z] and whitespace with a
// space, lowercases ASCII letters, and splits on whitespace runs. Empty
// tokens are dropped. The result is idempotent: Tokenize(strings.Join(out,
// " ")) reproduces out.
func Tokenize(text string) []string {
	buf := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'A' && c <= 'Z':
			buf[i] = c - 'A' + 'a'
		case c >= 'a' && c <= 'z':
			buf[i] = c
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			buf[i] = c
		default:
			buf[i] = ' '
		}
	}
	fields := strings.Fields(string(buf))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// stopWords is a fixed set of common English function words. It is applied
// identically at ingest time and query time so lexicon terms and query
// terms are always drawn from the same vocabulary.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "does": {}, "not": {}, "no": {}, "so": {}, "can": {},
	"than": {}, "then": {}, "them": {}, "these": {}, "those": {},
	"we": {}, "you": {}, "your": {}, "our": {}, "i": {}, "all": {},
	"any": {}, "into": {}, "such": {}, "also": {}, "may": {},
}

// IsStopWord reports whether t is a member of the fixed stop-word set.
func IsStopWord(t string) bool {
	_, ok := stopWords[t]
	return ok
}

// FilterStopWords drops stop-words from tokens, preserving order. It is
// idempotent and commutes with a further call to Tokenize on the joined
// result, since stop-words contain no characters Tokenize would alter.
func FilterStopWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !IsStopWord(t) {
			out = append(out, t)
		}
	}
	return out
}

// QueryTerms tokenizes text the same way ingestion does, then applies the
// stop-word filter and the query-side minimum-length-2 filter.
func QueryTerms(text string) []string {
	tokens := FilterStopWords(Tokenize(text))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) >= 2 {
			out = append(out, t)
		}
	}
	return out
}
