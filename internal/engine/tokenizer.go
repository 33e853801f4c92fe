package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// caseFolder performs default Unicode case folding. Sharing one
// cases.Caser across calls avoids re-resolving the language tag on every
// tokenize call; cases.Caser is safe for concurrent use.
var caseFolder = cases.Fold()

// Tokenize splits s into a sequence of tokens: lower-case using default
// Unicode case folding, then split on maximal runs of characters that
// are neither a Unicode letter nor a Unicode digit. Empty tokens are
// discarded. Deterministic and stateless; the same function analyzes
// both indexed text and query text, so indexing and querying always
// agree on what a "token" is (spec.md §4.1).
//
// No stemming, no stop-words, no accent folding: tokenization is the
// only text transform this engine performs.
func Tokenize(s string) []string {
	folded := caseFolder.String(s)

	var tokens []string
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
