// Package analyzer implements the pure, stateless text analysis pipeline
// shared by index maintenance and query processing: normalization,
// tokenization, and trigram windowing.
//
// Keeping analysis pure makes index maintenance and query processing
// symmetric and testable in isolation (spec rationale, §4.1).
package analyzer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/Cosmic-Tiger-AU/tigercache/document"
)

// sentinel pads a token before trigram windowing. It is chosen outside the
// alphabet of normalized tokens (tokens never contain control characters).
const sentinel = rune(0x0002)

var fold = cases.Fold()

// Normalize lowercases text, applies Unicode NFKC-equivalent folding, and
// strips leading/trailing punctuation. It does not split into tokens; use
// TokensOf for that. Normalize is exported separately so the index and the
// search engine can fingerprint queries/tokens identically (needed for the
// query cache's fingerprint).
func Normalize(text string) string {
	folded := fold.String(norm.NFKC.String(text))
	return strings.TrimFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TokensOf normalizes text then splits it on any run of characters that is
// neither a Unicode letter nor a digit. Empty tokens are discarded.
// Normalized tokens are compared bytewise. Duplicates are retained so
// callers can compute term frequency if needed; order is preserved.
func TokensOf(text string) []string {
	folded := fold.String(norm.NFKC.String(text))

	var tokens []string
	start := -1
	for i, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			tokens = append(tokens, folded[start:i])
			start = -1
		}
	}
	if start != -1 {
		tokens = append(tokens, folded[start:])
	}
	return tokens
}

// TrigramsOf returns the padded three-code-point windows of a normalized
// token. The token is padded with the sentinel twice at the start and once
// at the end before windowing, which is exactly the scheme that yields L+1
// trigrams for a token of length L code points. Tokens shorter than one
// code point yield no trigrams.
func TrigramsOf(token string) []string {
	runes := []rune(token)
	if len(runes) == 0 {
		return nil
	}

	padded := make([]rune, 0, len(runes)+3)
	padded = append(padded, sentinel, sentinel)
	padded = append(padded, runes...)
	padded = append(padded, sentinel)

	trigrams := make([]string, 0, len(padded)-2)
	for i := 0; i+3 <= len(padded); i++ {
		trigrams = append(trigrams, string(padded[i:i+3]))
	}
	return trigrams
}

// TokensOfDocument concatenates the tokens of every text field in a
// document; non-text fields are ignored for indexing purposes. Field
// iteration order is the document's insertion order, but since tokens are
// only ever used as a multiset for indexing, that order carries no
// indexing or search semantics.
func TokensOfDocument(doc *document.Document) []string {
	var tokens []string
	for _, f := range doc.Fields() {
		text, ok := f.Value.AsText()
		if !ok {
			continue
		}
		tokens = append(tokens, TokensOf(text)...)
	}
	return tokens
}
