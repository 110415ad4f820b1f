package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cosmic-Tiger-AU/tigercache/analyzer"
	"github.com/Cosmic-Tiger-AU/tigercache/document"
)

func TestTokensOfSplitsOnNonAlnum(t *testing.T) {
	assert.Equal(t, []string{"apple", "iphone"}, analyzer.TokensOf("Apple, iPhone!"))
	assert.Equal(t, []string{"hello", "world"}, analyzer.TokensOf("  hello-world  "))
	assert.Empty(t, analyzer.TokensOf("   ... !!! "))
}

func TestTokensOfLowercasesAndFolds(t *testing.T) {
	assert.Equal(t, []string{"café"}, analyzer.TokensOf("CAFÉ"))
}

func TestTrigramsOfLengthInvariant(t *testing.T) {
	for _, tok := range []string{"a", "ab", "abc", "apple", "x"} {
		grams := analyzer.TrigramsOf(tok)
		assert.Len(t, grams, len([]rune(tok))+1, "token %q", tok)
	}
}

func TestTrigramsOfEmptyToken(t *testing.T) {
	assert.Empty(t, analyzer.TrigramsOf(""))
}

func TestTokensOfDocumentIgnoresNonTextFields(t *testing.T) {
	doc := document.New("1").
		WithText("title", "Apple iPhone").
		WithInt("stock", 5).
		WithText("desc", "latest smartphone")

	tokens := analyzer.TokensOfDocument(doc)
	assert.Equal(t, []string{"apple", "iphone", "latest", "smartphone"}, tokens)
}

func TestNormalizeTrimsPunctuation(t *testing.T) {
	assert.Equal(t, "hello world", analyzer.Normalize(" (hello world)! "))
}
