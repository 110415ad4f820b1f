package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cosmic-Tiger-AU/tigercache/document"
)

func TestDocumentFieldsRoundTrip(t *testing.T) {
	doc := document.New("doc1").
		WithText("title", "Apple iPhone").
		WithInt("stock", 42).
		WithFloat("price", 999.99).
		WithBool("available", true)

	v, ok := doc.Get("title")
	require.True(t, ok)
	s, isText := v.AsText()
	require.True(t, isText)
	assert.Equal(t, "Apple iPhone", s)

	v, ok = doc.Get("stock")
	require.True(t, ok)
	i, isInt := v.AsInt()
	require.True(t, isInt)
	assert.EqualValues(t, 42, i)

	_, ok = doc.Get("missing")
	assert.False(t, ok)
}

func TestDocumentSetOverwritesInPlace(t *testing.T) {
	doc := document.New("doc1").WithText("title", "first")
	doc.WithText("title", "second")

	assert.Len(t, doc.Fields(), 1)
	v, _ := doc.Get("title")
	s, _ := v.AsText()
	assert.Equal(t, "second", s)
}

func TestDocumentFieldOrderIsInsertionOrder(t *testing.T) {
	doc := document.New("doc1").WithText("b", "1").WithText("a", "2").WithText("c", "3")

	var names []string
	for _, f := range doc.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestDocumentCloneIsIndependent(t *testing.T) {
	doc := document.New("doc1").WithText("title", "original")
	clone := doc.Clone()
	doc.WithText("title", "mutated")

	v, _ := clone.Get("title")
	s, _ := v.AsText()
	assert.Equal(t, "original", s)
}

func TestDocumentBinaryRoundTrip(t *testing.T) {
	doc := document.New("doc-42").
		WithText("title", "Banana bread").
		WithInt("year", -7).
		WithFloat("rating", 4.5).
		WithBool("inStock", false)

	data, err := doc.MarshalBinary()
	require.NoError(t, err)

	decoded := &document.Document{}
	require.NoError(t, decoded.UnmarshalBinary(data))

	assert.Equal(t, doc.ID(), decoded.ID())
	assert.Equal(t, doc.Fields(), decoded.Fields())
}

func TestDocumentSizeAccountsForFields(t *testing.T) {
	empty := document.New("x")
	withField := document.New("x").WithText("title", "hello")
	assert.Greater(t, withField.Size(), empty.Size())
}
