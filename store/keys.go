package store

// Key layout (spec §4.3):
//
//	d/<doc_id>  -> serialized document
//	p/<token>   -> sorted list of document ids (posting)
//	t/<trigram> -> sorted list of tokens
//	m/header    -> schema-version, item counts

const (
	docPrefix     = "d/"
	postingPrefix = "p/"
	trigramPrefix = "t/"
)

// HeaderKey is the fixed key under which the index's schema-version and
// item-count header is stored.
var HeaderKey = []byte("m/header")

// DocKey returns the storage key for a document id.
func DocKey(id string) []byte { return append([]byte(docPrefix), id...) }

// PostingKey returns the storage key for a token's posting list.
func PostingKey(token string) []byte { return append([]byte(postingPrefix), token...) }

// TrigramKey returns the storage key for a trigram's token set.
func TrigramKey(trigram string) []byte { return append([]byte(trigramPrefix), trigram...) }

// DocPrefix returns the byte prefix common to every document key.
func DocPrefix() []byte { return []byte(docPrefix) }

// PostingPrefix returns the byte prefix common to every posting key.
func PostingPrefix() []byte { return []byte(postingPrefix) }

// TrigramPrefix returns the byte prefix common to every trigram key.
func TrigramPrefix() []byte { return []byte(trigramPrefix) }

// DocIDFromKey strips the document prefix, returning the document id.
func DocIDFromKey(key []byte) string { return string(key[len(docPrefix):]) }

// TokenFromPostingKey strips the posting prefix, returning the token.
func TokenFromPostingKey(key []byte) string { return string(key[len(postingPrefix):]) }

// TrigramFromKey strips the trigram prefix, returning the trigram.
func TrigramFromKey(key []byte) string { return string(key[len(trigramPrefix):]) }
