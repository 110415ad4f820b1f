// Package document defines the typed field bag that Tiger Cache indexes and
// returns from queries.
//
// A Document is a value object from the caller's perspective: once handed to
// an index via Add, the index owns its own copy (see Document.Clone) and the
// caller's instance can be mutated or discarded freely.
package document
