package search

import "github.com/Cosmic-Tiger-AU/tigercache/errs"

// Options governs candidate admission and result shaping for a single
// Search call, per spec §4.6.
type Options struct {
	// MaxDistance is the maximum Levenshtein edit distance a candidate
	// token may have from a query token to be admitted. Clamped to
	// [0, 3]; 0 forces exact matching.
	MaxDistance int
	// ScoreThreshold discards results scoring below it. Clamped to
	// [0.0, 1.0].
	ScoreThreshold float64
	// Limit caps the number of returned results. Must be at least 1; an
	// explicitly supplied Options with Limit 0 is an invalid argument.
	Limit int
}

// DefaultOptions returns the options Search uses when called with a nil
// *Options: MaxDistance 2, ScoreThreshold 0.0, Limit 10.
func DefaultOptions() Options {
	return Options{MaxDistance: 2, ScoreThreshold: 0.0, Limit: 10}
}

// resolve returns opts with defaults and clamps applied. A nil opts
// yields DefaultOptions(). A non-nil opts with Limit 0 is rejected: the
// caller asked for zero results explicitly, which spec §4.6 treats as an
// invalid argument rather than "use the default."
func (o *Options) resolve() (Options, error) {
	if o == nil {
		return DefaultOptions(), nil
	}
	resolved := *o
	if resolved.Limit < 1 {
		return Options{}, errs.ErrInvalidArgument
	}
	if resolved.MaxDistance < 0 {
		resolved.MaxDistance = 0
	}
	if resolved.MaxDistance > 3 {
		resolved.MaxDistance = 3
	}
	if resolved.ScoreThreshold < 0 {
		resolved.ScoreThreshold = 0
	}
	if resolved.ScoreThreshold > 1 {
		resolved.ScoreThreshold = 1
	}
	return resolved, nil
}
