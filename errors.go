package tigercache

import "github.com/Cosmic-Tiger-AU/tigercache/errs"

// Public error kinds, per spec §7. Every internal package already
// returns these sentinels (or a typed wrapper satisfying errors.Is
// against one), so the facade re-exports them rather than translating —
// there is only one error vocabulary in this library, unlike the
// teacher's vecgo/engine/index split that translateError unifies.
var (
	ErrNotFound        = errs.ErrNotFound
	ErrDuplicateID     = errs.ErrDuplicateID
	ErrSerialization   = errs.ErrSerialization
	ErrInvalidArgument = errs.ErrInvalidArgument
	ErrCorruption      = errs.ErrCorruption
	ErrBackend         = errs.ErrBackend
	ErrIO              = errs.ErrIO
)
