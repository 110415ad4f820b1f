package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config bounds the shared resources cache.Manager's caches draw on.
type Config struct {
	// MemoryLimitBytes is the hard ceiling on aggregate cached bytes across
	// every cache a Controller backs. Zero means usage is tracked but never
	// denied. cache.NewManager passes its budget here when called with
	// maxMemory == 0, so a Manager's controller is zero only when its
	// budget is too.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec throttles snapshot.Save/Load through
	// RateLimitedWriter/Reader. Zero means unthrottled.
	IOLimitBytesPerSec int64
}

// Controller is the single accounting point a cache.Manager's three LRUs
// share so their combined footprint, not each cache's own capacity, is what
// a hard memory limit is enforced against. One Controller instance backs
// every cache in a Manager.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil when MemoryLimitBytes is 0 (tracking only)
	memUsed atomic.Int64

	ioLimiter *rate.Limiter // nil when IOLimitBytesPerSec is 0
}

// NewController builds a Controller from cfg. A nil *Controller is valid
// everywhere a Controller is accepted and behaves as unlimited/untracked,
// so callers that construct a cache.Manager without a budget need no
// special-casing.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes, blocking until the hard limit has room or
// ctx is canceled. Nothing in this library currently calls the blocking
// form over TryAcquireMemory, since cache admission runs under a lock held
// by internal/cache.LRU.Set and can't afford to block there; it stays
// exported for a caller willing to wait out transient pressure instead of
// failing admission outright.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}
	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves bytes without blocking, reporting whether the
// hard limit had room. This is what internal/cache.LRU.Set calls on every
// admission, since it holds the LRU's own lock and must fail fast rather
// than wait out memory pressure.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory gives back bytes previously reserved by AcquireMemory or
// TryAcquireMemory. Called on every eviction and on overwrite of a
// cache entry with a smaller value.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage reports the aggregate bytes currently reserved, which is what
// cache.Manager.CurrentTier compares against its pressure-tier thresholds.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireIO blocks until bytes worth of IO budget is available, or ctx is
// canceled. RateLimitedWriter and RateLimitedReader call this once per
// underlying Write/Read so a snapshot save or load can't starve other disk
// users sharing the same Controller.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}
