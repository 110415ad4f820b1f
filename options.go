package tigercache

import (
	"log/slog"

	"github.com/Cosmic-Tiger-AU/tigercache/search"
)

// StorageType selects which embedded KV backend Open instantiates.
type StorageType int

const (
	// StorageMemory is the volatile in-memory backend (OpenMemory always
	// uses this regardless of Config.StorageType).
	StorageMemory StorageType = iota
	// StorageDiskA is the bbolt single-file B+tree backend.
	StorageDiskA
	// StorageDiskB is the Badger LSM-tree backend.
	StorageDiskB
	// StorageDiskC is the Pebble LSM-tree backend.
	StorageDiskC
)

// Config holds every configuration option of an Index. Construct one
// from a preset (Default, Development, Production, LowMemory) and
// override individual fields, or build one purely from Option values
// passed to Open/OpenMemory.
type Config struct {
	// StorageType selects the backend Open instantiates. Ignored by
	// OpenMemory, which always uses an in-memory backend.
	StorageType StorageType
	// StoragePath is the filesystem location of a disk backend: a file
	// for bbolt, a directory for Badger and Pebble. Ignored for
	// StorageMemory.
	StoragePath string
	// CacheSize is the aggregate soft cache budget M in bytes, per
	// spec §4.4.
	CacheSize int64
	// MaxMemory is the hard upper bound the resource controller
	// enforces regardless of pressure tier. Zero means CacheSize is
	// used as the hard bound too.
	MaxMemory int64
	// IOLimitBytesPerSec caps the throughput of snapshot save/load
	// against disk, via resource.Controller. Zero means unlimited.
	IOLimitBytesPerSec int64
	// AutoCommitOnClose commits a non-empty staging layer on Close.
	// Default true.
	AutoCommitOnClose bool
	// StrictDuplicateID makes Add return ErrDuplicateID on re-adding an
	// existing id instead of silently replacing it. Default false.
	StrictDuplicateID bool
	// DefaultSearch is used by Search when called with nil options.
	DefaultSearch search.Options
	// Logger receives structured logs for every operation. Defaults to
	// NoopLogger().
	Logger *Logger
}

// Option configures a Config. Options are applied in order over a
// preset base, mirroring the teacher's functional-options pattern
// (options.go).
type Option func(*Config)

// WithStorageType sets the backend Open instantiates.
func WithStorageType(t StorageType) Option {
	return func(c *Config) { c.StorageType = t }
}

// WithStoragePath sets the filesystem location of a disk backend (a file
// for bbolt, a directory for Badger and Pebble).
func WithStoragePath(path string) Option {
	return func(c *Config) { c.StoragePath = path }
}

// WithCacheSize sets the aggregate soft cache budget in bytes.
func WithCacheSize(bytes int64) Option {
	return func(c *Config) { c.CacheSize = bytes }
}

// WithMaxMemory sets the hard memory upper bound in bytes.
func WithMaxMemory(bytes int64) Option {
	return func(c *Config) { c.MaxMemory = bytes }
}

// WithIOLimit sets the disk IO throughput cap in bytes/sec applied to
// snapshot save/load.
func WithIOLimit(bytesPerSec int64) Option {
	return func(c *Config) { c.IOLimitBytesPerSec = bytesPerSec }
}

// WithAutoCommitOnClose sets whether Close commits a non-empty staging
// layer.
func WithAutoCommitOnClose(enabled bool) Option {
	return func(c *Config) { c.AutoCommitOnClose = enabled }
}

// WithStrictDuplicateID sets strict duplicate-id handling.
func WithStrictDuplicateID(enabled bool) Option {
	return func(c *Config) { c.StrictDuplicateID = enabled }
}

// WithDefaultSearch sets the search options used when Search is called
// with nil options.
func WithDefaultSearch(opts search.Options) Option {
	return func(c *Config) { c.DefaultSearch = opts }
}

// WithLogger sets the logger used for the index's operations. Pass nil
// to disable logging.
func WithLogger(logger *Logger) Option {
	return func(c *Config) {
		if logger == nil {
			logger = NoopLogger()
		}
		c.Logger = logger
	}
}

// Default returns the baseline Config: the bbolt disk backend, a
// moderate cache budget, auto-commit on close, lax duplicate-id
// handling, and a noop logger. Open/OpenMemory start from Default()
// and apply the caller's Options over it.
func Default() Config {
	return Config{
		StorageType:       StorageDiskA,
		CacheSize:         64 << 20,
		MaxMemory:         128 << 20,
		AutoCommitOnClose: true,
		StrictDuplicateID: false,
		DefaultSearch:     search.DefaultOptions(),
		Logger:            NoopLogger(),
	}
}

// Development returns Default() with small caches and verbose text
// logging, suited to local iteration.
func Development() Config {
	c := Default()
	c.CacheSize = 4 << 20
	c.MaxMemory = 8 << 20
	c.Logger = NewTextLogger(slog.LevelDebug)
	return c
}

// Production returns Default() with large caches, JSON logging, and a
// snapshot IO cap so a save_to_file/open_file does not starve other disk
// activity on a shared volume.
func Production() Config {
	c := Default()
	c.CacheSize = 512 << 20
	c.MaxMemory = 1 << 30
	c.IOLimitBytesPerSec = 64 << 20
	c.Logger = NewJSONLogger(slog.LevelInfo)
	return c
}

// LowMemory returns Default() with minimal caches, so the pressure
// monitor's aggressive tier engages far sooner.
func LowMemory() Config {
	c := Default()
	c.CacheSize = 1 << 20
	c.MaxMemory = 2 << 20
	return c
}

// applyOptions folds opts over base, the preset or zero-value Config an
// Open/OpenMemory call starts from.
func applyOptions(base Config, opts []Option) Config {
	c := base
	for _, fn := range opts {
		if fn != nil {
			fn(&c)
		}
	}
	if c.Logger == nil {
		c.Logger = NoopLogger()
	}
	if c.DefaultSearch == (search.Options{}) {
		c.DefaultSearch = search.DefaultOptions()
	}
	return c
}
