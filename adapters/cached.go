package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/polyvox/polyvox"
	"github.com/polyvox/polyvox/internal/cache"
	"github.com/polyvox/polyvox/voices"
)

// Cached wraps an engine adapter with a read-through audio cache on
// the byte path. Streams pass through uncached: chunk channels are
// single-consumption and cannot be replayed from storage.
type Cached struct {
	inner  polyvox.EngineAdapter
	cache  *cache.Manager
	logger *log.Logger
}

var _ polyvox.EngineAdapter = (*Cached)(nil)

// NewCached wraps inner with a cache built from cfg. Wrapping is
// opting in, so cfg.Enabled is ignored. An empty cfg.Dir with a
// positive DiskCapacity uses the default cache directory; DiskCapacity
// of zero runs memory-only. Close the wrapper to persist the disk
// index.
func NewCached(inner polyvox.EngineAdapter, cfg polyvox.CacheConfig) (*Cached, error) {
	dir := cfg.Dir
	if dir == "" && cfg.DiskCapacity > 0 {
		var err error
		if dir, err = polyvox.DefaultCacheDir(); err != nil {
			return nil, err
		}
	}

	manager, err := cache.NewManager(cache.Options{
		MemoryCapacity:   cfg.MemoryCapacity,
		DiskDir:          dir,
		DiskCapacity:     cfg.DiskCapacity,
		CompressionLevel: cfg.CompressionLevel,
		TTL:              cfg.TTL,
		CleanupInterval:  time.Hour,
		Logger:           log.Default(),
	})
	if err != nil {
		return nil, fmt.Errorf("audio cache: %w", err)
	}

	return &Cached{
		inner:  inner,
		cache:  manager,
		logger: log.Default(),
	}, nil
}

// SetLogger routes the wrapper's logging to the given logger.
func (c *Cached) SetLogger(logger *log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// ID returns the wrapped engine's identifier, so cache keys and
// capability lookups resolve against the real engine.
func (c *Cached) ID() string {
	return c.inner.ID()
}

// Voices delegates to the wrapped engine.
func (c *Cached) Voices(ctx context.Context) ([]voices.Voice, error) {
	return c.inner.Voices(ctx)
}

// CheckCredentials delegates to the wrapped engine.
func (c *Cached) CheckCredentials(ctx context.Context) bool {
	return c.inner.CheckCredentials(ctx)
}

// SynthToBytes serves from the cache when the same input was rendered
// with the same voice and options before, and fills it otherwise.
// Cache write failures are non-fatal.
func (c *Cached) SynthToBytes(ctx context.Context, input string, opts polyvox.SynthesisOptions) ([]byte, error) {
	key := cache.Key(c.inner.ID(), opts.VoiceID, string(opts.Format), opts.Rate, opts.Pitch, input)
	if data, ok := c.cache.Get(key); ok {
		c.logger.Debug("cache hit", "engine", c.inner.ID(), "bytes", humanize.Bytes(uint64(len(data))))
		return data, nil
	}

	data, err := c.inner.SynthToBytes(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(key, data); err != nil {
		c.logger.Warn("cache write failed", "engine", c.inner.ID(), "err", err)
	}
	return data, nil
}

// SynthToBytestream passes through to the wrapped engine.
func (c *Cached) SynthToBytestream(ctx context.Context, input string, opts polyvox.SynthesisOptions) (*polyvox.StreamResult, error) {
	return c.inner.SynthToBytestream(ctx, input, opts)
}

// Close stops the cache janitor and persists the disk index.
func (c *Cached) Close() error {
	return c.cache.Close()
}
