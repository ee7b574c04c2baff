// Package adapters provides middleware that composes engine adapters:
// automatic failover between a primary and a secondary engine, and a
// read-through synthesis cache. Both wrappers implement
// polyvox.EngineAdapter themselves, so they stack.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/polyvox/polyvox"
	"github.com/polyvox/polyvox/voices"
)

// defaultMaxFailures is how many consecutive primary failures trigger
// switchover when the caller passes zero.
const defaultMaxFailures = 3

// Fallback drives a primary engine and switches to a secondary after
// repeated failures. A success before the threshold resets the count;
// after switchover the secondary serves everything until Reset.
type Fallback struct {
	mu          sync.Mutex
	primary     polyvox.EngineAdapter
	secondary   polyvox.EngineAdapter
	maxFailures int
	failures    int
	onSecondary bool
	logger      *log.Logger
}

var _ polyvox.EngineAdapter = (*Fallback)(nil)

// NewFallback wraps primary with secondary as its fallback. The
// context covers the construction-time credential probe: a primary
// whose credentials are rejected while the secondary's pass starts the
// wrapper on the secondary. maxFailures of zero or less picks the
// default of 3.
func NewFallback(ctx context.Context, primary, secondary polyvox.EngineAdapter, maxFailures int) *Fallback {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	f := &Fallback{
		primary:     primary,
		secondary:   secondary,
		maxFailures: maxFailures,
		logger:      log.Default(),
	}
	if !primary.CheckCredentials(ctx) && secondary.CheckCredentials(ctx) {
		f.onSecondary = true
		f.logger.Warn("primary engine credentials rejected, starting on secondary",
			"primary", primary.ID(), "secondary", secondary.ID())
	}
	return f
}

// SetLogger routes the wrapper's logging to the given logger.
func (f *Fallback) SetLogger(logger *log.Logger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if logger != nil {
		f.logger = logger
	}
}

// ID returns the active engine's identifier.
func (f *Fallback) ID() string {
	return f.active().ID()
}

// Voices lists the active engine's voices.
func (f *Fallback) Voices(ctx context.Context) ([]voices.Voice, error) {
	return f.active().Voices(ctx)
}

// CheckCredentials reports whether the active engine is usable. A
// primary rejection with a usable secondary switches over.
func (f *Fallback) CheckCredentials(ctx context.Context) bool {
	if f.secondaryActive() {
		return f.secondary.CheckCredentials(ctx)
	}
	if f.primary.CheckCredentials(ctx) {
		return true
	}
	if f.secondary.CheckCredentials(ctx) {
		f.switchOver("primary credentials rejected")
		return true
	}
	return false
}

// SynthToBytes synthesizes with the active engine. Primary failures
// count toward switchover; the call that crosses the threshold is
// retried on the secondary.
func (f *Fallback) SynthToBytes(ctx context.Context, input string, opts polyvox.SynthesisOptions) ([]byte, error) {
	if f.secondaryActive() {
		return f.secondary.SynthToBytes(ctx, input, opts)
	}

	data, err := f.primary.SynthToBytes(ctx, input, opts)
	if err == nil {
		f.recordSuccess()
		return data, nil
	}
	if !f.recordFailure("synthesize", err) {
		return nil, err
	}

	data, serr := f.secondary.SynthToBytes(ctx, input, opts)
	if serr != nil {
		return nil, fmt.Errorf("%w: primary: %v; secondary: %w", polyvox.ErrEngineExhausted, err, serr)
	}
	return data, nil
}

// SynthToBytestream streams with the active engine, with the same
// failure accounting as SynthToBytes.
func (f *Fallback) SynthToBytestream(ctx context.Context, input string, opts polyvox.SynthesisOptions) (*polyvox.StreamResult, error) {
	if f.secondaryActive() {
		return f.secondary.SynthToBytestream(ctx, input, opts)
	}

	res, err := f.primary.SynthToBytestream(ctx, input, opts)
	if err == nil {
		f.recordSuccess()
		return res, nil
	}
	if !f.recordFailure("stream", err) {
		return nil, err
	}

	res, serr := f.secondary.SynthToBytestream(ctx, input, opts)
	if serr != nil {
		return nil, fmt.Errorf("%w: primary: %v; secondary: %w", polyvox.ErrEngineExhausted, err, serr)
	}
	return res, nil
}

// Reset returns the wrapper to the primary engine and clears the
// failure count.
func (f *Fallback) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = 0
	f.onSecondary = false
	f.logger.Info("reset to primary engine", "engine", f.primary.ID())
}

// Status describes which engine is active and how the failure count
// stands, for diagnostics.
func (f *Fallback) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSecondary {
		return fmt.Sprintf("secondary engine %s active (primary failed %d times)",
			f.secondary.ID(), f.failures)
	}
	return fmt.Sprintf("primary engine %s active (failures %d/%d)",
		f.primary.ID(), f.failures, f.maxFailures)
}

func (f *Fallback) active() polyvox.EngineAdapter {
	if f.secondaryActive() {
		return f.secondary
	}
	return f.primary
}

func (f *Fallback) secondaryActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onSecondary
}

// recordFailure counts a primary failure and reports whether this one
// crossed the switchover threshold. Cancellation is the caller's
// doing, not an engine failure, so it never counts.
func (f *Fallback) recordFailure(op string, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
	f.logger.Warn("primary engine failed",
		"engine", f.primary.ID(), "op", op,
		"failures", f.failures, "max", f.maxFailures, "err", err)
	if f.failures < f.maxFailures {
		return false
	}
	f.onSecondary = true
	f.logger.Warn("switching to secondary engine",
		"primary", f.primary.ID(), "secondary", f.secondary.ID())
	return true
}

func (f *Fallback) recordSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.logger.Info("primary engine recovered",
			"engine", f.primary.ID(), "failures", f.failures)
		f.failures = 0
	}
}

func (f *Fallback) switchOver(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSecondary {
		return
	}
	f.onSecondary = true
	f.logger.Warn("switching to secondary engine",
		"primary", f.primary.ID(), "secondary", f.secondary.ID(),
		"reason", reason)
}
