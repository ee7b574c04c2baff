package polyvox

import (
	"context"
	"time"

	"github.com/polyvox/polyvox/boundary"
	"github.com/polyvox/polyvox/voices"
)

// AudioChunk is one piece of a streamed synthesis response.
type AudioChunk struct {
	Data []byte

	// Final marks the last audio-bearing chunk. The channel still
	// closes afterwards; Final lets consumers flush early.
	Final bool
}

// StreamResult is an adapter's streaming response. Chunks must be
// closed by the adapter after the final chunk, whatever the outcome.
type StreamResult struct {
	Chunks <-chan AudioChunk

	// NativeMarks is engine-reported word timing in utterance order.
	// Empty means the engine does not produce timing and the
	// orchestrator estimates instead.
	NativeMarks []boundary.Mark

	// Duration is the engine-reported audio length, zero when unknown.
	Duration time.Duration
}

// EngineAdapter is the per-vendor surface the orchestrator drives.
// Implementations own transport, authentication, and retry policy;
// they receive text already reduced to what the engine can speak, so
// they never interpret markup themselves.
type EngineAdapter interface {
	// ID returns the engine identifier used for capability lookups,
	// cache keys, and logs.
	ID() string

	// Voices lists the voices the engine currently offers.
	Voices(ctx context.Context) ([]voices.Voice, error)

	// CheckCredentials reports whether the engine is usable as
	// configured. It must not synthesize.
	CheckCredentials(ctx context.Context) bool

	// SynthToBytes renders input to one complete audio buffer.
	SynthToBytes(ctx context.Context, input string, opts SynthesisOptions) ([]byte, error)

	// SynthToBytestream renders input as a chunk stream alongside
	// whatever timing metadata the engine can provide.
	SynthToBytestream(ctx context.Context, input string, opts SynthesisOptions) (*StreamResult, error)
}
