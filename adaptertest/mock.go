// Package adaptertest provides a scripted in-memory engine adapter for
// exercising the orchestrator without network calls or vendor
// credentials. The engine renders deterministic PCM silence sized to
// the utterance, and every failure mode an adapter can exhibit is
// injectable: latency, errors, credential loss, canned voices, and
// scripted word timing.
package adaptertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/polyvox/polyvox"
	"github.com/polyvox/polyvox/boundary"
	"github.com/polyvox/polyvox/internal/audioinfo"
	"github.com/polyvox/polyvox/textnorm"
	"github.com/polyvox/polyvox/voices"
)

// streamChunkSize is how many audio bytes each streamed chunk carries.
const streamChunkSize = 4096

// Engine is a scripted polyvox.EngineAdapter. The zero value is not
// usable; construct with New.
type Engine struct {
	mu sync.Mutex

	id     string
	voices []voices.Voice

	delay         time.Duration
	failErr       error
	credentialsOK bool

	marks          []boundary.Mark
	streamDuration time.Duration

	synthCalls  int
	streamCalls int
	voiceCalls  int

	lastInput string
	lastOpts  polyvox.SynthesisOptions
}

var _ polyvox.EngineAdapter = (*Engine)(nil)

// New creates a mock engine with three canned voices and working
// credentials.
func New() *Engine {
	return &Engine{
		id:            "mock",
		credentialsOK: true,
		voices: []voices.Voice{
			{
				ID:            "mock-voice-1",
				Name:          "Mock Voice 1",
				Gender:        voices.GenderNeutral,
				LanguageCodes: []string{"en-US"},
				EngineID:      "mock",
			},
			{
				ID:            "mock-voice-2",
				Name:          "Mock Voice 2",
				Gender:        voices.GenderFemale,
				LanguageCodes: []string{"en-GB"},
				EngineID:      "mock",
			},
			{
				ID:            "mock-voice-3",
				Name:          "Mock Voice 3",
				Gender:        voices.GenderMale,
				LanguageCodes: []string{"en-US"},
				EngineID:      "mock",
			},
		},
	}
}

// NewNamed creates a mock engine with the given identifier, for tests
// that juggle several engines at once.
func NewNamed(id string) *Engine {
	e := New()
	e.id = id
	for i := range e.voices {
		e.voices[i].EngineID = id
	}
	return e
}

// ID returns the engine identifier.
func (e *Engine) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Voices returns the canned voice list.
func (e *Engine) Voices(ctx context.Context) ([]voices.Voice, error) {
	e.mu.Lock()
	e.voiceCalls++
	failErr := e.failErr
	vs := make([]voices.Voice, len(e.voices))
	copy(vs, e.voices)
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, failErr
	}
	return vs, nil
}

// CheckCredentials reports the scripted credential state.
func (e *Engine) CheckCredentials(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credentialsOK
}

// SynthToBytes renders input as PCM16 silence sized to the estimated
// speaking duration. Non-PCM requests get a WAV container; real
// encoders are out of scope for a test double.
func (e *Engine) SynthToBytes(ctx context.Context, input string, opts polyvox.SynthesisOptions) ([]byte, error) {
	e.mu.Lock()
	e.synthCalls++
	e.lastInput, e.lastOpts = input, opts
	delay, failErr := e.delay, e.failErr
	e.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}
	if err := e.checkVoice(opts.VoiceID); err != nil {
		return nil, err
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return e.render(input, opts), nil
}

// SynthToBytestream renders the same audio as SynthToBytes but feeds
// it through a chunk channel, with scripted word marks attached when
// the test set any.
func (e *Engine) SynthToBytestream(ctx context.Context, input string, opts polyvox.SynthesisOptions) (*polyvox.StreamResult, error) {
	e.mu.Lock()
	e.streamCalls++
	e.lastInput, e.lastOpts = input, opts
	delay, failErr := e.delay, e.failErr
	marks := make([]boundary.Mark, len(e.marks))
	copy(marks, e.marks)
	duration := e.streamDuration
	e.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}
	if err := e.checkVoice(opts.VoiceID); err != nil {
		return nil, err
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	audio := e.render(input, opts)
	if duration == 0 {
		duration = textnorm.EstimateDuration(input, opts.Rate)
	}

	ch := make(chan polyvox.AudioChunk)
	go func() {
		defer close(ch)
		for off := 0; off < len(audio); off += streamChunkSize {
			end := off + streamChunkSize
			if end > len(audio) {
				end = len(audio)
			}
			chunk := polyvox.AudioChunk{
				Data:  audio[off:end],
				Final: end == len(audio),
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &polyvox.StreamResult{
		Chunks:      ch,
		NativeMarks: marks,
		Duration:    duration,
	}, nil
}

// render builds silence for the estimated speaking time of input.
func (e *Engine) render(input string, opts polyvox.SynthesisOptions) []byte {
	format := audioinfo.DefaultFormat()
	pcm := audioinfo.Silence(textnorm.EstimateDuration(input, opts.Rate), format)
	if opts.Format == polyvox.FormatPCM {
		return pcm
	}
	return audioinfo.WAV(pcm, format)
}

// checkVoice rejects voice IDs the canned catalog does not carry. An
// empty ID means the engine default and always passes.
func (e *Engine) checkVoice(id string) error {
	if id == "" {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range e.voices {
		if v.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", polyvox.ErrVoiceNotFound, id)
}

// Test control methods

// SetDelay sets a simulated processing delay applied before synthesis.
func (e *Engine) SetDelay(delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = delay
}

// SetFailure makes every subsequent call fail with err.
func (e *Engine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failErr = err
}

// ClearFailure resets the engine to normal operation.
func (e *Engine) ClearFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failErr = nil
}

// SetCredentials flips the scripted CheckCredentials answer.
func (e *Engine) SetCredentials(ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.credentialsOK = ok
}

// SetVoices replaces the canned voice catalog.
func (e *Engine) SetVoices(vs []voices.Voice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voices = make([]voices.Voice, len(vs))
	copy(e.voices, vs)
}

// SetMarks scripts the native word timing attached to stream results.
func (e *Engine) SetMarks(marks []boundary.Mark) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.marks = make([]boundary.Mark, len(marks))
	copy(e.marks, marks)
}

// SetStreamDuration scripts the engine-reported duration on stream
// results. Zero falls back to the estimate.
func (e *Engine) SetStreamDuration(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.streamDuration = d
}

// SynthCalls returns the number of SynthToBytes calls.
func (e *Engine) SynthCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.synthCalls
}

// StreamCalls returns the number of SynthToBytestream calls.
func (e *Engine) StreamCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streamCalls
}

// VoiceCalls returns the number of Voices calls.
func (e *Engine) VoiceCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voiceCalls
}

// LastInput returns the text the most recent synthesis call received.
func (e *Engine) LastInput() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastInput
}

// LastOptions returns the options the most recent synthesis call
// received.
func (e *Engine) LastOptions() polyvox.SynthesisOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastOpts
}
