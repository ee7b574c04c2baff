package polyvox

import (
	"github.com/charmbracelet/log"

	"github.com/polyvox/polyvox/capability"
)

// Format identifies the audio encoding of a synthesis response.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
	FormatPCM Format = "pcm"
)

// SynthesisOptions is the request an adapter receives: the voice and
// rendering knobs for one utterance. The orchestrator builds it from
// its configuration and active voice.
type SynthesisOptions struct {
	// VoiceID is the engine-scoped voice to speak with.
	VoiceID string

	// Format is the requested audio encoding.
	Format Format

	// Rate is a speaking-speed multiplier; 1.0 is the engine default.
	Rate float64

	// Pitch shifts the voice in semitones; 0 is the engine default.
	Pitch float64

	// UseWordBoundary asks the engine for native word timing where it
	// can produce any.
	UseWordBoundary bool

	// Extra passes vendor-specific knobs through to the adapter. The
	// orchestrator reads one key itself: "maxTextLength" caps the
	// chunk size for this request.
	Extra map[string]interface{}
}

// RequestOption adjusts the synthesis options for a single call,
// applied on top of the synthesizer's configured defaults.
type RequestOption func(*SynthesisOptions)

// WithVoice speaks one request with the given voice instead of the
// active one.
func WithVoice(id string) RequestOption {
	return func(o *SynthesisOptions) {
		o.VoiceID = id
	}
}

// WithFormat overrides the audio encoding for one request.
func WithFormat(f Format) RequestOption {
	return func(o *SynthesisOptions) {
		o.Format = f
	}
}

// WithRate overrides the speaking-speed multiplier for one request.
func WithRate(rate float64) RequestOption {
	return func(o *SynthesisOptions) {
		o.Rate = rate
	}
}

// WithPitch overrides the pitch shift for one request.
func WithPitch(semitones float64) RequestOption {
	return func(o *SynthesisOptions) {
		o.Pitch = semitones
	}
}

// WithExtra passes a vendor-specific knob through to the adapter.
func WithExtra(key string, value interface{}) RequestOption {
	return func(o *SynthesisOptions) {
		if o.Extra == nil {
			o.Extra = make(map[string]interface{})
		}
		o.Extra[key] = value
	}
}

// Option configures a Synthesizer at construction.
type Option func(*Synthesizer)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(s *Synthesizer) {
		s.config = cfg
	}
}

// WithLogger routes the synthesizer's logging to the given logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// WithRegistry swaps the capability registry, for callers that ship
// profiles for engines the builtin table does not know.
func WithRegistry(registry *capability.Registry) Option {
	return func(s *Synthesizer) {
		s.registry = registry
	}
}

// WithCache replaces the cache settings of the active configuration.
// The cache still runs only when cfg.Enabled is set.
func WithCache(cfg CacheConfig) Option {
	return func(s *Synthesizer) {
		s.config.Cache = cfg
	}
}

// WithRateLimit throttles engine calls to perMinute requests; zero
// disables throttling.
func WithRateLimit(perMinute int) Option {
	return func(s *Synthesizer) {
		s.config.RequestsPerMinute = perMinute
	}
}

// WithSinkFactory attaches audio output: the factory is invoked per
// utterance with the rendered audio and its expected play time.
// Without one, playback sessions pace events on the timeline alone.
func WithSinkFactory(factory SinkFactory) Option {
	return func(s *Synthesizer) {
		s.sinks = factory
	}
}
