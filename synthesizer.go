// Package polyvox orchestrates speech synthesis across vendor engines.
// It resolves what markup a voice can handle, reduces any accepted
// input to something the engine can speak, renders audio through a
// pluggable adapter, and drives word-synchronized playback sessions
// over the result. Engines with native word timing and engines with
// none get the same event surface.
package polyvox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/polyvox/polyvox/boundary"
	"github.com/polyvox/polyvox/capability"
	"github.com/polyvox/polyvox/internal/audioinfo"
	"github.com/polyvox/polyvox/internal/cache"
	"github.com/polyvox/polyvox/markup"
	"github.com/polyvox/polyvox/playback"
	"github.com/polyvox/polyvox/textnorm"
	"github.com/polyvox/polyvox/voices"
)

// SinkFactory builds the audio output for one utterance. It receives
// the rendered audio and the expected play time; the session it serves
// controls the sink from there.
type SinkFactory func(audio io.Reader, total time.Duration) (playback.AudioSink, error)

// Synthesizer is the orchestration entry point: one engine adapter,
// one capability registry, and the preprocessing, caching, throttling,
// and playback plumbing between them.
type Synthesizer struct {
	adapter   EngineAdapter
	registry  *capability.Registry
	logger    *log.Logger
	config    Config
	extractor *textnorm.Extractor
	limiter   *rate.Limiter
	cache     *cache.Manager
	catalog   *voices.Catalog
	sinks     SinkFactory

	mu    sync.Mutex
	voice string
}

// New creates a Synthesizer over the given engine adapter.
func New(adapter EngineAdapter, opts ...Option) (*Synthesizer, error) {
	if adapter == nil {
		return nil, ErrNoEngine
	}

	s := &Synthesizer{
		adapter:  adapter,
		registry: capability.Default(),
		logger:   log.Default(),
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	s.voice = s.config.Voice
	s.extractor = textnorm.NewExtractor(textnorm.WithCodeBlocks(!s.config.SkipCodeBlocks))
	s.catalog = voices.NewCatalog(s.config.VoiceTTL)

	if rpm := s.config.RequestsPerMinute; rpm > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}

	if s.config.Cache.Enabled {
		dir := s.config.Cache.Dir
		if dir == "" && s.config.Cache.DiskCapacity > 0 {
			var err error
			if dir, err = DefaultCacheDir(); err != nil {
				return nil, err
			}
		}
		manager, err := cache.NewManager(cache.Options{
			MemoryCapacity:   s.config.Cache.MemoryCapacity,
			DiskDir:          dir,
			DiskCapacity:     s.config.Cache.DiskCapacity,
			CompressionLevel: s.config.Cache.CompressionLevel,
			TTL:              s.config.Cache.TTL,
			CleanupInterval:  time.Hour,
			Logger:           s.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("audio cache: %w", err)
		}
		s.cache = manager
	}

	s.logger.Debug("synthesizer ready",
		"engine", adapter.ID(),
		"format", s.config.Format,
		"cache", s.config.Cache.Enabled)
	return s, nil
}

// Close releases background resources: the cache janitor and its disk
// index. The synthesizer must not be used afterwards.
func (s *Synthesizer) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// Engine returns the active adapter's identifier.
func (s *Synthesizer) Engine() string { return s.adapter.ID() }

// Voice returns the active voice ID, empty when the engine default is
// in use.
func (s *Synthesizer) Voice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// Options returns the synthesis options requests are currently built
// with.
func (s *Synthesizer) Options() SynthesisOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := s.config.ToOptions()
	opts.VoiceID = s.voice
	return opts
}

// requestOptions layers per-call overrides over the configured
// defaults.
func (s *Synthesizer) requestOptions(reqOpts []RequestOption) SynthesisOptions {
	opts := s.Options()
	for _, o := range reqOpts {
		o(&opts)
	}
	return opts
}

// CheckCredentials reports whether the engine accepts its configured
// credentials.
func (s *Synthesizer) CheckCredentials(ctx context.Context) bool {
	return s.adapter.CheckCredentials(ctx)
}

// utterance is a preprocessed input: the text the engine receives and
// the prose used for timing estimates and mark text.
type utterance struct {
	engineText string
	plain      string
	kind       textnorm.Kind
}

// preprocess reduces input to what the active voice can speak. Markup
// is validated against the voice's capability profile and transformed
// for it; markdown is read aloud as prose; plain text passes through
// with whitespace collapsed.
func (s *Synthesizer) preprocess(input, voiceID string) (utterance, error) {
	if strings.TrimSpace(input) == "" {
		return utterance{}, ErrEmptyInput
	}
	if max := s.config.MaxTextLength; max > 0 && len(input) > max {
		return utterance{}, fmt.Errorf("%w: %d bytes over limit %d", ErrInputTooLong, len(input), max)
	}

	kind := textnorm.DetectKind(input)
	switch kind {
	case textnorm.KindMarkup:
		profile := s.registry.Resolve(s.adapter.ID(), voiceID)
		report := markup.Validate(input, profile)
		if !report.Valid {
			return utterance{}, fmt.Errorf("%w: %v", ErrInvalidMarkup, report.Errors[0])
		}
		for _, w := range report.Warnings {
			s.logger.Warn("capability mismatch",
				"engine", s.adapter.ID(), "voice", voiceID, "issue", w.String())
		}
		return utterance{
			engineText: markup.Transform(input, profile),
			plain:      markup.Text(input),
			kind:       kind,
		}, nil

	case textnorm.KindMarkdown:
		text := s.extractor.Text(input)
		if strings.TrimSpace(text) == "" {
			return utterance{}, ErrEmptyInput
		}
		return utterance{engineText: text, plain: text, kind: kind}, nil

	default:
		text := textnorm.CollapseWhitespace(input)
		return utterance{engineText: text, plain: text, kind: kind}, nil
	}
}

// SynthToBytes renders input to one complete audio buffer, consulting
// the cache first when one is configured.
func (s *Synthesizer) SynthToBytes(ctx context.Context, input string, reqOpts ...RequestOption) ([]byte, error) {
	opts := s.requestOptions(reqOpts)
	u, err := s.preprocess(input, opts.VoiceID)
	if err != nil {
		return nil, err
	}
	return s.renderBytes(ctx, u, opts)
}

// renderBytes is the shared byte path: cache lookup, throttle, engine
// call, cache fill. Long prose is split and rendered piecewise when
// chunking is configured.
func (s *Synthesizer) renderBytes(ctx context.Context, u utterance, opts SynthesisOptions) ([]byte, error) {
	pieces := []string{u.engineText}
	// Chunking splits prose only; a markup document must reach the
	// engine whole. Concatenation is byte-level, so framed formats
	// should keep chunking off unless the engine emits raw PCM.
	if limit := s.chunkLimit(opts); limit > 0 && u.kind != textnorm.KindMarkup {
		pieces = textnorm.ChunkText(u.engineText, limit)
	}

	var buf bytes.Buffer
	for _, piece := range pieces {
		data, err := s.renderPiece(ctx, piece, opts)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// chunkLimit picks the piece size for long prose. A per-request
// Extra["maxTextLength"] wins over the configured default, so adapters
// with hard request caps can enforce them per call.
func (s *Synthesizer) chunkLimit(opts SynthesisOptions) int {
	if v, ok := opts.Extra["maxTextLength"]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return s.config.ChunkChars
}

func (s *Synthesizer) renderPiece(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error) {
	var key string
	if s.cache != nil {
		key = cache.Key(s.adapter.ID(), opts.VoiceID, string(opts.Format), opts.Rate, opts.Pitch, text)
		if data, ok := s.cache.Get(key); ok {
			s.logger.Debug("cache hit",
				"engine", s.adapter.ID(),
				"bytes", humanize.Bytes(uint64(len(data))))
			return data, nil
		}
	}

	if err := s.throttle(ctx); err != nil {
		return nil, err
	}

	started := time.Now()
	data, err := s.adapter.SynthToBytes(ctx, text, opts)
	if err != nil {
		return nil, &AdapterError{Engine: s.adapter.ID(), Op: "synthesize", Err: err}
	}
	if len(data) == 0 {
		return nil, &AdapterError{Engine: s.adapter.ID(), Op: "synthesize", Err: ErrNoAudio}
	}
	s.logger.Debug("synthesis complete",
		"engine", s.adapter.ID(),
		"voice", opts.VoiceID,
		"bytes", humanize.Bytes(uint64(len(data))),
		"took", time.Since(started))

	if s.cache != nil {
		if err := s.cache.Put(key, data); err != nil {
			s.logger.Warn("cache write failed", "err", err)
		}
	}
	return data, nil
}

// throttle blocks on the rate limiter when one is configured.
func (s *Synthesizer) throttle(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// SynthToBytestream renders input as an audio stream with a complete
// word timeline. Native engine timing is normalized and used when
// present and requested; otherwise the timeline is estimated from the
// text.
func (s *Synthesizer) SynthToBytestream(ctx context.Context, input string, reqOpts ...RequestOption) (*SpeechStream, error) {
	opts := s.requestOptions(reqOpts)
	u, err := s.preprocess(input, opts.VoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.throttle(ctx); err != nil {
		return nil, err
	}

	res, err := s.adapter.SynthToBytestream(ctx, u.engineText, opts)
	if err != nil {
		return nil, &AdapterError{Engine: s.adapter.ID(), Op: "stream", Err: err}
	}

	total := res.Duration
	if total <= 0 {
		total = textnorm.EstimateDuration(u.plain, opts.Rate)
	}

	var marks []boundary.Mark
	if opts.UseWordBoundary && len(res.NativeMarks) > 0 {
		marks = boundary.Normalize(res.NativeMarks)
		if t := boundary.TotalDuration(marks); t > total {
			total = t
		}
	} else {
		marks = boundary.Estimate(u.plain, total)
	}

	s.logger.Debug("stream ready",
		"engine", s.adapter.ID(),
		"marks", len(marks),
		"native", len(res.NativeMarks) > 0,
		"duration", total)

	return &SpeechStream{
		Chunks:   res.Chunks,
		Marks:    marks,
		Format:   opts.Format,
		Duration: total,
	}, nil
}

// Prepare renders input and returns an unstarted playback session, so
// callers can subscribe to events before the first one fires. Timing
// comes from the rendered audio where the container reveals it, from a
// prose estimate otherwise.
func (s *Synthesizer) Prepare(ctx context.Context, input string, reqOpts ...RequestOption) (*playback.Session, error) {
	opts := s.requestOptions(reqOpts)
	u, err := s.preprocess(input, opts.VoiceID)
	if err != nil {
		return nil, err
	}
	data, err := s.renderBytes(ctx, u, opts)
	if err != nil {
		return nil, err
	}

	total := audioinfo.Duration(data, string(opts.Format))
	if total <= 0 {
		total = textnorm.EstimateDuration(u.plain, opts.Rate)
	}
	marks := boundary.Estimate(u.plain, total)

	sessionOpts := []playback.SessionOption{
		playback.WithTotalDuration(total),
		playback.WithLogger(s.logger),
	}
	if s.sinks != nil {
		sink, err := s.sinks(bytes.NewReader(data), total)
		if err != nil {
			return nil, fmt.Errorf("audio sink: %w", err)
		}
		sessionOpts = append(sessionOpts, playback.WithSink(sink))
	}
	return playback.NewSession(marks, sessionOpts...), nil
}

// PrepareStreamed renders input as a stream and returns an unstarted
// session over it. With a sink factory the sink consumes the stream;
// without one the audio is discarded and only timed events remain.
func (s *Synthesizer) PrepareStreamed(ctx context.Context, input string, reqOpts ...RequestOption) (*playback.Session, error) {
	stream, err := s.SynthToBytestream(ctx, input, reqOpts...)
	if err != nil {
		return nil, err
	}

	sessionOpts := []playback.SessionOption{
		playback.WithTotalDuration(stream.Duration),
		playback.WithLogger(s.logger),
	}
	if s.sinks != nil {
		sink, err := s.sinks(stream.Reader(), stream.Duration)
		if err != nil {
			return nil, fmt.Errorf("audio sink: %w", err)
		}
		sessionOpts = append(sessionOpts, playback.WithSink(sink))
	} else {
		// Keep the adapter from blocking on an unread channel.
		go func() {
			for range stream.Chunks {
			}
		}()
	}
	return playback.NewSession(stream.Marks, sessionOpts...), nil
}

// Speak renders input and plays it to completion, blocking until the
// utterance ends or ctx is cancelled.
func (s *Synthesizer) Speak(ctx context.Context, input string, reqOpts ...RequestOption) error {
	session, err := s.Prepare(ctx, input, reqOpts...)
	if err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}
	return session.Wait(ctx)
}

// SpeakStreamed is Speak over the streaming path, preferring native
// word timing when the engine produces it.
func (s *Synthesizer) SpeakStreamed(ctx context.Context, input string, reqOpts ...RequestOption) error {
	session, err := s.PrepareStreamed(ctx, input, reqOpts...)
	if err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}
	return session.Wait(ctx)
}

// Voices returns the engine's voice list, served from a snapshot until
// it goes stale. A failed refresh falls back to the last snapshot
// rather than failing the call.
func (s *Synthesizer) Voices(ctx context.Context) ([]voices.Voice, error) {
	if !s.catalog.Stale() {
		return s.catalog.Voices(), nil
	}

	vs, err := s.adapter.Voices(ctx)
	if err != nil {
		if s.catalog.Len() > 0 {
			s.logger.Warn("voice refresh failed, serving stale catalog", "err", err)
			return s.catalog.Voices(), nil
		}
		return nil, &AdapterError{Engine: s.adapter.ID(), Op: "voices", Err: err}
	}
	s.catalog.SetVoices(vs)
	return s.catalog.Voices(), nil
}

// FindVoices fuzzy-matches the catalog against query.
func (s *Synthesizer) FindVoices(ctx context.Context, query string) ([]voices.Voice, error) {
	if _, err := s.Voices(ctx); err != nil {
		return nil, err
	}
	return s.catalog.Find(query), nil
}

// VoicesByLanguage filters the catalog to voices speaking the BCP-47
// code, more specific tags included.
func (s *Synthesizer) VoicesByLanguage(ctx context.Context, code string) ([]voices.Voice, error) {
	if _, err := s.Voices(ctx); err != nil {
		return nil, err
	}
	return s.catalog.ByLanguage(code), nil
}

// SetVoice switches the active voice after checking the engine offers
// it.
func (s *Synthesizer) SetVoice(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty voice id", ErrVoiceNotFound)
	}
	if _, err := s.Voices(ctx); err != nil {
		return err
	}
	if _, ok := s.catalog.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrVoiceNotFound, id)
	}

	s.mu.Lock()
	s.voice = id
	s.mu.Unlock()
	s.logger.Debug("voice set", "engine", s.adapter.ID(), "voice", id)
	return nil
}
