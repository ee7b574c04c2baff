package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/polyvox/polyvox/boundary"
)

// Session drives ordered event delivery for one utterance. It owns its
// mark queue and optional sink exclusively; nothing is shared between
// sessions, so any number may run concurrently.
type Session struct {
	id     string
	logger *log.Logger

	mu      sync.Mutex
	machine *machine
	marks   []boundary.Mark
	cursor  int
	total   time.Duration
	sink    AudioSink
	subs    []*subscriber

	// Timeline accounting: anchor is the wall-clock instant playback
	// last entered Playing, played accumulates Playing time before the
	// current anchor. Position is played(+time since anchor when
	// playing), which is what pause/resume preserve.
	anchor time.Time
	played time.Duration

	// wake nudges the emission goroutine after a control call. Buffered
	// by one and sent non-blocking: repeated nudges coalesce, and the
	// goroutine re-reads the full session state on every wake.
	wake chan struct{}

	// done closes on entry to a terminal state.
	done chan struct{}
}

// SessionOption configures a Session at construction.
type SessionOption func(*Session)

// WithSink attaches the audio output the session starts, pauses, and
// stops alongside its mark timer. The sink's Done channel gates the
// session's natural end.
func WithSink(sink AudioSink) SessionOption {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithTotalDuration declares the full audio length. A sinkless session
// holds Playing until this much has been spoken before ending; the
// default is the end of the last mark.
func WithTotalDuration(d time.Duration) SessionOption {
	return func(s *Session) {
		s.total = d
	}
}

// WithLogger routes session logging to the given logger.
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an idle session over a normalized mark sequence.
// Marks must already be in non-decreasing offset order; boundary
// Normalize and Estimate both guarantee that.
func NewSession(marks []boundary.Mark, opts ...SessionOption) *Session {
	s := &Session{
		id:      uuid.NewString(),
		logger:  log.Default(),
		machine: newMachine(),
		marks:   append([]boundary.Mark(nil), marks...),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if t := boundary.TotalDuration(s.marks); t > s.total {
		s.total = t
	}
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.current
}

// Duration returns the audio length the session paces itself over.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Position returns how much of the utterance has been played so far.
func (s *Session) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *Session) positionLocked() time.Duration {
	if s.machine.current == StatePlaying {
		return s.played + time.Since(s.anchor)
	}
	return s.played
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session reaches a terminal state. Cancelling
// the context stops playback and returns the context error.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		_ = s.Stop()
		return ctx.Err()
	case <-s.done:
		return nil
	}
}

// Start begins playback: Idle to Starting to Playing. The start event
// is emitted synchronously before Start returns; boundary events follow
// from the session's emission goroutine. Starting twice is an invalid
// transition, including while the session is already playing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.to(StateStarting) {
		return &StateError{Op: "start", From: s.machine.current, To: StateStarting}
	}
	if s.sink != nil {
		if err := s.sink.Play(); err != nil {
			s.machine.to(StateStopped)
			s.teardownLocked()
			close(s.done)
			return fmt.Errorf("%w: %w", ErrSinkFailed, err)
		}
	}
	s.machine.to(StatePlaying)
	s.anchor = time.Now()
	s.played = 0
	s.logger.Debug("playback started", "session", s.id, "marks", len(s.marks), "total", s.total)
	s.emitLocked(Event{Type: EventStart})
	go s.run()
	return nil
}

// Pause freezes playback, preserving position. Only a playing session
// can pause.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.machine.current
	if from != StatePlaying || !s.machine.to(StatePaused) {
		return &StateError{Op: "pause", From: from, To: StatePaused}
	}
	s.played += time.Since(s.anchor)
	s.notifyLocked()
	s.logger.Debug("playback paused", "session", s.id, "position", s.played)
	if s.sink != nil {
		if err := s.sink.Pause(); err != nil {
			return fmt.Errorf("%w: %w", ErrSinkFailed, err)
		}
	}
	return nil
}

// Resume continues a paused session from its preserved position.
// Already-emitted marks are not replayed; the remaining marks keep
// their timeline spacing.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.machine.current
	if from != StatePaused || !s.machine.to(StatePlaying) {
		return &StateError{Op: "resume", From: from, To: StatePlaying}
	}
	s.anchor = time.Now()
	s.notifyLocked()
	s.logger.Debug("playback resumed", "session", s.id, "position", s.played)
	if s.sink != nil {
		if err := s.sink.Resume(); err != nil {
			return fmt.Errorf("%w: %w", ErrSinkFailed, err)
		}
	}
	return nil
}

// Stop cancels playback from any non-terminal state. After Stop returns
// no further boundary or end events are delivered: the transition
// happens under the session lock and every emission re-checks state
// there, so a timer that already fired cannot slip an event through.
// Stopping a terminal session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.current.Terminal() {
		return nil
	}
	if s.machine.current == StatePlaying {
		s.played += time.Since(s.anchor)
	}
	s.machine.to(StateStopped)
	s.notifyLocked()
	s.teardownLocked()
	close(s.done)
	s.logger.Debug("playback stopped", "session", s.id, "position", s.played)
	if s.sink != nil {
		if err := s.sink.Stop(); err != nil {
			return fmt.Errorf("%w: %w", ErrSinkFailed, err)
		}
	}
	return nil
}

// notifyLocked nudges the emission goroutine to re-read session state.
func (s *Session) notifyLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the session's only emission goroutine. It walks the mark queue
// on an owned timer, re-reading session state under the lock before
// every emission so pause and stop are honored deterministically.
func (s *Session) run() {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		s.mu.Lock()
		state := s.machine.current

		if state.Terminal() {
			s.mu.Unlock()
			return
		}
		if state == StatePaused {
			s.mu.Unlock()
			<-s.wake
			continue
		}

		pos := s.positionLocked()
		for s.cursor < len(s.marks) && s.marks[s.cursor].Offset <= pos {
			m := s.marks[s.cursor]
			s.cursor++
			s.emitLocked(Event{Type: EventBoundary, Word: m.Text, Start: m.Offset, End: m.End()})
		}

		if s.cursor < len(s.marks) {
			delay := s.marks[s.cursor].Offset - pos
			s.mu.Unlock()
			timer.Reset(delay)
			s.sleep(timer)
			continue
		}

		// Marks exhausted: hold Playing until the audio finishes.
		var audioDone <-chan struct{}
		if s.sink != nil {
			audioDone = s.sink.Done()
		}
		remaining := s.total - pos
		s.mu.Unlock()

		switch {
		case audioDone != nil:
			select {
			case <-audioDone:
				if s.finish() {
					return
				}
			case <-s.wake:
			}
		case remaining > 0:
			timer.Reset(remaining)
			if s.sleep(timer) && s.finish() {
				return
			}
		default:
			if s.finish() {
				return
			}
		}
	}
}

// sleep waits for the timer or a control-call nudge, reporting whether
// the timer fired. The timer is left drained either way.
func (s *Session) sleep(timer *time.Timer) bool {
	select {
	case <-timer.C:
		return true
	case <-s.wake:
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		return false
	}
}

// finish moves a playing session to Ended and emits the end event. It
// reports false when a concurrent pause or stop won the race, in which
// case the caller goes back to watching session state.
func (s *Session) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.current != StatePlaying || !s.machine.to(StateEnded) {
		return false
	}
	s.played += time.Since(s.anchor)
	s.emitLocked(Event{Type: EventEnd})
	s.teardownLocked()
	close(s.done)
	s.logger.Debug("playback ended", "session", s.id)
	return true
}
