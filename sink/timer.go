package sink

import (
	"sync"
	"time"

	"github.com/polyvox/polyvox/playback"
)

// Timer paces a known audio duration on the wall clock without
// rendering anything. Done closes once the accumulated playing time
// reaches the total.
type Timer struct {
	mu      sync.Mutex
	total   time.Duration
	anchor  time.Time
	played  time.Duration
	started bool
	playing bool
	stopped bool
	closed  bool
	done    chan struct{}
	timer   *time.Timer

	// gen invalidates expiry callbacks scheduled before the latest
	// pause, resume, or stop.
	gen int
}

var _ playback.AudioSink = (*Timer)(nil)

// NewTimer creates a timer sink for audio of the given length. A total
// of zero finishes immediately on Play.
func NewTimer(total time.Duration) *Timer {
	return &Timer{
		total: total,
		done:  make(chan struct{}),
	}
}

// Play starts the clock.
func (t *Timer) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return ErrStopped
	}
	if t.playing {
		return ErrAlreadyPlaying
	}
	t.started = true
	t.startLocked()
	return nil
}

// Pause freezes the clock, keeping position.
func (t *Timer) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return ErrStopped
	}
	if !t.playing {
		return ErrNotPlaying
	}
	t.played += time.Since(t.anchor)
	t.playing = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
	return nil
}

// Resume restarts the clock from the paused position.
func (t *Timer) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return ErrStopped
	}
	if t.playing {
		return ErrAlreadyPlaying
	}
	if !t.started {
		return ErrNotPaused
	}
	t.startLocked()
	return nil
}

// Stop abandons the clock and closes Done. Stopping twice is a no-op.
func (t *Timer) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil
	}
	if t.playing {
		t.played += time.Since(t.anchor)
		t.playing = false
	}
	t.stopped = true
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
	t.closeDoneLocked()
	return nil
}

// Done is closed when the total has elapsed or the sink was stopped.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Position returns how much audio time has elapsed, capped at the
// total.
func (t *Timer) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos := t.played
	if t.playing {
		pos += time.Since(t.anchor)
	}
	if pos > t.total {
		pos = t.total
	}
	return pos
}

func (t *Timer) startLocked() {
	t.anchor = time.Now()
	t.playing = true
	t.gen++
	gen := t.gen

	remaining := t.total - t.played
	if remaining < 0 {
		remaining = 0
	}
	t.timer = time.AfterFunc(remaining, func() { t.expire(gen) })
}

// expire finishes the sink unless a pause, resume, or stop superseded
// the schedule that armed it.
func (t *Timer) expire(gen int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.stopped {
		return
	}
	t.played = t.total
	t.playing = false
	t.closeDoneLocked()
}

func (t *Timer) closeDoneLocked() {
	if !t.closed {
		t.closed = true
		close(t.done)
	}
}
