package sink

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func waitClosed(t *testing.T, ch <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(within):
		t.Fatal("timed out waiting for sink to finish")
	}
}

// TestTimerFinishes tests that Done closes once the total elapses.
func TestTimerFinishes(t *testing.T) {
	tm := NewTimer(50 * time.Millisecond)

	start := time.Now()
	if err := tm.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitClosed(t, tm.Done(), 2*time.Second)

	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("finished after %v, want at least ~50ms", elapsed)
	}
	if got := tm.Position(); got != 50*time.Millisecond {
		t.Errorf("Position() = %v, want %v", got, 50*time.Millisecond)
	}
}

// TestTimerZeroTotal tests that an empty clip finishes immediately.
func TestTimerZeroTotal(t *testing.T) {
	tm := NewTimer(0)
	if err := tm.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitClosed(t, tm.Done(), time.Second)
}

// TestTimerPauseFreezesClock tests that pausing holds position and
// defers completion.
func TestTimerPauseFreezesClock(t *testing.T) {
	tm := NewTimer(200 * time.Millisecond)
	if err := tm.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := tm.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	frozen := tm.Position()
	time.Sleep(80 * time.Millisecond)
	if got := tm.Position(); got != frozen {
		t.Errorf("Position() moved to %v during pause, want %v", got, frozen)
	}
	select {
	case <-tm.Done():
		t.Fatal("Done closed while paused")
	default:
	}

	if err := tm.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	waitClosed(t, tm.Done(), 2*time.Second)
}

// TestTimerStop tests that Stop closes Done early and is idempotent.
func TestTimerStop(t *testing.T) {
	tm := NewTimer(5 * time.Second)
	if err := tm.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if err := tm.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	waitClosed(t, tm.Done(), time.Second)

	if err := tm.Stop(); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
	if err := tm.Play(); !errors.Is(err, ErrStopped) {
		t.Errorf("Play() after Stop error = %v, want %v", err, ErrStopped)
	}
}

// TestTimerControlErrors tests control calls from the wrong state.
func TestTimerControlErrors(t *testing.T) {
	tests := []struct {
		name    string
		run     func(tm *Timer) error
		wantErr error
	}{
		{
			name:    "pause before play",
			run:     func(tm *Timer) error { return tm.Pause() },
			wantErr: ErrNotPlaying,
		},
		{
			name:    "resume before play",
			run:     func(tm *Timer) error { return tm.Resume() },
			wantErr: ErrNotPaused,
		},
		{
			name: "play twice",
			run: func(tm *Timer) error {
				if err := tm.Play(); err != nil {
					return err
				}
				return tm.Play()
			},
			wantErr: ErrAlreadyPlaying,
		},
		{
			name: "resume while playing",
			run: func(tm *Timer) error {
				if err := tm.Play(); err != nil {
					return err
				}
				return tm.Resume()
			},
			wantErr: ErrAlreadyPlaying,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewTimer(time.Second)
			defer tm.Stop()
			if err := tt.run(tm); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestTimerFactory tests the sink factory adapter, which ignores the
// audio bytes.
func TestTimerFactory(t *testing.T) {
	factory := TimerFactory()
	s, err := factory(strings.NewReader("unused"), 30*time.Millisecond)
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitClosed(t, s.Done(), time.Second)
}
