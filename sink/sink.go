// Package sink provides playback.AudioSink implementations: a timer
// sink that paces a known duration without touching hardware, and a
// device sink that renders PCM on the system output via oto. Build
// with the nocgo tag to compile the device sink out.
package sink

import (
	"errors"
	"io"
	"time"

	"github.com/polyvox/polyvox/playback"
)

var (
	// ErrAlreadyPlaying is returned by Play on a sink that is
	// already running.
	ErrAlreadyPlaying = errors.New("sink: already playing")

	// ErrNotPlaying is returned by Pause when nothing is playing.
	ErrNotPlaying = errors.New("sink: not playing")

	// ErrNotPaused is returned by Resume when the sink is not paused.
	ErrNotPaused = errors.New("sink: not paused")

	// ErrStopped is returned by controls on a stopped sink.
	ErrStopped = errors.New("sink: stopped")

	// ErrNoDevice is returned when the audio device is unavailable,
	// including every constructor in nocgo builds.
	ErrNoDevice = errors.New("sink: audio device unavailable")
)

// TimerFactory returns a synthesizer sink factory that paces each
// utterance on the wall clock, discarding the audio bytes. Suited to
// headless hosts and tests.
func TimerFactory() func(io.Reader, time.Duration) (playback.AudioSink, error) {
	return func(_ io.Reader, total time.Duration) (playback.AudioSink, error) {
		return NewTimer(total), nil
	}
}

// DeviceFactory returns a synthesizer sink factory that opens a
// device sink per utterance.
func DeviceFactory() func(io.Reader, time.Duration) (playback.AudioSink, error) {
	return func(audio io.Reader, _ time.Duration) (playback.AudioSink, error) {
		return NewDevice(audio)
	}
}
