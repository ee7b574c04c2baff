//go:build !nocgo
// +build !nocgo

package sink

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/polyvox/polyvox/internal/audioinfo"
	"github.com/polyvox/polyvox/playback"
)

// watchInterval is how often the drain watcher polls the player.
const watchInterval = 50 * time.Millisecond

// oto permits one audio context per process, so it is created once on
// first use and shared by every device sink.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func audioContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		format := audioinfo.DefaultFormat()
		opts := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		switch runtime.GOOS {
		case "darwin":
			opts.BufferSize = 100 * time.Millisecond
		case "windows":
			opts.BufferSize = 80 * time.Millisecond
		default:
			opts.BufferSize = 50 * time.Millisecond
		}

		ctx, ready, err := oto.NewContext(opts)
		if err != nil {
			otoErr = fmt.Errorf("create audio context: %w", err)
			return
		}
		select {
		case <-ready:
			otoCtx = ctx
		case <-time.After(5 * time.Second):
			otoErr = fmt.Errorf("%w: context initialization timeout", ErrNoDevice)
		}
	})
	return otoCtx, otoErr
}

// Device renders PCM audio from a reader on the system output. Done
// closes when the player drains the reader, which a watcher goroutine
// detects by polling.
type Device struct {
	mu      sync.Mutex
	player  *oto.Player
	playing bool
	paused  bool
	stopped bool
	closed  bool
	done    chan struct{}
}

var _ playback.AudioSink = (*Device)(nil)

// NewDevice creates a device sink over raw PCM in the library's
// default format. The first call initializes the process-wide audio
// context.
func NewDevice(audio io.Reader) (*Device, error) {
	ctx, err := audioContext()
	if err != nil {
		return nil, err
	}
	return &Device{
		player: ctx.NewPlayer(audio),
		done:   make(chan struct{}),
	}, nil
}

// Play starts audio output and the drain watcher.
func (d *Device) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	if d.playing {
		return ErrAlreadyPlaying
	}
	d.playing = true
	d.player.Play()
	go d.watch()
	return nil
}

// Pause suspends output, keeping the player's position.
func (d *Device) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	if !d.playing || d.paused {
		return ErrNotPlaying
	}
	d.paused = true
	d.player.Pause()
	return nil
}

// Resume continues output after Pause.
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	if !d.paused {
		return ErrNotPaused
	}
	d.paused = false
	d.player.Play()
	return nil
}

// Stop abandons output and closes Done. Stopping twice is a no-op.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return nil
	}
	d.stopped = true
	d.playing = false
	err := d.player.Close()
	d.closeDoneLocked()
	return err
}

// Done is closed when the audio finished rendering or the sink was
// stopped.
func (d *Device) Done() <-chan struct{} {
	return d.done
}

// watch polls the player until it drains. A paused player also reports
// not playing, so pause state gates the finish check.
func (d *Device) watch() {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for range ticker.C {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		if !d.paused && !d.player.IsPlaying() {
			d.playing = false
			_ = d.player.Close()
			d.closeDoneLocked()
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
	}
}

func (d *Device) closeDoneLocked() {
	if !d.closed {
		d.closed = true
		close(d.done)
	}
}
