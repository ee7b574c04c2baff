//go:build nocgo
// +build nocgo

package sink

import (
	"io"

	"github.com/polyvox/polyvox/playback"
)

// Device stub for nocgo builds. The constructor always fails so
// callers fall back to the timer sink.
type Device struct{}

var _ playback.AudioSink = (*Device)(nil)

// NewDevice always returns ErrNoDevice in nocgo builds.
func NewDevice(audio io.Reader) (*Device, error) {
	return nil, ErrNoDevice
}

func (d *Device) Play() error {
	return ErrNoDevice
}

func (d *Device) Pause() error {
	return ErrNoDevice
}

func (d *Device) Resume() error {
	return ErrNoDevice
}

func (d *Device) Stop() error {
	return nil
}

func (d *Device) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
