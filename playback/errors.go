package playback

import (
	"errors"
	"fmt"
)

// Package sentinel errors.
var (
	// ErrInvalidTransition reports a control call that the session
	// state forbids, like starting a session that is already playing.
	ErrInvalidTransition = errors.New("invalid playback transition")

	// ErrSinkFailed reports an audio sink that could not start or
	// control output.
	ErrSinkFailed = errors.New("audio sink failed")
)

// StateError is returned synchronously when a control call is invalid
// for the session's current state.
type StateError struct {
	Op   string // the control call: start, pause, resume, stop
	From State
	To   State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("playback: cannot %s from state %s", e.Op, e.From)
}

func (e *StateError) Unwrap() error { return ErrInvalidTransition }
