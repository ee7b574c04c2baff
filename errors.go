package polyvox

import (
	"errors"
	"fmt"
)

// Common errors for the synthesis layer.
var (
	// Input errors
	ErrEmptyInput    = errors.New("empty input text")
	ErrInputTooLong  = errors.New("input text exceeds configured limit")
	ErrInvalidMarkup = errors.New("markup document failed validation")

	// Engine errors
	ErrNoEngine        = errors.New("no engine adapter configured")
	ErrVoiceNotFound   = errors.New("requested voice not found")
	ErrNoAudio         = errors.New("engine returned no audio")
	ErrEngineExhausted = errors.New("all engines failed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// AdapterError wraps an engine failure with the adapter and the
// operation that produced it, so multi-engine callers can tell which
// vendor broke.
type AdapterError struct {
	Engine string
	Op     string
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("engine %s: %s: %v", e.Engine, e.Op, e.Err)
}

// Unwrap returns the underlying engine error.
func (e *AdapterError) Unwrap() error { return e.Err }
