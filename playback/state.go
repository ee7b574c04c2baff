// Package playback drives timed word-boundary event delivery for one
// synthesized utterance. A Session owns a normalized mark sequence and
// an optional audio sink; it walks the marks on a wall-clock timer,
// emitting ordered start/boundary/end events to subscribers while a
// guarded state machine keeps control calls honest.
package playback

// State is the lifecycle phase of a playback session.
type State int

const (
	// StateIdle is a constructed session that has not started.
	StateIdle State = iota
	// StateStarting is the transient phase while audio output spins up.
	StateStarting
	// StatePlaying is active playback with the mark timer running.
	StatePlaying
	// StatePaused is playback frozen with position preserved.
	StatePaused
	// StateStopped is terminal: playback was cancelled.
	StateStopped
	// StateEnded is terminal: playback ran to natural completion.
	StateEnded
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final. Terminal sessions emit
// no further events and cannot transition anywhere.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateEnded
}

// machine validates session state transitions against a fixed table.
type machine struct {
	current     State
	transitions map[State][]State
}

func newMachine() *machine {
	return &machine{
		current: StateIdle,
		transitions: map[State][]State{
			StateIdle:     {StateStarting, StateStopped},
			StateStarting: {StatePlaying, StateStopped},
			StatePlaying:  {StatePaused, StateStopped, StateEnded},
			StatePaused:   {StatePlaying, StateStopped},
			// StateStopped and StateEnded are terminal.
		},
	}
}

// can reports whether a transition from the current state to the given
// state is allowed.
func (m *machine) can(to State) bool {
	for _, s := range m.transitions[m.current] {
		if s == to {
			return true
		}
	}
	return false
}

// to performs the transition, returning false if the table forbids it.
func (m *machine) to(state State) bool {
	if !m.can(state) {
		return false
	}
	m.current = state
	return true
}
