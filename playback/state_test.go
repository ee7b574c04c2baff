package playback

import "testing"

// TestStateString tests the String() method for State.
func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "idle"},
		{StateStarting, "starting"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{StateStopped, "stopped"},
		{StateEnded, "ended"},
		{State(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.state.String(); result != tt.expected {
				t.Errorf("State.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestStateTerminal tests the Terminal() method.
func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateIdle, false},
		{StateStarting, false},
		{StatePlaying, false},
		{StatePaused, false},
		{StateStopped, true},
		{StateEnded, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if result := tt.state.Terminal(); result != tt.expected {
				t.Errorf("State.Terminal() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestMachineTransitions tests the transition table.
func TestMachineTransitions(t *testing.T) {
	tests := []struct {
		name        string
		from        State
		to          State
		shouldAllow bool
	}{
		// Valid transitions
		{"idle to starting", StateIdle, StateStarting, true},
		{"idle to stopped", StateIdle, StateStopped, true},
		{"starting to playing", StateStarting, StatePlaying, true},
		{"starting to stopped", StateStarting, StateStopped, true},
		{"playing to paused", StatePlaying, StatePaused, true},
		{"playing to stopped", StatePlaying, StateStopped, true},
		{"playing to ended", StatePlaying, StateEnded, true},
		{"paused to playing", StatePaused, StatePlaying, true},
		{"paused to stopped", StatePaused, StateStopped, true},

		// Invalid transitions
		{"idle to playing", StateIdle, StatePlaying, false},
		{"idle to paused", StateIdle, StatePaused, false},
		{"idle to ended", StateIdle, StateEnded, false},
		{"starting to paused", StateStarting, StatePaused, false},
		{"playing to starting", StatePlaying, StateStarting, false},
		{"playing to idle", StatePlaying, StateIdle, false},
		{"paused to ended", StatePaused, StateEnded, false},
		{"paused to paused", StatePaused, StatePaused, false},

		// Terminal states allow nothing
		{"stopped to starting", StateStopped, StateStarting, false},
		{"stopped to playing", StateStopped, StatePlaying, false},
		{"ended to starting", StateEnded, StateStarting, false},
		{"ended to stopped", StateEnded, StateStopped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine()
			m.current = tt.from

			result := m.to(tt.to)
			if result != tt.shouldAllow {
				t.Errorf("transition from %v to %v: got %v, want %v",
					tt.from, tt.to, result, tt.shouldAllow)
			}

			if tt.shouldAllow && m.current != tt.to {
				t.Errorf("state not changed: current = %v, want %v", m.current, tt.to)
			} else if !tt.shouldAllow && m.current != tt.from {
				t.Errorf("state changed on invalid transition: current = %v, want %v",
					m.current, tt.from)
			}
		})
	}
}

// TestMachineSequentialTransitions tests a full playback lifecycle.
func TestMachineSequentialTransitions(t *testing.T) {
	m := newMachine()

	if m.current != StateIdle {
		t.Fatalf("initial state = %v, want StateIdle", m.current)
	}

	// Idle -> Starting -> Playing -> Paused -> Playing -> Ended
	transitions := []struct {
		to       State
		expected bool
	}{
		{StateStarting, true},
		{StatePlaying, true},
		{StatePaused, true},
		{StatePlaying, true},
		{StateEnded, true},
		{StatePlaying, false}, // terminal
	}

	for i, trans := range transitions {
		result := m.to(trans.to)
		if result != trans.expected {
			t.Errorf("transition %d to %v: got %v, want %v",
				i, trans.to, result, trans.expected)
		}
	}
}
