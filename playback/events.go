package playback

import (
	"fmt"
	"time"
)

// EventType identifies a playback event.
type EventType int

const (
	// EventStart fires once when the session enters playback.
	EventStart EventType = iota
	// EventBoundary fires as each word boundary is reached.
	EventBoundary
	// EventEnd fires once on natural completion. Stopped sessions do
	// not emit it.
	EventEnd
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventBoundary:
		return "boundary"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is one playback notification. Boundary events carry the spoken
// word and its timeline position; start and end carry only the type.
type Event struct {
	Type EventType

	// Word is the text of the boundary mark.
	Word string

	// Start is the word's offset on the audio timeline.
	Start time.Duration

	// End is the offset at which the word finishes.
	End time.Duration
}

func (e Event) String() string {
	if e.Type == EventBoundary {
		return fmt.Sprintf("boundary(%q, %v, %v)", e.Word, e.Start, e.End)
	}
	return e.Type.String()
}

// subscriber is one event listener. Channels are buffered to the full
// event count of the session, so emission never blocks and delivery
// order is the emission order.
type subscriber struct {
	ch     chan Event
	closed bool
}

// Subscribe registers an event listener and returns its channel plus
// an unsubscribe func. The channel is closed after the final event, or
// immediately when the session is already terminal. Unsubscribe is safe
// to call more than once.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, len(s.marks)+2)
	sub := &subscriber{ch: ch}
	if s.machine.current.Terminal() {
		sub.closed = true
		close(ch)
		return ch, func() {}
	}
	s.subs = append(s.subs, sub)

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub.closed {
			return
		}
		sub.closed = true
		close(sub.ch)
		for i, candidate := range s.subs {
			if candidate == sub {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
	}
}

// emitLocked delivers an event to every live subscriber in
// subscription order. Callers hold s.mu; buffered channels make the
// sends non-blocking.
func (s *Session) emitLocked(ev Event) {
	for _, sub := range s.subs {
		if !sub.closed {
			sub.ch <- ev
		}
	}
}

// teardownLocked closes all subscriber channels after the final event.
func (s *Session) teardownLocked() {
	for _, sub := range s.subs {
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	s.subs = nil
}
