package playback

// AudioSink is the audio output a session drives alongside its mark
// timer. Implementations are constructed per utterance with their audio
// already loaded; the session only starts, pauses, resumes, and stops
// them. Done is closed when the audio has been fully rendered, which
// gates the session's natural end.
//
// A session without a sink paces itself on the mark timeline alone.
type AudioSink interface {
	// Play begins audio output.
	Play() error

	// Pause suspends output, keeping position.
	Pause() error

	// Resume continues output after Pause.
	Resume() error

	// Stop abandons output. The sink may close Done early.
	Stop() error

	// Done is closed once the audio has finished rendering.
	Done() <-chan struct{}
}
