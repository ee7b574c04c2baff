package polyvox

import (
	"bytes"
	"io"
	"time"

	"github.com/polyvox/polyvox/boundary"
)

// SpeechStream is a synthesis response the caller drains as it
// arrives. Marks are complete up front even while audio is still
// flowing, so playback can schedule events immediately.
type SpeechStream struct {
	// Chunks delivers audio in arrival order and closes after the
	// final chunk.
	Chunks <-chan AudioChunk

	// Marks is the normalized word timeline for the utterance.
	Marks []boundary.Mark

	// Format is the audio encoding of the chunks.
	Format Format

	// Duration is the expected play time.
	Duration time.Duration
}

// Reader adapts the chunk stream to io.Reader for sinks and encoders
// that want one. Reading consumes the stream.
func (s *SpeechStream) Reader() io.Reader {
	return &streamReader{chunks: s.Chunks}
}

// Collect drains the whole stream into one buffer.
func (s *SpeechStream) Collect() []byte {
	var buf bytes.Buffer
	for chunk := range s.Chunks {
		buf.Write(chunk.Data)
	}
	return buf.Bytes()
}

type streamReader struct {
	chunks <-chan AudioChunk
	rest   []byte
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.rest) == 0 {
		chunk, ok := <-r.chunks
		if !ok {
			return 0, io.EOF
		}
		r.rest = chunk.Data
	}
	n := copy(p, r.rest)
	r.rest = r.rest[n:]
	return n, nil
}
