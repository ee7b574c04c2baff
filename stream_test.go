package polyvox_test

import (
	"errors"
	"io"
	"testing"

	"github.com/polyvox/polyvox"
)

func feedStream(parts ...string) *polyvox.SpeechStream {
	ch := make(chan polyvox.AudioChunk, len(parts))
	for i, p := range parts {
		ch <- polyvox.AudioChunk{Data: []byte(p), Final: i == len(parts)-1}
	}
	close(ch)
	return &polyvox.SpeechStream{Chunks: ch, Format: polyvox.FormatPCM}
}

// TestStreamCollect tests draining a stream into one buffer.
func TestStreamCollect(t *testing.T) {
	stream := feedStream("hello ", "world")

	if got := string(stream.Collect()); got != "hello world" {
		t.Errorf("Collect() = %q, want %q", got, "hello world")
	}
}

// TestStreamReader tests the io.Reader adapter across chunk
// boundaries using reads smaller than the chunks.
func TestStreamReader(t *testing.T) {
	stream := feedStream("hello ", "world")
	r := stream.Reader()

	var out []byte
	buf := make([]byte, 4)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	if got := string(out); got != "hello world" {
		t.Errorf("Reader() produced %q, want %q", got, "hello world")
	}
}

// TestStreamReaderEmpty tests that a closed empty stream reads as EOF.
func TestStreamReaderEmpty(t *testing.T) {
	stream := feedStream()

	data, err := io.ReadAll(stream.Reader())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(data) != 0 {
		t.Errorf("ReadAll() = %q, want empty", data)
	}
}
