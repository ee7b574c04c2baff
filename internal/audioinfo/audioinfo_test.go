package audioinfo

import (
	"testing"
	"time"
)

// TestPCMDuration tests raw PCM duration arithmetic.
func TestPCMDuration(t *testing.T) {
	tests := []struct {
		name     string
		dataLen  int
		format   Format
		expected time.Duration
	}{
		{
			name:     "one second mono 16-bit",
			dataLen:  44100,
			format:   Format{SampleRate: 22050, Channels: 1, BitDepth: 16},
			expected: time.Second,
		},
		{
			name:     "half second stereo 16-bit",
			dataLen:  44100 * 2,
			format:   Format{SampleRate: 44100, Channels: 2, BitDepth: 16},
			expected: 500 * time.Millisecond,
		},
		{
			name:     "empty data",
			dataLen:  0,
			format:   DefaultFormat(),
			expected: 0,
		},
		{
			name:     "zero sample rate",
			dataLen:  1000,
			format:   Format{SampleRate: 0, Channels: 1, BitDepth: 16},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PCMDuration(tt.dataLen, tt.format); got != tt.expected {
				t.Errorf("PCMDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestSilenceRoundTrip tests that generated silence reports the
// duration it was generated for.
func TestSilenceRoundTrip(t *testing.T) {
	f := DefaultFormat()
	for _, d := range []time.Duration{time.Second, 2 * time.Second, 250 * time.Millisecond} {
		pcm := Silence(d, f)
		got := PCMDuration(len(pcm), f)
		// Integer sample counts may shave less than one sample of time.
		if diff := (got - d).Abs(); diff > time.Millisecond {
			t.Errorf("Silence(%v) plays for %v", d, got)
		}
	}

	if pcm := Silence(-time.Second, f); pcm != nil {
		t.Errorf("Silence(negative) = %d bytes, want nil", len(pcm))
	}
}

// TestWAVDuration tests header parsing against the package's own
// container writer.
func TestWAVDuration(t *testing.T) {
	f := DefaultFormat()
	pcm := Silence(2*time.Second, f)
	wav := WAV(pcm, f)

	got := Duration(wav, "wav")
	if diff := (got - 2*time.Second).Abs(); diff > time.Millisecond {
		t.Errorf("Duration(wav) = %v, want ~2s", got)
	}
}

// TestWAVDurationTruncated tests that a container cut short reports
// only the audio actually present.
func TestWAVDurationTruncated(t *testing.T) {
	f := DefaultFormat()
	pcm := Silence(2*time.Second, f)
	wav := WAV(pcm, f)

	// Keep the header and the first half of the payload.
	cut := wav[:44+len(pcm)/2]
	got := Duration(cut, "wav")
	if diff := (got - time.Second).Abs(); diff > time.Millisecond {
		t.Errorf("Duration(truncated wav) = %v, want ~1s", got)
	}
}

// TestDurationUnreadable tests the formats the package cannot time.
func TestDurationUnreadable(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"mp3 is opaque", []byte("\xff\xfb\x90\x44"), "mp3"},
		{"ogg is opaque", []byte("OggS"), "ogg"},
		{"empty wav", nil, "wav"},
		{"garbage wav", []byte("not a riff header at all"), "wav"},
		{"riff without chunks", []byte("RIFF\x00\x00\x00\x00WAVE"), "wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.data, tt.format); got != 0 {
				t.Errorf("Duration() = %v, want 0", got)
			}
		})
	}
}

// TestDurationPCM tests the raw PCM path of Duration.
func TestDurationPCM(t *testing.T) {
	data := Silence(time.Second, DefaultFormat())
	got := Duration(data, "pcm")
	if diff := (got - time.Second).Abs(); diff > time.Millisecond {
		t.Errorf("Duration(pcm) = %v, want ~1s", got)
	}
}
