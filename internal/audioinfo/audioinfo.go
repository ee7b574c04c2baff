// Package audioinfo extracts play time from synthesized audio without
// a decoder dependency. WAV containers are read from their headers and
// raw PCM from arithmetic; anything else reports zero and callers fall
// back to a text-based estimate.
package audioinfo

import (
	"encoding/binary"
	"strings"
	"time"
)

// Format describes raw PCM parameters.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is 22.05kHz mono 16-bit, the common denominator of the
// engines' PCM output.
func DefaultFormat() Format {
	return Format{SampleRate: 22050, Channels: 1, BitDepth: 16}
}

// BytesPerSample returns the frame size across all channels.
func (f Format) BytesPerSample() int {
	return f.BitDepth / 8 * f.Channels
}

// BytesPerSecond returns the raw data rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerSample()
}

// Duration reports how long the given audio plays. Zero means the
// format carries no timing the package can read.
func Duration(data []byte, format string) time.Duration {
	switch strings.ToLower(format) {
	case "wav":
		d, ok := wavDuration(data)
		if !ok {
			return 0
		}
		return d
	case "pcm":
		return PCMDuration(len(data), DefaultFormat())
	default:
		return 0
	}
}

// PCMDuration returns the play time of dataLen bytes of raw PCM in f.
func PCMDuration(dataLen int, f Format) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	samples := dataLen / f.BytesPerSample()
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// Silence returns zeroed PCM covering d at format f.
func Silence(d time.Duration, f Format) []byte {
	if d <= 0 {
		return nil
	}
	samples := int(d.Seconds() * float64(f.SampleRate))
	return make([]byte, samples*f.BytesPerSample())
}

// WAV wraps raw PCM in a minimal RIFF container.
func WAV(pcm []byte, f Format) []byte {
	byteRate := f.BytesPerSecond()
	blockAlign := f.BytesPerSample()

	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.BitDepth))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

// wavDuration walks the RIFF chunk list for the fmt byte rate and the
// data payload size.
func wavDuration(data []byte) (time.Duration, bool) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, false
	}

	var byteRate uint32
	var dataSize uint32
	var haveFmt, haveData bool

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8

		switch id {
		case "fmt ":
			if size >= 16 && body+16 <= len(data) {
				byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
				haveFmt = true
			}
		case "data":
			// Trust only bytes actually present; a truncated buffer
			// should not claim the full advertised length.
			avail := len(data) - body
			if int64(size) > int64(avail) {
				size = uint32(avail)
			}
			dataSize = size
			haveData = true
		}
		if haveFmt && haveData {
			break
		}

		off = body + int(size)
		if size%2 == 1 {
			off++ // chunks are word aligned
		}
	}

	if !haveFmt || !haveData || byteRate == 0 {
		return 0, false
	}
	return time.Duration(float64(dataSize) / float64(byteRate) * float64(time.Second)), true
}
