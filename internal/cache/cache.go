// Package cache stores synthesized audio keyed by the full synthesis
// request, so repeated utterances skip the engine round trip. A small
// in-memory LRU tier answers hot lookups; a compressed disk tier keeps
// audio across process restarts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrTooLarge reports an item that exceeds a tier's capacity.
	ErrTooLarge = errors.New("item too large for cache")
)

// Store is the operation set both tiers share.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string)
	Size() int64
	Stats() Stats
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Disk)(nil)
)

// Stats is a point-in-time snapshot of one tier.
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits over total lookups, zero when idle.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Key derives the cache key for a synthesis request. Every parameter
// that changes the rendered audio participates, so distinct requests
// can never collide into one entry.
func Key(engine, voice, format string, rate, pitch float64, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%.2f|%.2f|%s", engine, voice, format, rate, pitch, text)
	return hex.EncodeToString(h.Sum(nil)[:16])
}
