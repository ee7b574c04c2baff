package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDisk_BasicOperations(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close()

	key := "req-key"
	value := []byte("audio-bytes")

	if err := d.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := d.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get = %q, want %q", got, value)
	}

	d.Delete(key)
	if _, ok := d.Get(key); ok {
		t.Error("key still present after Delete")
	}
	if n := d.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}

func TestDisk_CompressionRoundTrip(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close()

	// Highly repetitive payload well above the compression floor.
	value := bytes.Repeat([]byte("aaaaaaaabbbbbbbb"), 1024)
	if err := d.Put("clip", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := d.Get("clip")
	if !ok {
		t.Fatal("Get failed after compressed Put")
	}
	if !bytes.Equal(got, value) {
		t.Error("round-tripped value differs from original")
	}

	// The tier accounts compressed bytes, which must be smaller here.
	if size := d.Size(); size >= int64(len(value)) {
		t.Errorf("Size() = %d, want < %d (compressed)", size, len(value))
	}
}

func TestDisk_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	d, err := NewDisk(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	value := bytes.Repeat([]byte("synthesized audio "), 256)
	if err := d.Put("persisted", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDisk(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("persisted")
	if !ok {
		t.Fatal("entry lost across reopen")
	}
	if !bytes.Equal(got, value) {
		t.Error("value differs after reopen")
	}
}

func TestDisk_EvictsLeastRecentlyAccessed(t *testing.T) {
	// Capacity fits two raw entries; compression off to keep sizes
	// predictable.
	d, err := NewDisk(t.TempDir(), 250, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close()

	if err := d.Put("first", make([]byte, 100)); err != nil {
		t.Fatalf("Put first failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := d.Put("second", make([]byte, 100)); err != nil {
		t.Fatalf("Put second failed: %v", err)
	}

	// Touch first so second becomes the eviction candidate.
	time.Sleep(5 * time.Millisecond)
	if _, ok := d.Get("first"); !ok {
		t.Fatal("first missing before eviction")
	}

	if err := d.Put("third", make([]byte, 100)); err != nil {
		t.Fatalf("Put third failed: %v", err)
	}

	if _, ok := d.Get("second"); ok {
		t.Error("second should have been evicted")
	}
	if _, ok := d.Get("first"); !ok {
		t.Error("first should have survived")
	}
	if stats := d.Stats(); stats.Evictions == 0 {
		t.Error("Stats().Evictions = 0, want > 0")
	}
}

func TestDisk_TooLarge(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 10, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close()

	if err := d.Put("big", make([]byte, 11)); err != ErrTooLarge {
		t.Errorf("Put oversized = %v, want ErrTooLarge", err)
	}
}

func TestDisk_MissingFileDropsEntry(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir, 1<<20, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close()

	if err := d.Put("doomed", []byte("value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Delete the entry file out from under the index.
	entries, err := filepath.Glob(filepath.Join(dir, "*.aud"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one entry file, got %v (err %v)", entries, err)
	}
	os.Remove(entries[0])

	if _, ok := d.Get("doomed"); ok {
		t.Error("Get should miss when the entry file is gone")
	}
	if n := d.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0 after dropping dead entry", n)
	}
}

func TestDisk_RemoveOlderThan(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close()

	d.Put("old", []byte("value"))
	time.Sleep(30 * time.Millisecond)
	cutoff := time.Now()
	d.Put("fresh", []byte("value"))

	if removed := d.RemoveOlderThan(cutoff); removed != 1 {
		t.Errorf("RemoveOlderThan = %d, want 1", removed)
	}
	if _, ok := d.Get("fresh"); !ok {
		t.Error("fresh entry should have survived")
	}
}
