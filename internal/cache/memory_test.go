package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemory_BasicOperations(t *testing.T) {
	m := NewMemory(1024)

	key := "req-key"
	value := []byte("audio-bytes")

	if err := m.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := m.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(got) != string(value) {
		t.Errorf("Get = %q, want %q", got, value)
	}

	if size := m.Size(); size != int64(len(value)) {
		t.Errorf("Size() = %d, want %d", size, len(value))
	}
	if n := m.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}

	m.Delete(key)
	if _, ok := m.Get(key); ok {
		t.Error("key still present after Delete")
	}
	if size := m.Size(); size != 0 {
		t.Errorf("Size() after delete = %d, want 0", size)
	}
}

func TestMemory_LRUEviction(t *testing.T) {
	m := NewMemory(100)

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := m.Put(key, make([]byte, 20)); err != nil {
			t.Fatalf("Put failed for %s: %v", key, err)
		}
	}

	// Touch key-0 and key-1 so key-2 is the cold end.
	m.Get("key-0")
	m.Get("key-1")

	if err := m.Put("key-new", make([]byte, 30)); err != nil {
		t.Fatalf("Put failed for key-new: %v", err)
	}

	if _, ok := m.Get("key-2"); ok {
		t.Error("key-2 should have been evicted")
	}
	if _, ok := m.Get("key-0"); !ok {
		t.Error("key-0 should have survived eviction")
	}
	if _, ok := m.Get("key-new"); !ok {
		t.Error("key-new should be present")
	}

	if stats := m.Stats(); stats.Evictions == 0 {
		t.Error("Stats().Evictions = 0, want > 0")
	}
}

func TestMemory_UpdateExisting(t *testing.T) {
	m := NewMemory(1024)

	if err := m.Put("key", []byte("short")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := m.Put("key", []byte("a longer replacement")); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, ok := m.Get("key")
	if !ok {
		t.Fatal("key not found after update")
	}
	if string(got) != "a longer replacement" {
		t.Errorf("Get = %q, want updated value", got)
	}
	if size := m.Size(); size != int64(len("a longer replacement")) {
		t.Errorf("Size() = %d, want %d", size, len("a longer replacement"))
	}
	if n := m.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func TestMemory_TooLarge(t *testing.T) {
	m := NewMemory(10)

	if err := m.Put("big", make([]byte, 11)); err != ErrTooLarge {
		t.Errorf("Put oversized = %v, want ErrTooLarge", err)
	}
	if n := m.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}

func TestMemory_Stats(t *testing.T) {
	m := NewMemory(1024)

	m.Put("key", []byte("value"))
	m.Get("key")
	m.Get("key")
	m.Get("missing")

	stats := m.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if rate := stats.HitRate(); rate < 0.66 || rate > 0.67 {
		t.Errorf("HitRate() = %f, want ~0.667", rate)
	}
}

func TestMemory_Prune(t *testing.T) {
	m := NewMemory(1024)

	m.Put("old", []byte("value"))
	time.Sleep(30 * time.Millisecond)
	m.Put("fresh", []byte("value"))

	pruned := m.Prune(20 * time.Millisecond)
	if pruned != 1 {
		t.Errorf("Prune = %d, want 1", pruned)
	}
	if _, ok := m.Get("old"); ok {
		t.Error("old entry should have been pruned")
	}
	if _, ok := m.Get("fresh"); !ok {
		t.Error("fresh entry should have survived")
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory(1 << 20)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j)
				m.Put(key, []byte("value"))
				m.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if n := m.Len(); n != 500 {
		t.Errorf("Len() = %d, want 500", n)
	}
}
