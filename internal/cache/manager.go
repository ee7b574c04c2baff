package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a Manager. A blank DiskDir runs memory-only.
type Options struct {
	MemoryCapacity   int64
	DiskDir          string
	DiskCapacity     int64
	CompressionLevel int

	// TTL ages entries out during janitor runs; zero keeps forever.
	TTL time.Duration

	// CleanupInterval is how often the janitor runs; zero disables it.
	CleanupInterval time.Duration

	Logger *log.Logger
}

// Manager fronts both tiers. Lookups try memory first and promote disk
// hits back into memory; writes land in both tiers.
type Manager struct {
	memory *Memory
	disk   *Disk // nil when running memory-only
	logger *log.Logger
	ttl    time.Duration

	mu         sync.Mutex
	memoryHits int64
	diskHits   int64
	misses     int64
	promotions int64

	janitorStop chan struct{}
	janitorWg   sync.WaitGroup
}

// ManagerStats aggregates both tiers with the manager's own counters.
type ManagerStats struct {
	Hits       int64
	Misses     int64
	MemoryHits int64
	DiskHits   int64
	Promotions int64
	Memory     Stats
	Disk       Stats
}

// HitRate returns combined hits over total lookups.
func (s ManagerStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// NewManager builds the tiers and starts the janitor when an interval
// is configured.
func NewManager(opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := &Manager{
		memory:      NewMemory(opts.MemoryCapacity),
		logger:      logger,
		ttl:         opts.TTL,
		janitorStop: make(chan struct{}),
	}

	if opts.DiskDir != "" {
		disk, err := NewDisk(opts.DiskDir, opts.DiskCapacity, opts.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("open disk cache: %w", err)
		}
		m.disk = disk
	}

	if opts.CleanupInterval > 0 {
		m.janitorWg.Add(1)
		go m.janitor(opts.CleanupInterval)
	}

	return m, nil
}

// Get returns the cached audio for key. A disk hit is promoted into
// memory so the next lookup stays off the filesystem.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.count(&m.memoryHits)
		return data, true
	}
	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			m.count(&m.diskHits)
			m.count(&m.promotions)
			_ = m.memory.Put(key, data) // best effort
			return data, true
		}
	}
	m.count(&m.misses)
	return nil, false
}

// Put stores audio in both tiers. An item too large for one tier still
// lands in the other.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if memErr != nil && memErr != ErrTooLarge {
		return fmt.Errorf("memory cache: %w", memErr)
	}
	if m.disk != nil {
		if err := m.disk.Put(key, value); err != nil && err != ErrTooLarge {
			return fmt.Errorf("disk cache: %w", err)
		}
	}
	return nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) {
	m.memory.Delete(key)
	if m.disk != nil {
		m.disk.Delete(key)
	}
}

// Stats returns a combined snapshot.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := ManagerStats{
		Hits:       m.memoryHits + m.diskHits,
		Misses:     m.misses,
		MemoryHits: m.memoryHits,
		DiskHits:   m.diskHits,
		Promotions: m.promotions,
	}
	m.mu.Unlock()

	stats.Memory = m.memory.Stats()
	if m.disk != nil {
		stats.Disk = m.disk.Stats()
	}
	return stats
}

// Close stops the janitor and persists the disk index.
func (m *Manager) Close() error {
	close(m.janitorStop)
	m.janitorWg.Wait()
	if m.disk != nil {
		return m.disk.Close()
	}
	return nil
}

func (m *Manager) count(field *int64) {
	m.mu.Lock()
	*field++
	m.mu.Unlock()
}

// janitor ages out expired entries on a fixed interval.
func (m *Manager) janitor(interval time.Duration) {
	defer m.janitorWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.janitorStop:
			return
		}
	}
}

func (m *Manager) sweep() {
	if m.ttl <= 0 {
		return
	}
	pruned := m.memory.Prune(m.ttl)
	removed := 0
	if m.disk != nil {
		removed = m.disk.RemoveOlderThan(time.Now().Add(-m.ttl))
	}
	if pruned > 0 || removed > 0 {
		m.logger.Debug("cache sweep", "memory", pruned, "disk", removed)
	}
}
