package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is the in-process tier: a capacity-bounded LRU over raw
// audio bytes.
type Memory struct {
	mu       sync.Mutex
	capacity int64
	size     int64

	items map[string]*list.Element
	order *list.List // front = most recently used

	hits      int64
	misses    int64
	evictions int64
}

type memoryEntry struct {
	key      string
	data     []byte
	storedAt time.Time
}

// NewMemory creates a memory tier holding at most capacity bytes.
func NewMemory(capacity int64) *Memory {
	return &Memory{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the audio for key, refreshing its recency.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		m.misses++
		return nil, false
	}
	m.order.MoveToFront(elem)
	m.hits++
	return elem.Value.(*memoryEntry).data, true
}

// Put stores audio under key, evicting from the cold end until it
// fits. Items larger than the whole tier are refused.
func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	valueSize := int64(len(value))
	if valueSize > m.capacity {
		return ErrTooLarge
	}

	if elem, ok := m.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		m.size += valueSize - int64(len(entry.data))
		entry.data = value
		entry.storedAt = time.Now()
		m.order.MoveToFront(elem)
		return nil
	}

	for m.size+valueSize > m.capacity && m.order.Len() > 0 {
		m.evictOldest()
	}

	elem := m.order.PushFront(&memoryEntry{key: key, data: value, storedAt: time.Now()})
	m.items[key] = elem
	m.size += valueSize
	return nil
}

// Delete removes key if present.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.removeLocked(elem)
	}
}

// Size returns the tier's current byte usage.
func (m *Memory) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Len returns the number of cached items.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Stats returns a usage snapshot.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Capacity:  m.capacity,
		Size:      m.size,
		Items:     int64(len(m.items)),
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
	}
}

// Prune drops entries stored longer ago than maxAge, returning how
// many were removed.
func (m *Memory) Prune(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for elem := m.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry).storedAt.Before(cutoff) {
			m.removeLocked(elem)
			pruned++
		}
		elem = prev
	}
	return pruned
}

func (m *Memory) evictOldest() {
	if elem := m.order.Back(); elem != nil {
		m.removeLocked(elem)
		m.evictions++
	}
}

func (m *Memory) removeLocked(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	m.order.Remove(elem)
	delete(m.items, entry.key)
	m.size -= int64(len(entry.data))
}
