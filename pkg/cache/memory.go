package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process cache backend. It is the default; all data is
// lost on restart. When the entry budget is exceeded the oldest entry is
// evicted.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
}

type memoryEntry struct {
	value     []byte
	updatedAt time.Time
}

// NewMemory creates a memory cache holding at most maxEntries entries.
// A non-positive maxEntries defaults to 10000.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldestLocked()
	}
	m.entries[key] = memoryEntry{value: stored, updatedAt: time.Now()}
	return nil
}

// Cleanup implements Cache.
func (m *Memory) Cleanup(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if entry.updatedAt.Before(olderThan) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Close implements Cache.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, entry := range m.entries {
		if first || entry.updatedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.updatedAt
			first = false
		}
	}
	if !first {
		delete(m.entries, oldestKey)
	}
}
