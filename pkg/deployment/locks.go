package deployment

import "sync"

// keyedMutex serializes work per key. Entries are reference counted and
// removed once the last holder releases, so the map stays bounded by the
// number of in-flight keys.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[int]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[int]*lockEntry)}
}

// lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) lock(key int) func() {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &lockEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
