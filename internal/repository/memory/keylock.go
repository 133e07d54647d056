package memory

import (
	"sync"
)

// keyLock hands out one mutex per key so that vote transactions on the same
// report serialize while transactions on different reports run in parallel.
// Entries are reference-counted and removed when the last holder unlocks,
// keeping the map from growing with every report ever voted on.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{
		locks: make(map[string]*keyLockEntry),
	}
}

// Lock blocks until the per-key mutex is held.
func (k *keyLock) Lock(key string) {
	k.mu.Lock()
	entry, exists := k.locks[key]
	if !exists {
		entry = &keyLockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the per-key mutex and drops the entry when no other
// goroutine is waiting on it.
func (k *keyLock) Unlock(key string) {
	k.mu.Lock()
	entry := k.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
