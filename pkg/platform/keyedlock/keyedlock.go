// Package keyedlock provides per-key mutual exclusion. The guard and the
// lifecycle manager share one KeyedMutex so consent reads, consent mutations,
// and erasure of the same subject serialize against each other.
package keyedlock

import "sync"

// KeyedMutex serializes operations that share a key. Locks are created on
// first use and retained for the process lifetime; the key space here is
// bounded by the subject population, so no eviction is needed.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KeyedMutex) Lock(key string) {
	k.lockFor(key).Lock()
}

// Unlock releases the mutex for key. Unlocking a key that was never locked
// panics, matching sync.Mutex semantics.
func (k *KeyedMutex) Unlock(key string) {
	k.lockFor(key).Unlock()
}

func (k *KeyedMutex) lockFor(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}
