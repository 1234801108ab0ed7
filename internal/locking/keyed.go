// Package locking provides mutual exclusion scoped to an entity id. Listing
// mutations (moderation, edits, purchase reservation) all serialize on the
// listing's key so a read-check-write sequence observes a stable row.
package locking

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

type Keyed struct {
	mu      sync.Mutex
	entries map[uint64]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[uint64]*entry)}
}

// Lock acquires the mutex for key and returns the matching unlock func.
// Entries are reference counted so the map does not grow with dead keys.
func (k *Keyed) Lock(key uint64) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
