// Package keylock hands out one mutex per int64 key so that work on the same
// key is serialized while different keys proceed independently.
package keylock

import (
	"slices"
	"sync"
)

// Arena lazily creates a mutex per key. Mutexes are never removed, which is
// fine for a bounded key space such as room ids.
type Arena struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func New() *Arena {
	return &Arena{locks: make(map[int64]*sync.Mutex)}
}

func (a *Arena) get(key int64) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.locks == nil {
		a.locks = make(map[int64]*sync.Mutex)
	}
	m, ok := a.locks[key]
	if !ok {
		m = &sync.Mutex{}
		a.locks[key] = m
	}
	return m
}

// Lock acquires the mutexes for all keys in ascending order and returns a
// function that releases them. Duplicate keys are locked once.
func (a *Arena) Lock(keys ...int64) (unlock func()) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, k := range sorted {
		m := a.get(k)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
