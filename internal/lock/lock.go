// Package lock provides keyed mutual exclusion for booking decisions.
//
// A Locker serialises work on the same keys while letting work on disjoint
// keys proceed in parallel. Multi-key locks are always taken in sorted order,
// so two callers locking overlapping key sets cannot deadlock.
package lock

import (
	"context"
	"slices"
	"sync"
)

// Locker acquires exclusive locks on a set of keys.
type Locker interface {
	// Lock blocks until every key is held or ctx is done. The returned
	// unlock releases all of them and is safe to call more than once.
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// normalize returns keys sorted with duplicates removed.
func normalize(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// KeyedMutex is an in-process Locker. The zero value is ready to use.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// Lock implements Locker.
func (m *KeyedMutex) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)

	held := make([]string, 0, len(keys))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.release(held[i], true)
		}
	}

	for _, key := range keys {
		if err := m.acquire(ctx, key); err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}

func (m *KeyedMutex) acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*keyLock)
	}
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.release(key, false)
		return ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, held bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.locks[key]
	if held {
		<-l.ch
	}
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// size returns the number of keys currently tracked.
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
