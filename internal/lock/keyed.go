package lock

import (
	"context"
	"sync"
)

// Keyed is an in-process mutex arena: one lock per key, created on demand and
// dropped once nobody holds or waits for it. Different keys never block each
// other.
type Keyed[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{} // capacity 1; a token in the channel means "held"
	refs int
}

// NewKeyed returns an empty keyed mutex.
func NewKeyed[K comparable]() *Keyed[K] {
	return &Keyed[K]{locks: make(map[K]*keyedEntry)}
}

// Lock blocks until key is held by the caller or ctx is done. The returned
// func releases the key and must be called exactly once.
func (k *Keyed[K]) Lock(ctx context.Context, key K) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.drop(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.drop(key, e)
		})
	}, nil
}

func (k *Keyed[K]) drop(key K, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// size reports how many keys currently have holders or waiters.
func (k *Keyed[K]) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
