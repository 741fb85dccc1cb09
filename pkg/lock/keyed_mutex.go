package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// KeyedMutex is the in-process Locker: one slot per key, entries dropped once unused.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	wait    time.Duration
}

type keyedEntry struct {
	slot    chan struct{}
	waiters int
}

func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry), wait: wait}
}

func (m *KeyedMutex) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}

	entry := m.retain(key)
	defer m.drop(key, entry)

	waitCtx, cancel := acquireContext(ctx, m.wait)
	defer cancel()

	select {
	case entry.slot <- struct{}{}:
	case <-waitCtx.Done():
		return notAcquired(ctx)
	}
	defer func() { <-entry.slot }()

	return fn(ctx)
}

func (m *KeyedMutex) retain(key string) *keyedEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &keyedEntry{slot: make(chan struct{}, 1)}
		m.entries[key] = entry
	}
	entry.waiters++
	return entry
}

func (m *KeyedMutex) drop(key string, entry *keyedEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.waiters--
	if entry.waiters == 0 {
		delete(m.entries, key)
	}
}

func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
