package mutex

import (
	"context"
	"sync"
	"time"
)

// KeyedMutex serialises work per key, such as create/update calls that
// must check a natural key for duplicates before persisting it.
type KeyedMutex struct {
	locks      map[string]*keyLock
	mapMutex   sync.Mutex
	cleanupTTL time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// keyLock is a one-slot semaphore so acquisition can honour a context
type keyLock struct {
	sem        chan struct{}
	holders    int
	lastAccess time.Time
}

// New creates a KeyedMutex. Idle keys are dropped every cleanupTTL; a
// non-positive TTL disables the background sweep.
func New(cleanupTTL time.Duration) *KeyedMutex {
	km := &KeyedMutex{
		locks:      make(map[string]*keyLock),
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}

	if cleanupTTL > 0 {
		go km.cleanup()
	}

	return km
}

// Lock blocks until key is free or ctx is done. On success it returns the
// release func and how long the caller waited.
func (km *KeyedMutex) Lock(ctx context.Context, key string) (func(), time.Duration, error) {
	start := time.Now()
	entry := km.acquireEntry(key)

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		km.releaseEntry(key, entry)
		return nil, time.Since(start), ctx.Err()
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			<-entry.sem
			km.releaseEntry(key, entry)
		})
	}

	return unlock, time.Since(start), nil
}

// TryLock acquires key without waiting
func (km *KeyedMutex) TryLock(key string) (func(), bool) {
	entry := km.acquireEntry(key)

	select {
	case entry.sem <- struct{}{}:
	default:
		km.releaseEntry(key, entry)
		return nil, false
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			km.releaseEntry(key, entry)
		})
	}, true
}

func (km *KeyedMutex) acquireEntry(key string) *keyLock {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	entry, exists := km.locks[key]
	if !exists {
		entry = &keyLock{sem: make(chan struct{}, 1)}
		km.locks[key] = entry
	}
	entry.holders++
	entry.lastAccess = time.Now()
	return entry
}

func (km *KeyedMutex) releaseEntry(key string, entry *keyLock) {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	entry.holders--
	entry.lastAccess = time.Now()
}

// Size returns the number of keys currently tracked
func (km *KeyedMutex) Size() int {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()
	return len(km.locks)
}

func (km *KeyedMutex) cleanup() {
	ticker := time.NewTicker(km.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			km.RemoveIdle(km.cleanupTTL)
		case <-km.stopCh:
			return
		}
	}
}

// RemoveIdle drops keys nobody holds or waits on that have been idle longer
// than maxIdle, and returns how many were removed
func (km *KeyedMutex) RemoveIdle(maxIdle time.Duration) int {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	removed := 0
	now := time.Now()
	for key, entry := range km.locks {
		if entry.holders == 0 && now.Sub(entry.lastAccess) >= maxIdle {
			delete(km.locks, key)
			removed++
		}
	}
	return removed
}

// Stop stops the cleanup goroutine
func (km *KeyedMutex) Stop() {
	km.stopOnce.Do(func() {
		close(km.stopCh)
	})
}
