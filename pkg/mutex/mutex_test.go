package mutex

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	km := New(0)
	defer km.Stop()

	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, _, err := km.Lock(context.Background(), "same")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := New(0)
	defer km.Stop()

	unlockA, _, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, ok := km.TryLock("b")
	require.True(t, ok)
	unlockB()
}

func TestKeyedMutex_TryLockHeld(t *testing.T) {
	km := New(0)
	defer km.Stop()

	unlock, ok := km.TryLock("k")
	require.True(t, ok)

	_, ok = km.TryLock("k")
	assert.False(t, ok)

	unlock()
	// Unlock is idempotent
	unlock()

	again, ok := km.TryLock("k")
	require.True(t, ok)
	again()
}

func TestKeyedMutex_LockHonoursContext(t *testing.T) {
	km := New(0)
	defer km.Stop()

	unlock, _, err := km.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, waited, err := km.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, waited, 20*time.Millisecond)
}

func TestKeyedMutex_RemoveIdle(t *testing.T) {
	km := New(0)
	defer km.Stop()

	unlockA, _, _ := km.Lock(context.Background(), "a")
	unlockB, _, _ := km.Lock(context.Background(), "b")
	unlockB()
	require.Equal(t, 2, km.Size())

	// "a" is still held, only "b" goes
	assert.Equal(t, 1, km.RemoveIdle(0))
	assert.Equal(t, 1, km.Size())

	unlockA()
	assert.Equal(t, 1, km.RemoveIdle(0))
	assert.Equal(t, 0, km.Size())
}
