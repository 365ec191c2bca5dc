package ratelimiter

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type neverSweep struct{}

func (neverSweep) ShouldSweep() bool { return false }

func newTestLimiter(clock *fakeClock, opts ...Option) *RateLimiter {
	opts = append([]Option{WithClock(clock.Now), WithSweepPolicy(neverSweep{})}, opts...)
	return New(nil, opts...)
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, Rule{Requests: 5, Window: 60 * time.Second}, rules[OperationWalletCreation])
	assert.Equal(t, Rule{Requests: 100, Window: 60 * time.Second}, rules[OperationTokenSearch])
	assert.Equal(t, Rule{Requests: 200, Window: 60 * time.Second}, rules[OperationBalanceCheck])
}

func TestRateLimiter_Check(t *testing.T) {
	t.Run("RemainingCountsDownThenDenies", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestLimiter(clock)

		for _, expected := range []int{4, 3, 2, 1, 0} {
			result := rl.Check(OperationWalletCreation, "clientA")
			require.True(t, result.Allowed)
			assert.Equal(t, expected, result.Remaining)
			assert.Equal(t, 5, result.Limit)
		}

		denied := rl.Check(OperationWalletCreation, "clientA")
		assert.False(t, denied.Allowed)
		assert.Equal(t, 0, denied.Remaining)
		assert.Equal(t, clock.Now().Add(60*time.Second), denied.ResetTime)
	})

	t.Run("WindowResetStartsFresh", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestLimiter(clock)

		for i := 0; i < 6; i++ {
			rl.Check(OperationWalletCreation, "clientA")
		}

		clock.Advance(60 * time.Second)

		result := rl.Check(OperationWalletCreation, "clientA")
		assert.True(t, result.Allowed)
		assert.Equal(t, 4, result.Remaining)
		assert.Equal(t, clock.Now().Add(60*time.Second), result.ResetTime)
	})

	t.Run("DeniedCallsDoNotIncrement", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestLimiter(clock)

		for i := 0; i < 10; i++ {
			rl.Check(OperationWalletCreation, "clientA")
		}

		status := rl.Status("clientA")
		assert.Equal(t, 5, status[OperationWalletCreation].Requests)
	})

	t.Run("TokenSearchQuota", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestLimiter(clock)

		for i := 1; i <= 100; i++ {
			require.True(t, rl.Check(OperationTokenSearch, "clientA").Allowed, "call %d", i)
		}
		assert.False(t, rl.Check(OperationTokenSearch, "clientA").Allowed)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestLimiter(clock)

		for i := 0; i < 5; i++ {
			rl.Check(OperationWalletCreation, "clientA")
		}

		assert.False(t, rl.Check(OperationWalletCreation, "clientA").Allowed)
		assert.True(t, rl.Check(OperationWalletCreation, "clientB").Allowed)
		assert.True(t, rl.Check(OperationBalanceCheck, "clientA").Allowed)
	})

	t.Run("UnknownOperationFailsOpen", func(t *testing.T) {
		rl := newTestLimiter(newFakeClock())

		result := rl.Check("UNKNOWN_OP", "clientA")
		assert.True(t, result.Allowed)
		assert.False(t, result.Configured)
		assert.Equal(t, 0, rl.Size())
	})

	t.Run("UnknownOperationFailClosed", func(t *testing.T) {
		rl := newTestLimiter(newFakeClock(), WithFailClosed(true))

		result := rl.Check("UNKNOWN_OP", "clientA")
		assert.False(t, result.Allowed)
		assert.False(t, result.Configured)
	})
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := newTestLimiter(newFakeClock())

	for i := 0; i < 5; i++ {
		rl.Check(OperationWalletCreation, "clientA")
	}
	require.False(t, rl.Check(OperationWalletCreation, "clientA").Allowed)

	rl.Reset(OperationWalletCreation, "clientA")

	result := rl.Check(OperationWalletCreation, "clientA")
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)

	// Resetting a key that does not exist is a no-op
	rl.Reset(OperationTokenSearch, "nobody")
}

func TestRateLimiter_Status(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(clock)

	rl.Check(OperationWalletCreation, "clientA")
	rl.Check(OperationWalletCreation, "clientA")

	status := rl.Status("clientA")
	require.Len(t, status, 3)
	assert.Equal(t, 2, status[OperationWalletCreation].Requests)
	assert.True(t, status[OperationWalletCreation].Allowed)
	assert.Equal(t, 0, status[OperationTokenSearch].Requests)

	// Status is read-only
	assert.Equal(t, 1, rl.Size())

	clock.Advance(2 * time.Minute)
	status = rl.Status("clientA")
	assert.Equal(t, 0, status[OperationWalletCreation].Requests)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(clock)

	rl.Check(OperationWalletCreation, "clientA")
	rl.Check(OperationTokenSearch, "clientB")
	require.Equal(t, 2, rl.Size())

	clock.Advance(30 * time.Second)
	assert.Equal(t, 0, rl.Cleanup())

	clock.Advance(31 * time.Second)
	assert.Equal(t, 2, rl.Cleanup())
	assert.Equal(t, 0, rl.Size())
}

func TestRateLimiter_SweepPolicy(t *testing.T) {
	clock := newFakeClock()
	rl := New(nil, WithClock(clock.Now), WithSweepPolicy(&EveryNSweep{N: 3}))

	rl.Check(OperationWalletCreation, "stale")
	clock.Advance(61 * time.Second)

	rl.Check(OperationWalletCreation, "a")
	assert.Equal(t, 2, rl.Size())

	// Third allowed check sweeps the expired "stale" entry
	rl.Check(OperationWalletCreation, "b")
	assert.Equal(t, 2, rl.Size())
}

func TestProbabilisticSweep(t *testing.T) {
	assert.False(t, NewProbabilisticSweep(0).ShouldSweep())
	assert.True(t, NewProbabilisticSweep(1).ShouldSweep())
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := New(map[string]Rule{"OP": {Requests: 50, Window: time.Minute}})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Check("OP", "shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestHeaders(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Allowed", func(t *testing.T) {
		headers := Headers(Result{Allowed: true, Remaining: 3, Limit: 5, ResetTime: now.Add(time.Minute), Configured: true}, now)
		assert.Equal(t, "5", headers[HeaderLimit])
		assert.Equal(t, "3", headers[HeaderRemaining])
		assert.Equal(t, fmt.Sprint(now.Add(time.Minute).Unix()), headers[HeaderReset])
		assert.NotContains(t, headers, HeaderRetryAfter)
	})

	t.Run("DeniedRoundsRetryAfterUp", func(t *testing.T) {
		headers := Headers(Result{Allowed: false, Limit: 5, ResetTime: now.Add(1500 * time.Millisecond), Configured: true}, now)
		assert.Equal(t, "2", headers[HeaderRetryAfter])
	})

	t.Run("Unconfigured", func(t *testing.T) {
		assert.Empty(t, Headers(Result{Allowed: true}, now))
	})

	t.Run("RetryAfterDefault", func(t *testing.T) {
		assert.Equal(t, DefaultRetryAfter, RetryAfterSeconds(time.Time{}, now))
	})
}
