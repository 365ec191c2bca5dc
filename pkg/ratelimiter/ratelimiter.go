package ratelimiter

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Operation names with a default quota
const (
	OperationWalletCreation = "WALLET_CREATION"
	OperationTokenSearch    = "TOKEN_SEARCH"
	OperationBalanceCheck   = "BALANCE_CHECK"
)

// DefaultSweepProbability is the chance an allowed check sweeps expired entries
const DefaultSweepProbability = 0.01

// Rule is the quota for one operation: Requests per Window
type Rule struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window_ms"`
}

// DefaultRules returns the built-in per-operation quotas
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		OperationWalletCreation: {Requests: 5, Window: 60 * time.Second},
		OperationTokenSearch:    {Requests: 100, Window: 60 * time.Second},
		OperationBalanceCheck:   {Requests: 200, Window: 60 * time.Second},
	}
}

// Entry tracks request count and reset time for an (operation, client) pair
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Result is the outcome of a single Check
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
	Limit     int
	// Configured is false when the operation had no rule and the check failed open
	Configured bool
}

// Status is a read-only view of one operation's counter for a client
type Status struct {
	Requests  int       `json:"requests"`
	Limit     int       `json:"limit"`
	ResetTime time.Time `json:"reset_time"`
	Allowed   bool      `json:"allowed"`
}

// Clock supplies the current time
type Clock func() time.Time

// SweepPolicy decides whether an allowed check also sweeps expired entries
type SweepPolicy interface {
	ShouldSweep() bool
}

// ProbabilisticSweep sweeps on a random fraction of allowed checks
type ProbabilisticSweep struct {
	Probability float64
	mu          sync.Mutex
	rnd         *rand.Rand
}

// NewProbabilisticSweep creates a sweep policy that fires with probability p
func NewProbabilisticSweep(p float64) *ProbabilisticSweep {
	return &ProbabilisticSweep{
		Probability: p,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ShouldSweep implements SweepPolicy
func (p *ProbabilisticSweep) ShouldSweep() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64() < p.Probability
}

// EveryNSweep sweeps deterministically on every Nth allowed check
type EveryNSweep struct {
	N     int
	mu    sync.Mutex
	calls int
}

// ShouldSweep implements SweepPolicy
func (e *EveryNSweep) ShouldSweep() bool {
	if e.N <= 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.calls >= e.N {
		e.calls = 0
		return true
	}
	return false
}

// Option configures a RateLimiter
type Option func(*RateLimiter)

// WithClock replaces time.Now, mainly for tests
func WithClock(clock Clock) Option {
	return func(rl *RateLimiter) { rl.now = clock }
}

// WithSweepPolicy replaces the default probabilistic sweep
func WithSweepPolicy(policy SweepPolicy) Option {
	return func(rl *RateLimiter) { rl.sweep = policy }
}

// WithFailClosed denies operations that have no configured rule
func WithFailClosed(failClosed bool) Option {
	return func(rl *RateLimiter) { rl.failClosed = failClosed }
}

// WithLogger sets the logger used for unknown-operation warnings
func WithLogger(log *zap.Logger) Option {
	return func(rl *RateLimiter) { rl.log = log }
}

// RateLimiter is a fixed-window counter keyed by operation and client.
// A key's window starts on its first check and resets in full once the
// window has elapsed, so a burst straddling the boundary can see up to
// twice the quota in a short span.
type RateLimiter struct {
	rules      map[string]Rule
	entries    map[string]*Entry
	mutex      sync.Mutex
	now        Clock
	sweep      SweepPolicy
	failClosed bool
	log        *zap.Logger
}

// New creates a RateLimiter over the given rules. A nil map uses DefaultRules.
func New(rules map[string]Rule, opts ...Option) *RateLimiter {
	if rules == nil {
		rules = DefaultRules()
	}

	copied := make(map[string]Rule, len(rules))
	for op, rule := range rules {
		copied[op] = rule
	}

	rl := &RateLimiter{
		rules:   copied,
		entries: make(map[string]*Entry),
		now:     time.Now,
		sweep:   NewProbabilisticSweep(DefaultSweepProbability),
		log:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

func key(operation, clientID string) string {
	return operation + ":" + clientID
}

// Check counts one request for clientID against operation's quota
func (rl *RateLimiter) Check(operation, clientID string) Result {
	rule, ok := rl.rules[operation]
	if !ok {
		rl.log.Warn("No rate limit configured for operation",
			zap.String("operation", operation),
			zap.Bool("fail_closed", rl.failClosed),
		)
		return Result{Allowed: !rl.failClosed}
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	k := key(operation, clientID)

	// Missing or expired entries start a fresh window
	entry, exists := rl.entries[k]
	if !exists || !now.Before(entry.ResetTime) {
		entry = &Entry{Count: 0, ResetTime: now.Add(rule.Window)}
		rl.entries[k] = entry
	}

	if entry.Count >= rule.Requests {
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetTime:  entry.ResetTime,
			Limit:      rule.Requests,
			Configured: true,
		}
	}

	entry.Count++
	result := Result{
		Allowed:    true,
		Remaining:  rule.Requests - entry.Count,
		ResetTime:  entry.ResetTime,
		Limit:      rule.Requests,
		Configured: true,
	}

	if rl.sweep != nil && rl.sweep.ShouldSweep() {
		rl.removeExpired(now)
	}

	return result
}

// Reset deletes the counter for operation and clientID
func (rl *RateLimiter) Reset(operation, clientID string) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	delete(rl.entries, key(operation, clientID))
}

// Status returns a snapshot of every configured operation for clientID
func (rl *RateLimiter) Status(clientID string) map[string]Status {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	status := make(map[string]Status, len(rl.rules))

	for op, rule := range rl.rules {
		entry, exists := rl.entries[key(op, clientID)]
		if !exists || !now.Before(entry.ResetTime) {
			status[op] = Status{
				Requests:  0,
				Limit:     rule.Requests,
				ResetTime: now.Add(rule.Window),
				Allowed:   rule.Requests > 0,
			}
			continue
		}

		status[op] = Status{
			Requests:  entry.Count,
			Limit:     rule.Requests,
			ResetTime: entry.ResetTime,
			Allowed:   entry.Count < rule.Requests,
		}
	}

	return status
}

// Rule returns the quota configured for operation
func (rl *RateLimiter) Rule(operation string) (Rule, bool) {
	rule, ok := rl.rules[operation]
	return rule, ok
}

// Cleanup removes expired entries and returns how many were dropped
func (rl *RateLimiter) Cleanup() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	return rl.removeExpired(rl.now())
}

// Size returns the number of tracked entries
func (rl *RateLimiter) Size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	return len(rl.entries)
}

func (rl *RateLimiter) removeExpired(now time.Time) int {
	removed := 0
	for k, entry := range rl.entries {
		if !now.Before(entry.ResetTime) {
			delete(rl.entries, k)
			removed++
		}
	}
	return removed
}
