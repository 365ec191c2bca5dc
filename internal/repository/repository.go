package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
)

// WalletRepository is the wallet store used by the wallet service
type WalletRepository interface {
	crud.Repository[models.Wallet, models.WalletPatch, models.WalletFilter]
	FindByPublicKey(ctx context.Context, publicKey string) (*models.Wallet, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*models.Wallet, error)
	Count(ctx context.Context) (int, error)
}

// TokenRepository is the token store used by the token service
type TokenRepository interface {
	crud.Repository[models.Token, models.TokenPatch, models.TokenFilter]
	FindByAddress(ctx context.Context, address string) (*models.Token, error)
	Count(ctx context.Context) (int, error)
}

// Clock returns the current time; stores stamp records in epoch milliseconds
type Clock func() time.Time

// NewID returns a 32 character hex id. Hyphens are dropped so the id
// survives alphanumeric id sanitization unchanged.
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// store is the mutex-guarded map shared by the in-memory repositories
type store[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
	order []string
	clone func(*T) *T
	now   Clock
}

func newStore[T any](clone func(*T) *T, now Clock) *store[T] {
	if now == nil {
		now = time.Now
	}
	return &store[T]{
		items: make(map[string]*T),
		clone: clone,
		now:   now,
	}
}

func (s *store[T]) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *store[T]) put(id string, item *T) {
	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = item
}

func (s *store[T]) get(id string) *T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.items[id])
}

// list returns copies of every item accepted by match, in insertion order
func (s *store[T]) list(match func(*T) bool) []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*T, 0, len(s.items))
	for _, id := range s.order {
		item, ok := s.items[id]
		if ok && match(item) {
			out = append(out, s.clone(item))
		}
	}
	return out
}

func (s *store[T]) first(match func(*T) bool) *T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if item, ok := s.items[id]; ok && match(item) {
			return s.clone(item)
		}
	}
	return nil
}

func (s *store[T]) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)

	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *store[T]) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
