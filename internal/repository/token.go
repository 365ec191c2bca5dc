package repository

import (
	"context"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
)

// MemoryTokenRepository keeps tokens in process memory
type MemoryTokenRepository struct {
	store *store[models.Token]
}

// NewMemoryTokenRepository creates an empty token store
func NewMemoryTokenRepository(now Clock) *MemoryTokenRepository {
	return &MemoryTokenRepository{store: newStore((*models.Token).Clone, now)}
}

// Create stores a copy of token with a fresh id and timestamps
func (r *MemoryTokenRepository) Create(ctx context.Context, token *models.Token) (*models.Token, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := token.Clone()
	created.ID = NewID()
	created.CreatedAt = r.store.nowMillis()
	created.UpdatedAt = created.CreatedAt

	r.store.put(created.ID, created)
	return created.Clone(), nil
}

// FindByID returns the token or nil
func (r *MemoryTokenRepository) FindByID(ctx context.Context, id string) (*models.Token, error) {
	return r.store.get(id), nil
}

// FindAll matches symbol and name as case-insensitive substrings
func (r *MemoryTokenRepository) FindAll(ctx context.Context, filter models.TokenFilter) ([]*models.Token, error) {
	return r.store.list(func(t *models.Token) bool {
		if filter.Symbol != "" && !containsFold(t.Symbol, filter.Symbol) {
			return false
		}
		if filter.Name != "" && !containsFold(t.Name, filter.Name) {
			return false
		}
		if filter.Verified != nil && t.Verified != *filter.Verified {
			return false
		}
		return true
	}), nil
}

// Update applies patch to the token with id. Decimals in the patch must
// already be sanitized to an int.
func (r *MemoryTokenRepository) Update(ctx context.Context, id string, patch models.TokenPatch) (*models.Token, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.items[id]
	if !ok {
		return nil, crud.ErrNotFound
	}

	updated := existing.Clone()
	if patch.Address != nil {
		updated.Address = *patch.Address
	}
	if patch.Symbol != nil {
		updated.Symbol = *patch.Symbol
	}
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if decimals, ok := patch.Decimals.(int); ok {
		updated.Decimals = decimals
	}
	if patch.LogoURI != nil {
		updated.LogoURI = *patch.LogoURI
	}
	if patch.Verified != nil {
		updated.Verified = *patch.Verified
	}
	updated.UpdatedAt = r.store.nowMillis()

	r.store.put(id, updated)
	return updated.Clone(), nil
}

// Delete removes the token and reports whether it existed
func (r *MemoryTokenRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.remove(id), nil
}

// FindByAddress returns the token registered at address or nil
func (r *MemoryTokenRepository) FindByAddress(ctx context.Context, address string) (*models.Token, error) {
	return r.store.first(func(t *models.Token) bool {
		return t.Address == address
	}), nil
}

// Count returns the number of stored tokens
func (r *MemoryTokenRepository) Count(ctx context.Context) (int, error) {
	return r.store.size(), nil
}
