package repository

import (
	"context"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
)

// MemoryWalletRepository keeps wallets in process memory
type MemoryWalletRepository struct {
	store *store[models.Wallet]
}

// NewMemoryWalletRepository creates an empty wallet store
func NewMemoryWalletRepository(now Clock) *MemoryWalletRepository {
	return &MemoryWalletRepository{store: newStore((*models.Wallet).Clone, now)}
}

// Create stores a copy of wallet with a fresh id and timestamps
func (r *MemoryWalletRepository) Create(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := wallet.Clone()
	created.ID = NewID()
	created.CreatedAt = r.store.nowMillis()
	created.UpdatedAt = created.CreatedAt

	r.store.put(created.ID, created)
	return created.Clone(), nil
}

// FindByID returns the wallet or nil
func (r *MemoryWalletRepository) FindByID(ctx context.Context, id string) (*models.Wallet, error) {
	return r.store.get(id), nil
}

// FindAll returns wallets matching every set field of filter
func (r *MemoryWalletRepository) FindAll(ctx context.Context, filter models.WalletFilter) ([]*models.Wallet, error) {
	return r.store.list(func(w *models.Wallet) bool {
		if filter.Name != "" && !containsFold(w.Name, filter.Name) {
			return false
		}
		if filter.PublicKey != "" && w.PublicKey != filter.PublicKey {
			return false
		}
		if filter.IsActive != nil && w.IsActive != *filter.IsActive {
			return false
		}
		if filter.OwnerID != "" && w.OwnerID != filter.OwnerID {
			return false
		}
		return true
	}), nil
}

// Update applies patch to the wallet with id
func (r *MemoryWalletRepository) Update(ctx context.Context, id string, patch models.WalletPatch) (*models.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.items[id]
	if !ok {
		return nil, crud.ErrNotFound
	}

	updated := existing.Clone()
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.PublicKey != nil {
		updated.PublicKey = *patch.PublicKey
	}
	if patch.EncryptedPrivateKey != nil {
		updated.EncryptedPrivateKey = *patch.EncryptedPrivateKey
	}
	if patch.EncryptedSeedPhrase != nil {
		updated.EncryptedSeedPhrase = *patch.EncryptedSeedPhrase
	}
	if patch.DerivationPath != nil {
		updated.DerivationPath = *patch.DerivationPath
	}
	if patch.IsActive != nil {
		updated.IsActive = *patch.IsActive
	}
	if patch.Metadata != nil {
		updated.Metadata = (&models.Wallet{Metadata: patch.Metadata}).Clone().Metadata
	}
	updated.UpdatedAt = r.store.nowMillis()

	r.store.put(id, updated)
	return updated.Clone(), nil
}

// Delete removes the wallet and reports whether it existed
func (r *MemoryWalletRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.remove(id), nil
}

// FindByPublicKey returns the wallet holding publicKey or nil
func (r *MemoryWalletRepository) FindByPublicKey(ctx context.Context, publicKey string) (*models.Wallet, error) {
	return r.store.first(func(w *models.Wallet) bool {
		return w.PublicKey == publicKey
	}), nil
}

// FindByOwner returns the wallets tagged with ownerID
func (r *MemoryWalletRepository) FindByOwner(ctx context.Context, ownerID string) ([]*models.Wallet, error) {
	return r.store.list(func(w *models.Wallet) bool {
		return w.OwnerID == ownerID
	}), nil
}

// Count returns the number of stored wallets
func (r *MemoryWalletRepository) Count(ctx context.Context) (int, error) {
	return r.store.size(), nil
}
