package services

import (
	"context"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
)

// AuthServiceInterface defines the interface for authentication services
type AuthServiceInterface interface {
	ValidateAPIKey(ctx context.Context, key string) (*models.APIKey, error)
}

// WalletServiceInterface defines the wallet operations exposed over HTTP
type WalletServiceInterface interface {
	Create(ctx context.Context, input models.WalletInput) (*models.Wallet, error)
	FindByID(ctx context.Context, id string) (*models.Wallet, error)
	FindAll(ctx context.Context, filter models.WalletFilter) ([]*models.Wallet, error)
	Update(ctx context.Context, id string, patch models.WalletPatch) (*models.Wallet, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByPublicKey(ctx context.Context, publicKey string) (*models.Wallet, error)
	FindByUserID(ctx context.Context, userID string) ([]*models.Wallet, error)
}

// TokenServiceInterface defines the token operations exposed over HTTP
type TokenServiceInterface interface {
	Create(ctx context.Context, input models.TokenInput) (*models.Token, error)
	FindByID(ctx context.Context, id string) (*models.Token, error)
	FindAll(ctx context.Context, filter models.TokenFilter) ([]*models.Token, error)
	Update(ctx context.Context, id string, patch models.TokenPatch) (*models.Token, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByAddress(ctx context.Context, address string) (*models.Token, error)
}

// HealthChecker is a single named dependency check
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) *HealthCheck
}
