package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/repository"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/httpsecurity"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"
)

const (
	maxEncryptedKeyLength        = 500
	maxEncryptedSeedPhraseLength = 1000
	maxDerivationPathLength      = 50
	maxUserIDLength              = 50
)

// derivationPathPattern accepts BIP32 paths such as m/44'/501'/0'/0' and
// the equivalent h notation m/44h/501h/0h/0h. Paths are matched rather than
// sanitized because ' is one of the characters SanitizeString strips, so
// clients behind the request sanitizer must use the h form.
var derivationPathPattern = regexp.MustCompile(`^m(/[0-9]+['hH]?)*$`)

var hardenedMarkers = strings.NewReplacer("h", "'", "H", "'")

type walletCRUD = crud.Service[models.Wallet, models.WalletInput, models.WalletPatch, models.WalletFilter]

// WalletService manages wallet records through the CRUD pipeline
type WalletService struct {
	*walletCRUD
	repo  repository.WalletRepository
	audit *AuditLogger
}

// NewWalletService creates a WalletService over repo
func NewWalletService(repo repository.WalletRepository, audit *AuditLogger, opts ...crud.Option) *WalletService {
	hooks := &walletHooks{repo: repo}
	return &WalletService{
		walletCRUD: crud.NewService[models.Wallet, models.WalletInput, models.WalletPatch, models.WalletFilter](repo, hooks, opts...),
		repo:       repo,
		audit:      audit,
	}
}

// Create stores a new wallet and records an audit event either way
func (s *WalletService) Create(ctx context.Context, input models.WalletInput) (*models.Wallet, error) {
	wallet, err := s.walletCRUD.Create(ctx, input)

	event := SecurityEvent{Type: EventWalletCreated, Success: err == nil, UserID: input.OwnerID}
	if err == nil {
		event.WalletID = wallet.ID
	} else {
		event.Metadata = map[string]interface{}{"error": err.Error()}
	}
	s.audit.Log(ctx, event)

	return wallet, err
}

// Update applies patch and records an audit event on success
func (s *WalletService) Update(ctx context.Context, id string, patch models.WalletPatch) (*models.Wallet, error) {
	wallet, err := s.walletCRUD.Update(ctx, id, patch)
	if err == nil {
		s.audit.Log(ctx, SecurityEvent{Type: EventWalletUpdated, WalletID: wallet.ID, Success: true})
	}
	return wallet, err
}

// Delete removes the wallet and records whether anything was deleted
func (s *WalletService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.walletCRUD.Delete(ctx, id)
	if err == nil {
		s.audit.Log(ctx, SecurityEvent{Type: EventWalletDeleted, WalletID: id, Success: deleted})
	}
	return deleted, err
}

// FindByPublicKey returns the wallet holding publicKey, or nil
func (s *WalletService) FindByPublicKey(ctx context.Context, publicKey string) (*models.Wallet, error) {
	sanitized, err := sanitizer.SanitizeAddress(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet by public key: %w", err)
	}

	wallet, err := s.repo.FindByPublicKey(ctx, sanitized)
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet by public key: %w", err)
	}
	return wallet, nil
}

// FindByUserID returns the wallets owned by userID
func (s *WalletService) FindByUserID(ctx context.Context, userID string) ([]*models.Wallet, error) {
	sanitized := sanitizeUserID(userID)
	if sanitized == "" {
		return nil, fmt.Errorf("failed to find user wallets: %w",
			sanitizer.NewValidationError("userId", "invalid user ID provided"))
	}

	wallets, err := s.repo.FindByOwner(ctx, sanitized)
	if err != nil {
		return nil, fmt.Errorf("failed to find user wallets: %w", err)
	}
	if wallets == nil {
		wallets = []*models.Wallet{}
	}
	return wallets, nil
}

func sanitizeUserID(userID string) string {
	return sanitizer.SanitizeString(userID, sanitizer.Options{
		AlphanumericOnly: true,
		MaxLength:        maxUserIDLength,
	})
}

// walletHooks plugs wallet rules into the CRUD pipeline; the public key is
// the natural key
type walletHooks struct {
	repo repository.WalletRepository
}

func (h *walletHooks) SanitizeCreate(ctx context.Context, input models.WalletInput) (*models.Wallet, error) {
	name, err := sanitizer.SanitizeWalletName(input.Name)
	if err != nil {
		return nil, err
	}

	publicKey, err := sanitizer.SanitizeAddress(input.PublicKey)
	if err != nil {
		return nil, err
	}

	derivationPath, err := sanitizeDerivationPath(input.DerivationPath)
	if err != nil {
		return nil, err
	}

	wallet := &models.Wallet{
		Name:                name,
		PublicKey:           publicKey,
		EncryptedPrivateKey: sanitizer.SanitizeString(input.EncryptedPrivateKey, sanitizer.Options{MaxLength: maxEncryptedKeyLength}),
		DerivationPath:      derivationPath,
		IsActive:            true,
		OwnerID:             sanitizeUserID(input.OwnerID),
		Metadata:            sanitizeMetadata(input.Metadata),
	}

	if input.EncryptedSeedPhrase != nil {
		wallet.EncryptedSeedPhrase = sanitizer.SanitizeString(*input.EncryptedSeedPhrase, sanitizer.Options{MaxLength: maxEncryptedSeedPhraseLength})
	}
	if input.IsActive != nil {
		wallet.IsActive = *input.IsActive
	}

	return wallet, nil
}

func (h *walletHooks) SanitizeUpdate(ctx context.Context, patch models.WalletPatch) (models.WalletPatch, error) {
	sanitized := models.WalletPatch{IsActive: patch.IsActive}

	if patch.Name != nil {
		name, err := sanitizer.SanitizeWalletName(*patch.Name)
		if err != nil {
			return models.WalletPatch{}, err
		}
		sanitized.Name = &name
	}

	if patch.PublicKey != nil {
		publicKey, err := sanitizer.SanitizeAddress(*patch.PublicKey)
		if err != nil {
			return models.WalletPatch{}, err
		}
		sanitized.PublicKey = &publicKey
	}

	if patch.EncryptedPrivateKey != nil {
		key := sanitizer.SanitizeString(*patch.EncryptedPrivateKey, sanitizer.Options{MaxLength: maxEncryptedKeyLength})
		sanitized.EncryptedPrivateKey = &key
	}

	if patch.EncryptedSeedPhrase != nil {
		seed := sanitizer.SanitizeString(*patch.EncryptedSeedPhrase, sanitizer.Options{MaxLength: maxEncryptedSeedPhraseLength})
		sanitized.EncryptedSeedPhrase = &seed
	}

	if patch.DerivationPath != nil {
		if *patch.DerivationPath == "" {
			return models.WalletPatch{}, sanitizer.NewValidationError("derivationPath", "derivation path cannot be empty")
		}
		path, err := sanitizeDerivationPath(*patch.DerivationPath)
		if err != nil {
			return models.WalletPatch{}, err
		}
		sanitized.DerivationPath = &path
	}

	if patch.Metadata != nil {
		sanitized.Metadata = sanitizeMetadata(patch.Metadata)
	}

	return sanitized, nil
}

func (h *walletHooks) SanitizeFilters(ctx context.Context, filter models.WalletFilter) (models.WalletFilter, error) {
	sanitized := models.WalletFilter{IsActive: filter.IsActive}

	if filter.Name != "" {
		sanitized.Name = sanitizer.SanitizeString(filter.Name, sanitizer.Options{MaxLength: sanitizer.MaxWalletNameLength})
	}

	if filter.PublicKey != "" {
		publicKey, err := sanitizer.SanitizeAddress(filter.PublicKey)
		if err != nil {
			return models.WalletFilter{}, err
		}
		sanitized.PublicKey = publicKey
	}

	if filter.OwnerID != "" {
		sanitized.OwnerID = sanitizeUserID(filter.OwnerID)
	}

	return sanitized, nil
}

func (h *walletHooks) ValidateCreate(ctx context.Context, wallet *models.Wallet) error {
	if wallet.Name == "" {
		return sanitizer.NewValidationError("name", "wallet name is required")
	}
	if wallet.PublicKey == "" {
		return sanitizer.NewValidationError("publicKey", "public key is required")
	}
	if program, ok := reservedProgram(wallet.PublicKey); ok {
		return sanitizer.NewValidationError("publicKey", fmt.Sprintf("public key is the %s id and cannot hold a wallet", program))
	}

	existing, err := h.repo.FindByPublicKey(ctx, wallet.PublicKey)
	if err != nil {
		return err
	}
	if existing != nil {
		return crud.Conflict("wallet with this public key already exists")
	}
	return nil
}

func (h *walletHooks) ValidateUpdate(ctx context.Context, id string, patch models.WalletPatch) error {
	if patch.Name != nil && *patch.Name == "" {
		return sanitizer.NewValidationError("name", "wallet name cannot be empty")
	}

	if patch.PublicKey != nil {
		if program, ok := reservedProgram(*patch.PublicKey); ok {
			return sanitizer.NewValidationError("publicKey", fmt.Sprintf("public key is the %s id and cannot hold a wallet", program))
		}

		existing, err := h.repo.FindByPublicKey(ctx, *patch.PublicKey)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != id {
			return crud.Conflict("another wallet with this public key already exists")
		}
	}
	return nil
}

func (h *walletHooks) CreateKey(wallet *models.Wallet) string {
	return "wallet:" + wallet.PublicKey
}

func (h *walletHooks) UpdateKey(patch models.WalletPatch) string {
	if patch.PublicKey == nil {
		return ""
	}
	return "wallet:" + *patch.PublicKey
}

func sanitizeDerivationPath(path string) (string, error) {
	if path == "" {
		return models.DefaultDerivationPath, nil
	}
	if len(path) > maxDerivationPathLength || !derivationPathPattern.MatchString(path) {
		return "", sanitizer.NewValidationError("derivationPath", "invalid derivation path")
	}
	return hardenedMarkers.Replace(path), nil
}

// sanitizeMetadata cleans free-form metadata the same way request bodies are cleaned
func sanitizeMetadata(metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		return map[string]interface{}{}
	}
	if cleaned, ok := httpsecurity.SanitizeRequestBody(metadata).(map[string]interface{}); ok {
		return cleaned
	}
	return map[string]interface{}{}
}
