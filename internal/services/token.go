package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/repository"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"
)

const (
	maxTokenNameLength    = 100
	maxTokenLogoURILength = 500
	maxTokenDecimals      = 18
)

var decimalsOptions = sanitizer.NumberOptions{
	Min:     sanitizer.Bound(0),
	Max:     sanitizer.Bound(maxTokenDecimals),
	Integer: true,
}

type tokenCRUD = crud.Service[models.Token, models.TokenInput, models.TokenPatch, models.TokenFilter]

// TokenService manages SPL token descriptors through the CRUD pipeline
type TokenService struct {
	*tokenCRUD
	repo repository.TokenRepository
}

// NewTokenService creates a TokenService over repo
func NewTokenService(repo repository.TokenRepository, opts ...crud.Option) *TokenService {
	return &TokenService{
		tokenCRUD: crud.NewService[models.Token, models.TokenInput, models.TokenPatch, models.TokenFilter](repo, &tokenHooks{repo: repo}, opts...),
		repo:      repo,
	}
}

// FindByAddress returns the token with the given mint address, or nil
func (s *TokenService) FindByAddress(ctx context.Context, address string) (*models.Token, error) {
	sanitized, err := sanitizer.SanitizeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("failed to find token by address: %w", err)
	}

	token, err := s.repo.FindByAddress(ctx, sanitized)
	if err != nil {
		return nil, fmt.Errorf("failed to find token by address: %w", err)
	}
	return token, nil
}

type tokenHooks struct {
	repo repository.TokenRepository
}

func sanitizeTokenName(name string) string {
	return sanitizer.SanitizeString(name, sanitizer.Options{MaxLength: maxTokenNameLength, AllowWhitespace: true})
}

func sanitizeLogoURI(uri string) string {
	return sanitizer.SanitizeString(uri, sanitizer.Options{MaxLength: maxTokenLogoURILength})
}

func sanitizeDecimals(value interface{}) (int, error) {
	n, err := sanitizer.SanitizeNumber(value, decimalsOptions)
	if err != nil {
		var ve *sanitizer.ValidationError
		if errors.As(err, &ve) {
			return 0, sanitizer.NewValidationError("decimals", ve.Message)
		}
		return 0, err
	}
	return int(n), nil
}

func (h *tokenHooks) SanitizeCreate(ctx context.Context, input models.TokenInput) (*models.Token, error) {
	address, err := sanitizer.SanitizeAddress(input.Address)
	if err != nil {
		return nil, err
	}

	symbol, err := sanitizer.SanitizeTokenSymbol(input.Symbol)
	if err != nil {
		return nil, err
	}

	if input.Decimals == nil {
		return nil, sanitizer.NewValidationError("decimals", "token decimals are required")
	}
	decimals, err := sanitizeDecimals(input.Decimals)
	if err != nil {
		return nil, err
	}

	token := &models.Token{
		Address:  address,
		Symbol:   symbol,
		Name:     sanitizeTokenName(input.Name),
		Decimals: decimals,
		Verified: input.Verified,
	}
	if input.LogoURI != "" {
		token.LogoURI = sanitizeLogoURI(input.LogoURI)
	}

	return token, nil
}

func (h *tokenHooks) SanitizeUpdate(ctx context.Context, patch models.TokenPatch) (models.TokenPatch, error) {
	sanitized := models.TokenPatch{Verified: patch.Verified}

	if patch.Address != nil {
		address, err := sanitizer.SanitizeAddress(*patch.Address)
		if err != nil {
			return models.TokenPatch{}, err
		}
		sanitized.Address = &address
	}

	if patch.Symbol != nil {
		symbol, err := sanitizer.SanitizeTokenSymbol(*patch.Symbol)
		if err != nil {
			return models.TokenPatch{}, err
		}
		sanitized.Symbol = &symbol
	}

	if patch.Name != nil {
		name := sanitizeTokenName(*patch.Name)
		sanitized.Name = &name
	}

	if patch.Decimals != nil {
		decimals, err := sanitizeDecimals(patch.Decimals)
		if err != nil {
			return models.TokenPatch{}, err
		}
		sanitized.Decimals = decimals
	}

	if patch.LogoURI != nil {
		uri := sanitizeLogoURI(*patch.LogoURI)
		sanitized.LogoURI = &uri
	}

	return sanitized, nil
}

func (h *tokenHooks) SanitizeFilters(ctx context.Context, filter models.TokenFilter) (models.TokenFilter, error) {
	sanitized := models.TokenFilter{Verified: filter.Verified}

	if filter.Symbol != "" {
		sanitized.Symbol = sanitizer.SanitizeString(filter.Symbol, sanitizer.Options{MaxLength: sanitizer.MaxTokenSymbolLength})
	}
	if filter.Name != "" {
		sanitized.Name = sanitizer.SanitizeString(filter.Name, sanitizer.Options{MaxLength: maxTokenNameLength})
	}

	return sanitized, nil
}

func (h *tokenHooks) ValidateCreate(ctx context.Context, token *models.Token) error {
	switch {
	case token.Address == "":
		return sanitizer.NewValidationError("address", "token address is required")
	case token.Symbol == "":
		return sanitizer.NewValidationError("symbol", "token symbol is required")
	case token.Name == "":
		return sanitizer.NewValidationError("name", "token name is required")
	}

	if program, ok := reservedProgram(token.Address); ok {
		return sanitizer.NewValidationError("address", fmt.Sprintf("address is the %s id, not a token mint", program))
	}

	existing, err := h.repo.FindByAddress(ctx, token.Address)
	if err != nil {
		return err
	}
	if existing != nil {
		return crud.Conflict("token with this address already exists")
	}
	return nil
}

func (h *tokenHooks) ValidateUpdate(ctx context.Context, id string, patch models.TokenPatch) error {
	if patch.Address != nil {
		if program, ok := reservedProgram(*patch.Address); ok {
			return sanitizer.NewValidationError("address", fmt.Sprintf("address is the %s id, not a token mint", program))
		}

		existing, err := h.repo.FindByAddress(ctx, *patch.Address)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != id {
			return crud.Conflict("another token with this address already exists")
		}
	}

	if patch.Symbol != nil && *patch.Symbol == "" {
		return sanitizer.NewValidationError("symbol", "token symbol cannot be empty")
	}
	if patch.Name != nil && *patch.Name == "" {
		return sanitizer.NewValidationError("name", "token name cannot be empty")
	}
	return nil
}

func (h *tokenHooks) CreateKey(token *models.Token) string {
	return "token:" + token.Address
}

func (h *tokenHooks) UpdateKey(patch models.TokenPatch) string {
	if patch.Address == nil {
		return ""
	}
	return "token:" + *patch.Address
}
