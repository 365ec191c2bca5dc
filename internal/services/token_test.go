package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/repository"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"
)

func tokenInput(address, symbol string, decimals interface{}) models.TokenInput {
	return models.TokenInput{
		Address:  address,
		Symbol:   symbol,
		Name:     "USD Coin",
		Decimals: decimals,
	}
}

func TestTokenService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Sanitizes", func(t *testing.T) {
		svc := NewTokenService(repository.NewMemoryTokenRepository(nil))

		input := tokenInput(usdcMintAddress, " usdc ", json.Number("6"))
		input.Name = "  USD   <b>Coin</b> "
		input.LogoURI = "https://example.com/usdc.png"
		input.Verified = true

		token, err := svc.Create(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, usdcMintAddress, token.Address)
		assert.Equal(t, "USDC", token.Symbol)
		assert.Equal(t, "USD   Coin", token.Name)
		assert.Equal(t, 6, token.Decimals)
		assert.Equal(t, "https://example.com/usdc.png", token.LogoURI)
		assert.True(t, token.Verified)
	})

	t.Run("DecimalsCoercion", func(t *testing.T) {
		for _, decimals := range []interface{}{9, 9.0, "9", json.Number("9")} {
			svc := NewTokenService(repository.NewMemoryTokenRepository(nil))
			token, err := svc.Create(ctx, tokenInput(usdcMintAddress, "SOL", decimals))
			require.NoError(t, err, "%v", decimals)
			assert.Equal(t, 9, token.Decimals)
		}
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		tests := []struct {
			name  string
			input models.TokenInput
			field string
		}{
			{"MissingDecimals", tokenInput(usdcMintAddress, "USDC", nil), "decimals"},
			{"NegativeDecimals", tokenInput(usdcMintAddress, "USDC", -1), "decimals"},
			{"TooManyDecimals", tokenInput(usdcMintAddress, "USDC", 19), "decimals"},
			{"FractionalDecimals", tokenInput(usdcMintAddress, "USDC", 6.5), "decimals"},
			{"NonNumericDecimals", tokenInput(usdcMintAddress, "USDC", "six"), "decimals"},
			{"MissingSymbol", tokenInput(usdcMintAddress, "", 6), "symbol"},
			{"SymbolOnlyPunctuation", tokenInput(usdcMintAddress, "$$$", 6), "symbol"},
			{"BadAddress", tokenInput("not-an-address", "USDC", 6), "address"},
			{"ReservedAddress", tokenInput(tokenProgramID, "USDC", 6), "address"},
			{"MissingName", func() models.TokenInput {
				in := tokenInput(usdcMintAddress, "USDC", 6)
				in.Name = "<i></i>"
				return in
			}(), "name"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := NewTokenService(repository.NewMemoryTokenRepository(nil))

				_, err := svc.Create(ctx, tt.input)
				require.Error(t, err)

				var ve *sanitizer.ValidationError
				require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
				assert.Equal(t, tt.field, ve.Field)
			})
		}
	})

	t.Run("DuplicateAddress", func(t *testing.T) {
		svc := NewTokenService(repository.NewMemoryTokenRepository(nil))

		_, err := svc.Create(ctx, tokenInput(usdcMintAddress, "USDC", 6))
		require.NoError(t, err)

		_, err = svc.Create(ctx, tokenInput(usdcMintAddress, "USDC2", 6))
		require.Error(t, err)
		assert.True(t, errors.Is(err, crud.ErrConflict))
		assert.Contains(t, err.Error(), "token with this address already exists")
	})
}

func TestTokenService_Update(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(repository.NewMemoryTokenRepository(nil))

	usdc, err := svc.Create(ctx, tokenInput(usdcMintAddress, "USDC", 6))
	require.NoError(t, err)
	other, err := svc.Create(ctx, tokenInput(testPublicKey, "OTHER", 9))
	require.NoError(t, err)

	t.Run("Decimals", func(t *testing.T) {
		updated, err := svc.Update(ctx, usdc.ID, models.TokenPatch{Decimals: json.Number("8")})
		require.NoError(t, err)
		assert.Equal(t, 8, updated.Decimals)
		assert.Equal(t, "USDC", updated.Symbol)
	})

	t.Run("DecimalsOutOfRange", func(t *testing.T) {
		_, err := svc.Update(ctx, usdc.ID, models.TokenPatch{Decimals: 42})
		var ve *sanitizer.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "decimals", ve.Field)
	})

	t.Run("AddressHeldByAnother", func(t *testing.T) {
		address := usdcMintAddress
		_, err := svc.Update(ctx, other.ID, models.TokenPatch{Address: &address})
		require.Error(t, err)
		assert.True(t, errors.Is(err, crud.ErrConflict))
		assert.Contains(t, err.Error(), "another token with this address already exists")
	})

	t.Run("EmptyName", func(t *testing.T) {
		name := "<b></b>"
		_, err := svc.Update(ctx, other.ID, models.TokenPatch{Name: &name})
		var ve *sanitizer.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "name", ve.Field)
	})
}

func TestTokenService_FindByAddress(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(repository.NewMemoryTokenRepository(nil))

	created, err := svc.Create(ctx, tokenInput(usdcMintAddress, "USDC", 6))
	require.NoError(t, err)

	found, err := svc.FindByAddress(ctx, " "+usdcMintAddress)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := svc.FindByAddress(ctx, testPublicKey)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.FindByAddress(ctx, "")
	assert.Error(t, err)

	verified := false
	filtered, err := svc.FindAll(ctx, models.TokenFilter{Symbol: "usd", Verified: &verified})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}
