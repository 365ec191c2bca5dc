package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/repository"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"
)

const (
	testPublicKey      = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	otherPublicKey     = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	systemProgramID    = "11111111111111111111111111111111"
	usdcMintAddress    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	tokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	customDerivationID = "m/44'/501'/1'/0'"
)

func TestMain(m *testing.M) {
	logger.SetLogger(logger.NewNop())
	os.Exit(m.Run())
}

func newObservedAudit() (*AuditLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return NewAuditLogger(logger.New(zap.New(core))), logs
}

func newTestWalletService() (*WalletService, *observer.ObservedLogs) {
	audit, logs := newObservedAudit()
	return NewWalletService(repository.NewMemoryWalletRepository(nil), audit), logs
}

func walletInput(name, publicKey string) models.WalletInput {
	return models.WalletInput{
		Name:                name,
		PublicKey:           publicKey,
		EncryptedPrivateKey: "enc:abc123",
	}
}

func TestWalletService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("SanitizesAndDefaults", func(t *testing.T) {
		svc, _ := newTestWalletService()

		input := walletInput("  <b>Savings</b>  ", " "+testPublicKey+" ")
		input.OwnerID = "user-42"
		input.Metadata = map[string]interface{}{
			"label":    "<i>cold</i>",
			"bad key!": true,
			"!!!":      "dropped",
		}

		wallet, err := svc.Create(ctx, input)
		require.NoError(t, err)

		assert.NotEmpty(t, wallet.ID)
		assert.Equal(t, "Savings", wallet.Name)
		assert.Equal(t, testPublicKey, wallet.PublicKey)
		assert.Equal(t, models.DefaultDerivationPath, wallet.DerivationPath)
		assert.True(t, wallet.IsActive)
		assert.Equal(t, "user42", wallet.OwnerID)
		assert.Equal(t, map[string]interface{}{"label": "cold", "badkey": true}, wallet.Metadata)
		assert.NotZero(t, wallet.CreatedAt)
	})

	t.Run("KeepsExplicitValues", func(t *testing.T) {
		svc, _ := newTestWalletService()

		inactive := false
		seed := "enc:seed"
		input := walletInput("Trading", testPublicKey)
		input.DerivationPath = customDerivationID
		input.IsActive = &inactive
		input.EncryptedSeedPhrase = &seed

		wallet, err := svc.Create(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, customDerivationID, wallet.DerivationPath)
		assert.False(t, wallet.IsActive)
		assert.Equal(t, "enc:seed", wallet.EncryptedSeedPhrase)
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		tests := []struct {
			name  string
			input models.WalletInput
			field string
		}{
			{"MissingName", walletInput("", testPublicKey), "name"},
			{"NameOnlyMarkup", walletInput("<b></b>", testPublicKey), "name"},
			{"MissingPublicKey", walletInput("Main", ""), "address"},
			{"BadPublicKey", walletInput("Main", "0OIl-not-base58"), "address"},
			{"BadDerivationPath", func() models.WalletInput {
				in := walletInput("Main", testPublicKey)
				in.DerivationPath = "m/44'/../etc"
				return in
			}(), "derivationPath"},
			{"SystemProgram", walletInput("Main", systemProgramID), "publicKey"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, _ := newTestWalletService()

				_, err := svc.Create(ctx, tt.input)
				require.Error(t, err)

				var ve *sanitizer.ValidationError
				require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
				assert.Equal(t, tt.field, ve.Field)
			})
		}
	})

	t.Run("DuplicatePublicKey", func(t *testing.T) {
		svc, _ := newTestWalletService()

		_, err := svc.Create(ctx, walletInput("First", testPublicKey))
		require.NoError(t, err)

		_, err = svc.Create(ctx, walletInput("Second", testPublicKey))
		require.Error(t, err)
		assert.True(t, errors.Is(err, crud.ErrConflict))
		assert.Contains(t, err.Error(), "wallet with this public key already exists")
	})

	t.Run("ConcurrentDuplicates", func(t *testing.T) {
		svc, _ := newTestWalletService()

		var wg sync.WaitGroup
		var mu sync.Mutex
		created := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Create(ctx, walletInput("Race", testPublicKey)); err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, created)
	})

	t.Run("AuditsOutcome", func(t *testing.T) {
		svc, logs := newTestWalletService()

		input := walletInput("Audited", testPublicKey)
		input.OwnerID = "owner1"
		wallet, err := svc.Create(ctx, input)
		require.NoError(t, err)
		_, err = svc.Create(ctx, input)
		require.Error(t, err)

		entries := logs.FilterField(zap.String("event_type", string(EventWalletCreated))).All()
		require.Len(t, entries, 2)

		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, wallet.ID, entries[0].ContextMap()["wallet_id"])
		assert.Equal(t, "owner1", entries[0].ContextMap()["audit_user_id"])

		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, false, entries[1].ContextMap()["success"])
	})
}

func TestWalletService_Update(t *testing.T) {
	ctx := context.Background()
	svc, logs := newTestWalletService()

	first, err := svc.Create(ctx, walletInput("First", testPublicKey))
	require.NoError(t, err)
	second, err := svc.Create(ctx, walletInput("Second", otherPublicKey))
	require.NoError(t, err)

	t.Run("Renames", func(t *testing.T) {
		name := " <em>Renamed</em> "
		updated, err := svc.Update(ctx, first.ID, models.WalletPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, testPublicKey, updated.PublicKey)
		assert.Equal(t, 1, logs.FilterField(zap.String("event_type", string(EventWalletUpdated))).Len())
	})

	t.Run("SamePublicKeyIsNotAConflict", func(t *testing.T) {
		pk := testPublicKey
		_, err := svc.Update(ctx, first.ID, models.WalletPatch{PublicKey: &pk})
		assert.NoError(t, err)
	})

	t.Run("PublicKeyHeldByAnother", func(t *testing.T) {
		pk := testPublicKey
		_, err := svc.Update(ctx, second.ID, models.WalletPatch{PublicKey: &pk})
		require.Error(t, err)
		assert.True(t, errors.Is(err, crud.ErrConflict))
		assert.Contains(t, err.Error(), "another wallet with this public key already exists")
	})

	t.Run("ReservedPublicKey", func(t *testing.T) {
		pk := tokenProgramID
		_, err := svc.Update(ctx, second.ID, models.WalletPatch{PublicKey: &pk})
		var ve *sanitizer.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Message, "SPL Token Program")
	})

	t.Run("EmptyDerivationPath", func(t *testing.T) {
		path := ""
		_, err := svc.Update(ctx, second.ID, models.WalletPatch{DerivationPath: &path})
		var ve *sanitizer.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "derivationPath", ve.Field)
	})

	t.Run("MissingWallet", func(t *testing.T) {
		name := "Ghost"
		_, err := svc.Update(ctx, "doesnotexist", models.WalletPatch{Name: &name})
		assert.True(t, errors.Is(err, crud.ErrNotFound))
	})

	t.Run("InvalidID", func(t *testing.T) {
		name := "Ghost"
		_, err := svc.Update(ctx, "!!!", models.WalletPatch{Name: &name})
		assert.True(t, errors.Is(err, crud.ErrInvalidID))
	})
}

func TestWalletService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, logs := newTestWalletService()

	wallet, err := svc.Create(ctx, walletInput("Doomed", testPublicKey))
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, wallet.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, wallet.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	found, err := svc.FindByID(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	entries := logs.FilterField(zap.String("event_type", string(EventWalletDeleted))).All()
	require.Len(t, entries, 2)
	assert.Equal(t, true, entries[0].ContextMap()["success"])
	assert.Equal(t, false, entries[1].ContextMap()["success"])
}

func TestWalletService_Finders(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWalletService()

	a := walletInput("Alpha", testPublicKey)
	a.OwnerID = "owner-1"
	b := walletInput("Beta", otherPublicKey)
	b.OwnerID = "owner-2"
	alpha, err := svc.Create(ctx, a)
	require.NoError(t, err)
	_, err = svc.Create(ctx, b)
	require.NoError(t, err)

	t.Run("FindByPublicKey", func(t *testing.T) {
		found, err := svc.FindByPublicKey(ctx, testPublicKey)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, alpha.ID, found.ID)

		found, err = svc.FindByPublicKey(ctx, usdcMintAddress)
		require.NoError(t, err)
		assert.Nil(t, found)

		_, err = svc.FindByPublicKey(ctx, "bad!")
		assert.Error(t, err)
	})

	t.Run("FindByUserID", func(t *testing.T) {
		wallets, err := svc.FindByUserID(ctx, "owner-1")
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.Equal(t, alpha.ID, wallets[0].ID)

		wallets, err = svc.FindByUserID(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, wallets)
		assert.Empty(t, wallets)

		_, err = svc.FindByUserID(ctx, "<>!")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid user ID provided")
	})

	t.Run("FindAll", func(t *testing.T) {
		all, err := svc.FindAll(ctx, models.WalletFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		filtered, err := svc.FindAll(ctx, models.WalletFilter{Name: "alp"})
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, "Alpha", filtered[0].Name)
	})
}

func TestSanitizeDerivationPath(t *testing.T) {
	valid := []string{"m", "m/0", "m/44'/501'", models.DefaultDerivationPath}
	for _, path := range valid {
		got, err := sanitizeDerivationPath(path)
		assert.NoError(t, err, path)
		assert.Equal(t, path, got)
	}

	got, err := sanitizeDerivationPath("")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDerivationPath, got)

	t.Run("HNotationIsNormalised", func(t *testing.T) {
		got, err := sanitizeDerivationPath("m/44h/501h/7h/0h")
		require.NoError(t, err)
		assert.Equal(t, "m/44'/501'/7'/0'", got)

		got, err = sanitizeDerivationPath("m/44H/501'/2")
		require.NoError(t, err)
		assert.Equal(t, "m/44'/501'/2", got)
	})

	invalid := []string{"44'/501'", "m/", "m//0", "m/abc", "m/44''", "m/44h'", "m/h", "m/1/2/3/4/5/6/7/8/9/10/11/12/13/14/15/16/17/18/19/20"}
	for _, path := range invalid {
		_, err := sanitizeDerivationPath(path)
		assert.Error(t, err, path)
	}
}

func TestReservedProgram(t *testing.T) {
	name, ok := reservedProgram(systemProgramID)
	assert.True(t, ok)
	assert.Equal(t, "System Program", name)

	_, ok = reservedProgram(testPublicKey)
	assert.False(t, ok)

	_, ok = reservedProgram("short")
	assert.False(t, ok)
}

func TestAuditLogger(t *testing.T) {
	audit, logs := newObservedAudit()

	ctx := logger.ContextWithUserID(context.Background(), "ctx-user")
	audit.Log(ctx, SecurityEvent{Type: EventLoginAttempt, Success: true})
	audit.Log(ctx, SecurityEvent{Type: EventPasswordCheck, UserID: "explicit", Metadata: map[string]interface{}{"strength": "weak"}})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "ctx-user", entries[0].ContextMap()["audit_user_id"])
	assert.Equal(t, "audit", entries[0].ContextMap()["component"])
	assert.Equal(t, "explicit", entries[1].ContextMap()["audit_user_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)

	var nilAudit *AuditLogger
	assert.NotPanics(t, func() { nilAudit.Log(ctx, SecurityEvent{Type: EventLoginAttempt}) })
}
