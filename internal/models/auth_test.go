package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAPIKey(t *testing.T) {
	key := &APIKey{ID: primitive.NewObjectID(), Key: "super-secret", Name: "ops", Active: true}

	t.Run("OwnerIDIsHexID", func(t *testing.T) {
		assert.Equal(t, key.ID.Hex(), key.OwnerID())
		assert.NotContains(t, key.OwnerID(), key.Key)
	})

	t.Run("SecretNotSerialized", func(t *testing.T) {
		raw, err := json.Marshal(key)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "super-secret")
		assert.Contains(t, string(raw), key.ID.Hex())
	})
}
