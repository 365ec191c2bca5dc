package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// APIKey is a caller credential from the API key collection. Its id, not the
// secret, identifies the caller everywhere else: it is the owner of wallets
// the caller creates and the client id its rate-limit quota is keyed by when
// no IP is known.
type APIKey struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key  string             `bson:"key" json:"-"`
	Name string             `bson:"name" json:"name"`
	// Inactive keys are rejected and never cached
	Active    bool       `bson:"active" json:"active"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	LastUsed  *time.Time `bson:"last_used,omitempty" json:"last_used,omitempty"`
}

// OwnerID returns the identifier recorded as wallet owner and request user
func (k *APIKey) OwnerID() string {
	return k.ID.Hex()
}
