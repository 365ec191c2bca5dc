package models

// DefaultDerivationPath is the Solana BIP44 path used when none is supplied
const DefaultDerivationPath = "m/44'/501'/0'/0'"

// Wallet is a stored wallet record. Key material is held only in its
// encrypted form.
type Wallet struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	PublicKey           string                 `json:"publicKey"`
	EncryptedPrivateKey string                 `json:"encryptedPrivateKey"`
	EncryptedSeedPhrase string                 `json:"encryptedSeedPhrase,omitempty"`
	DerivationPath      string                 `json:"derivationPath"`
	IsActive            bool                   `json:"isActive"`
	OwnerID             string                 `json:"ownerId,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt           int64                  `json:"createdAt"`
	UpdatedAt           int64                  `json:"updatedAt"`
}

// Clone returns a deep-enough copy for handing out of a repository
func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	c := *w
	if w.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(w.Metadata))
		for k, v := range w.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// WalletInput is the unsanitized payload for creating a wallet
type WalletInput struct {
	Name                string                 `json:"name"`
	PublicKey           string                 `json:"publicKey"`
	EncryptedPrivateKey string                 `json:"encryptedPrivateKey"`
	EncryptedSeedPhrase *string                `json:"encryptedSeedPhrase,omitempty"`
	DerivationPath      string                 `json:"derivationPath"`
	IsActive            *bool                  `json:"isActive,omitempty"`
	OwnerID             string                 `json:"ownerId,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// WalletPatch carries the fields of a wallet update; nil fields are untouched
type WalletPatch struct {
	Name                *string                `json:"name,omitempty"`
	PublicKey           *string                `json:"publicKey,omitempty"`
	EncryptedPrivateKey *string                `json:"encryptedPrivateKey,omitempty"`
	EncryptedSeedPhrase *string                `json:"encryptedSeedPhrase,omitempty"`
	DerivationPath      *string                `json:"derivationPath,omitempty"`
	IsActive            *bool                  `json:"isActive,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// WalletFilter narrows FindAll results; zero values match everything
type WalletFilter struct {
	Name      string `form:"name"`
	PublicKey string `form:"publicKey"`
	IsActive  *bool  `form:"isActive"`
	OwnerID   string `form:"ownerId"`
}
