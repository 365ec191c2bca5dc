package security

import (
	"time"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/cache"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/httpsecurity"
)

// CSRFHeader carries the token on state-changing requests
const CSRFHeader = "X-CSRF-Token"

// CSRFStore issues one token per client and remembers it for a TTL
type CSRFStore struct {
	tokens *cache.Cache[string]
}

// NewCSRFStore creates a store holding up to size tokens for ttl each
func NewCSRFStore(size int, ttl time.Duration) (*CSRFStore, error) {
	tokens, err := cache.New[string](size, ttl)
	if err != nil {
		return nil, err
	}
	return &CSRFStore{tokens: tokens}, nil
}

// Issue creates a fresh token for clientID, replacing any previous one
func (s *CSRFStore) Issue(clientID string) (string, error) {
	token, err := httpsecurity.GenerateCSRFToken()
	if err != nil {
		return "", err
	}
	s.tokens.Set(clientID, token)
	return token, nil
}

// Validate reports whether token is the live token for clientID
func (s *CSRFStore) Validate(clientID, token string) bool {
	expected, ok := s.tokens.Get(clientID)
	if !ok {
		return false
	}
	return httpsecurity.ValidateCSRFToken(token, expected)
}

// Stop halts the expiry sweep
func (s *CSRFStore) Stop() {
	s.tokens.Stop()
}
