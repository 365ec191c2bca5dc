package httpsecurity

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
)

const (
	csrfTokenLength = 32
	csrfAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateCSRFToken returns a random 32 character alphanumeric token
func GenerateCSRFToken() (string, error) {
	token := make([]byte, csrfTokenLength)
	max := big.NewInt(int64(len(csrfAlphabet)))

	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		token[i] = csrfAlphabet[n.Int64()]
	}

	return string(token), nil
}

// ValidateCSRFToken compares token with expected in constant time.
// Empty values never validate.
func ValidateCSRFToken(token, expected string) bool {
	if token == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}
