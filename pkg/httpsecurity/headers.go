package httpsecurity

import "strings"

// ContentSecurityPolicy allows scripts and styles from self and RPC calls to
// the public Solana clusters
const ContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; " +
	"connect-src 'self' https://api.devnet.solana.com https://api.testnet.solana.com https://api.mainnet-beta.solana.com"

// SecurityHeaders returns the fixed headers added to every response
func SecurityHeaders() map[string]string {
	return map[string]string{
		"X-Frame-Options":           "DENY",
		"X-Content-Type-Options":    "nosniff",
		"X-XSS-Protection":          "1; mode=block",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Content-Security-Policy":   ContentSecurityPolicy,
		"Permissions-Policy":        "camera=(), microphone=(), geolocation=()",
	}
}

// ApplySecurityHeaders returns a copy of headers with the security headers
// merged in. On a name collision, compared case-insensitively, the security
// header wins.
func ApplySecurityHeaders(headers map[string]string) map[string]string {
	fixed := SecurityHeaders()
	merged := make(map[string]string, len(headers)+len(fixed))

	for k, v := range headers {
		if _, overridden := lookupFold(fixed, k); overridden {
			continue
		}
		merged[k] = v
	}
	for k, v := range fixed {
		merged[k] = v
	}

	return merged
}

func lookupFold(m map[string]string, name string) (string, bool) {
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
