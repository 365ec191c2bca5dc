package httpsecurity

import "strings"

// ValidateCorsOrigin reports whether origin may make cross-origin requests.
// Any origin containing localhost or 127.0.0.1 is accepted for local
// development; everything else must appear verbatim in allowed.
func ValidateCorsOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}

	if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
		return true
	}

	for _, o := range allowed {
		if o == origin {
			return true
		}
	}
	return false
}
