package httpsecurity

import "github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"

// SanitizeResponse strips markup from every string in a decoded response
// payload. Keys are preserved and non-string scalars pass through.
func SanitizeResponse(data interface{}) interface{} {
	switch d := data.(type) {
	case string:
		return sanitizer.SanitizeString(d, sanitizer.Options{AllowWhitespace: true})
	case []interface{}:
		out := make([]interface{}, len(d))
		for i, item := range d {
			out[i] = SanitizeResponse(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(d))
		for k, v := range d {
			out[k] = SanitizeResponse(v)
		}
		return out
	default:
		return data
	}
}
