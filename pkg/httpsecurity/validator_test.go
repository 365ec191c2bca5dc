package httpsecurity

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *Request {
	return &Request{
		Method: "POST",
		URL:    "/api/wallets",
		Headers: map[string]string{
			"content-type": "application/json",
			"user-agent":   "wallet-client/1.0",
		},
		Body: map[string]interface{}{
			"name":      "Main Wallet",
			"publicKey": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		},
	}
}

func TestValidateRequest(t *testing.T) {
	v := NewValidator()

	t.Run("ValidRequest", func(t *testing.T) {
		result := v.ValidateRequest(validRequest())

		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
		require.NotNil(t, result.SanitizedData)
		body := result.SanitizedData.(map[string]interface{})
		assert.Equal(t, "Main Wallet", body["name"])
	})

	t.Run("ValidWithoutBody", func(t *testing.T) {
		req := validRequest()
		req.Method = "get"
		req.Body = nil
		delete(req.Headers, "content-type")

		result := v.ValidateRequest(req)
		assert.True(t, result.IsValid, result.Errors)
		assert.Equal(t, map[string]interface{}{}, result.SanitizedData)
	})

	t.Run("ScriptInBody", func(t *testing.T) {
		req := validRequest()
		req.Body = map[string]interface{}{"name": "<script>alert(1)</script>"}

		result := v.ValidateRequest(req)
		assert.False(t, result.IsValid)
		assert.Nil(t, result.SanitizedData)
		assert.Contains(t, result.Errors, "Potential XSS detected: <script")
		assert.Contains(t, result.Errors, "Potential XSS detected: alert(")
	})

	t.Run("PathTraversal", func(t *testing.T) {
		req := validRequest()
		req.URL = "/api/../etc/passwd"

		result := v.ValidateRequest(req)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Invalid URL format")
	})

	t.Run("AccumulatesErrors", func(t *testing.T) {
		req := &Request{
			Method:  "TRACE",
			URL:     "no-leading-slash",
			Headers: map[string]string{"Content-Type": "text/plain", "Content-Length": "2000000"},
			Body:    "hello",
		}

		result := v.ValidateRequest(req)
		assert.False(t, result.IsValid)
		assert.Equal(t, []string{
			"Method TRACE not allowed",
			"Invalid content type",
			"Request size exceeds limit",
			"Invalid URL format",
			"Missing User-Agent header",
		}, result.Errors)
	})

	t.Run("UnparseableContentLengthIgnored", func(t *testing.T) {
		req := validRequest()
		req.Headers["content-length"] = "lots"

		assert.True(t, v.ValidateRequest(req).IsValid)
	})

	t.Run("SQLInjection", func(t *testing.T) {
		req := validRequest()
		req.Body = map[string]interface{}{"name": "x' UNION SELECT * FROM wallets"}

		result := v.ValidateRequest(req)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Potential SQL injection detected: union select")
	})

	t.Run("HeaderLookupIsCaseInsensitive", func(t *testing.T) {
		req := validRequest()
		req.Headers = map[string]string{"Content-Type": "application/json; charset=utf-8", "User-Agent": "x"}

		assert.True(t, v.ValidateRequest(req).IsValid)
	})
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"/", true},
		{"/api/wallets?name=main&active=true", true},
		{"/api/tokens/by-address/So11111111111111111111111111111111111111112", true},
		{"/api/../secret", false},
		{`/api/..\secret`, false},
		{"/api/\x00", false},
		{"/api/with space", false},
		{"relative/path", false},
		{"/api/<tag>", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidURL(tt.url))
		})
	}
}

func TestSanitizeRequestBody(t *testing.T) {
	t.Run("Object", func(t *testing.T) {
		body := map[string]interface{}{
			"na-me!":   " <b>Wallet</b> ",
			"decimals": json.Number("9"),
			"verified": true,
			"nested":   map[string]interface{}{"logo": "<i>x</i>"},
			"tags":     []interface{}{"<a>one</a>", 2.0, nil},
			"ignored":  nil,
			"!!!":      "dropped because the key sanitises to empty",
		}

		out := SanitizeRequestBody(body).(map[string]interface{})

		assert.Equal(t, "Wallet", out["name"])
		assert.Equal(t, json.Number("9"), out["decimals"])
		assert.Equal(t, true, out["verified"])
		assert.Equal(t, map[string]interface{}{"logo": "x"}, out["nested"])
		assert.Equal(t, []interface{}{"one", 2.0}, out["tags"])
		assert.NotContains(t, out, "ignored")
		assert.Len(t, out, 5)
	})

	t.Run("StringFieldsCapped", func(t *testing.T) {
		out := SanitizeRequestBody(map[string]interface{}{"v": strings.Repeat("a", 5000)}).(map[string]interface{})
		assert.Len(t, out["v"], 1000)
	})

	t.Run("BareStringCapped", func(t *testing.T) {
		out := SanitizeRequestBody(strings.Repeat("b", 20000)).(string)
		assert.Len(t, out, 10000)
	})
}

func TestApplySecurityHeaders(t *testing.T) {
	merged := ApplySecurityHeaders(map[string]string{
		"x-frame-options": "SAMEORIGIN",
		"Content-Type":    "application/json",
	})

	assert.Equal(t, "DENY", merged["X-Frame-Options"])
	assert.NotContains(t, merged, "x-frame-options")
	assert.Equal(t, "application/json", merged["Content-Type"])
	assert.Equal(t, "nosniff", merged["X-Content-Type-Options"])
	assert.Contains(t, merged["Content-Security-Policy"], "https://api.mainnet-beta.solana.com")
	assert.Len(t, merged, 8)

	assert.Len(t, ApplySecurityHeaders(nil), 7)
}

func TestValidateCorsOrigin(t *testing.T) {
	assert.True(t, ValidateCorsOrigin("http://localhost:3000", nil))
	assert.True(t, ValidateCorsOrigin("http://127.0.0.1:5173", []string{}))
	assert.False(t, ValidateCorsOrigin("http://evil.com", []string{}))
	assert.True(t, ValidateCorsOrigin("https://wallet.example", []string{"https://wallet.example"}))
	assert.False(t, ValidateCorsOrigin("https://wallet.example.evil", []string{"https://wallet.example"}))
	assert.False(t, ValidateCorsOrigin("", []string{""}))
}

func TestCSRFToken(t *testing.T) {
	token, err := GenerateCSRFToken()
	require.NoError(t, err)
	assert.Len(t, token, 32)
	for _, r := range token {
		assert.True(t, strings.ContainsRune(csrfAlphabet, r))
	}

	other, err := GenerateCSRFToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	assert.True(t, ValidateCSRFToken(token, token))
	assert.False(t, ValidateCSRFToken(token, other))
	assert.False(t, ValidateCSRFToken("", ""))
	assert.False(t, ValidateCSRFToken(token, ""))
}

func TestSanitizeResponse(t *testing.T) {
	in := map[string]interface{}{
		"message": "<b>done</b>",
		"items":   []interface{}{"<i>a</i>", 1.0},
		"ok":      true,
	}

	out := SanitizeResponse(in).(map[string]interface{})
	assert.Equal(t, "done", out["message"])
	assert.Equal(t, []interface{}{"a", 1.0}, out["items"])
	assert.Equal(t, true, out["ok"])
}
