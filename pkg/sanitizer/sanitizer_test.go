package sanitizer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAddress = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     Options
		expected string
	}{
		{"TrimsWhitespace", "  hello  ", Options{}, "hello"},
		{"StripsScriptBlock", "hi<script>alert(1)</script>there", Options{AllowWhitespace: true}, "hithere"},
		{"StripsMultilineScript", "a<SCRIPT type=x>\nbad()\n</script>b", Options{}, "ab"},
		{"StripsTags", "<b>bold</b> text", Options{AllowWhitespace: true}, "bold text"},
		{"StripsUnsafeChars", `a'b"c&d`, Options{}, "abcd"},
		{"AlphanumericOnly", "abc-123_!", Options{AlphanumericOnly: true}, "abc123"},
		{"CollapsesWhitespace", "a \t\n b", Options{}, "a b"},
		{"KeepsWhitespaceWhenAllowed", "a  b", Options{AllowWhitespace: true}, "a  b"},
		{"Truncates", "abcdef", Options{MaxLength: 3}, "abc"},
		{"TruncatesRunes", "ééééé", Options{MaxLength: 2}, "éé"},
		{"TrimsAfterTruncation", "ab cd", Options{MaxLength: 3}, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input, tt.opts))
		})
	}
}

func TestSanitizeStringIsIdempotent(t *testing.T) {
	inputs := []string{
		"  <b> x</b> ",
		"<scr<b>ipt>alert(1)</script>",
		"ab cd ef",
		"a\t\tb  c",
		`'quoted' & "double"`,
		"<<x>>y",
		"émoji 🚀 text",
		"line\nbreak\r\nend",
	}
	optionSets := []Options{
		{},
		{AllowWhitespace: true},
		{AlphanumericOnly: true},
		{MaxLength: 5},
		{AllowWhitespace: true, MaxLength: 3},
		{AlphanumericOnly: true, MaxLength: 4},
	}

	for _, input := range inputs {
		for _, opts := range optionSets {
			once := SanitizeString(input, opts)
			twice := SanitizeString(once, opts)
			assert.Equal(t, once, twice, "input %q opts %+v", input, opts)
			assert.NotContains(t, once, "<")
			assert.NotContains(t, once, ">")
			assert.NotContains(t, once, "'")
			assert.NotContains(t, once, `"`)
			assert.NotContains(t, once, "&")
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	_, err := SanitizeValue(42, Options{})
	assert.ErrorIs(t, err, ErrNotString)

	out, err := SanitizeValue(" ok ", Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestSanitizeWalletName(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		name, err := SanitizeWalletName("  My <b>Main</b> Wallet ")
		require.NoError(t, err)
		assert.Equal(t, "My Main Wallet", name)
	})

	t.Run("Required", func(t *testing.T) {
		_, err := SanitizeWalletName("")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("EmptyAfterSanitization", func(t *testing.T) {
		_, err := SanitizeWalletName("<script>x</script>")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty after sanitization")
	})

	t.Run("TruncatedToFifty", func(t *testing.T) {
		name, err := SanitizeWalletName(strings.Repeat("a", 80))
		require.NoError(t, err)
		assert.Len(t, name, MaxWalletNameLength)
	})
}

func TestSanitizeAddress(t *testing.T) {
	t.Run("ValidUnchanged", func(t *testing.T) {
		for _, addr := range []string{
			validAddress,
			"11111111111111111111111111111112",
			"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		} {
			out, err := SanitizeAddress(addr)
			require.NoError(t, err)
			assert.Equal(t, addr, out)
			assert.True(t, IsValidAddress(addr))
		}
	})

	t.Run("WhitespaceStripped", func(t *testing.T) {
		out, err := SanitizeAddress("  " + validAddress[:10] + " " + validAddress[10:] + "\n")
		require.NoError(t, err)
		assert.Equal(t, validAddress, out)
	})

	t.Run("Invalid", func(t *testing.T) {
		invalid := []string{
			"",
			"short",
			strings.Repeat("1", 31),
			strings.Repeat("1", 45),
			strings.Repeat("0", 40),
			strings.Repeat("O", 40),
			strings.Repeat("I", 40),
			strings.Repeat("l", 40),
		}
		for _, addr := range invalid {
			_, err := SanitizeAddress(addr)
			assert.Error(t, err, "address %q", addr)
			assert.True(t, IsValidationError(err))
		}
	})

	t.Run("LengthBoundaries", func(t *testing.T) {
		for n := 32; n <= 44; n++ {
			addr := strings.Repeat("2", n)
			out, err := SanitizeAddress(addr)
			require.NoError(t, err, "length %d", n)
			assert.Equal(t, addr, out)
		}
	})
}

func TestSanitizeTokenSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{" usdc! ", "USDC", false},
		{"sol", "SOL", false},
		{"abcdefghijklmno", "ABCDEFGHIJ", false},
		{"w sol", "WSOL", false},
		{"", "", true},
		{"!!!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := SanitizeTokenSymbol(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestSanitizeNumber(t *testing.T) {
	decimals := NumberOptions{Min: Bound(0), Max: Bound(18), Integer: true}

	t.Run("Coercion", func(t *testing.T) {
		cases := map[string]struct {
			input    interface{}
			expected float64
		}{
			"Float":       {6.0, 6},
			"Int":         {9, 9},
			"String":      {" 12 ", 12},
			"EmptyIsZero": {"", 0},
			"Bool":        {true, 1},
			"JSONNumber":  {json.Number("7"), 7},
		}
		for name, c := range cases {
			t.Run(name, func(t *testing.T) {
				out, err := SanitizeNumber(c.input, decimals)
				require.NoError(t, err)
				assert.Equal(t, c.expected, out)
			})
		}
	})

	t.Run("Rejects", func(t *testing.T) {
		for _, input := range []interface{}{"abc", nil, 6.5, -1, 19, struct{}{}} {
			_, err := SanitizeNumber(input, decimals)
			assert.Error(t, err, "input %v", input)
			assert.True(t, IsValidationError(err))
		}
	})

	t.Run("NoBounds", func(t *testing.T) {
		out, err := SanitizeNumber("-3.25", NumberOptions{})
		require.NoError(t, err)
		assert.Equal(t, -3.25, out)
	})
}

func TestValidateMasterPassword(t *testing.T) {
	strong := ValidateMasterPassword("MySecurePass123!", DefaultPasswordPolicy())
	assert.True(t, strong.IsSecure)
	assert.Empty(t, strong.Warnings)

	weak := ValidateMasterPassword("short", DefaultPasswordPolicy())
	assert.False(t, weak.IsSecure)
	assert.Len(t, weak.Warnings, 4)
	assert.Contains(t, weak.Recommendations[0], "password manager")
}
