package sanitizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxWalletNameLength is the longest wallet name accepted after sanitization
	MaxWalletNameLength = 50
	// MaxTokenSymbolLength is the longest token symbol accepted after sanitization
	MaxTokenSymbolLength = 10
)

var (
	// ErrNotString is returned when a non-string value reaches a string sanitizer
	ErrNotString = errors.New("input must be a string")

	scriptBlockPattern = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	unsafeCharPattern  = regexp.MustCompile(`[<>'"&]`)
	nonAlnumPattern    = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	base58Address      = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// ValidationError reports malformed or missing user input
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Options controls how SanitizeString cleans its input
type Options struct {
	AllowWhitespace  bool
	MaxLength        int
	AlphanumericOnly bool
}

// SanitizeString trims input, strips script blocks, tags and the characters
// <>'"& and then applies the optional alphanumeric filter, whitespace
// collapsing and length limit. The result is trimmed again so that
// re-sanitizing it is a no-op.
func SanitizeString(input string, opts Options) string {
	sanitized := strings.TrimSpace(input)

	sanitized = scriptBlockPattern.ReplaceAllString(sanitized, "")
	sanitized = tagPattern.ReplaceAllString(sanitized, "")
	sanitized = unsafeCharPattern.ReplaceAllString(sanitized, "")

	if opts.AlphanumericOnly {
		sanitized = nonAlnumPattern.ReplaceAllString(sanitized, "")
	}

	if !opts.AllowWhitespace {
		sanitized = whitespaceRun.ReplaceAllString(sanitized, " ")
	}

	if opts.MaxLength > 0 {
		sanitized = truncate(sanitized, opts.MaxLength)
	}

	return strings.TrimSpace(sanitized)
}

// SanitizeValue sanitizes a dynamically typed value that is expected to be a string
func SanitizeValue(input interface{}, opts Options) (string, error) {
	s, ok := input.(string)
	if !ok {
		return "", ErrNotString
	}
	return SanitizeString(s, opts), nil
}

// SanitizeWalletName validates and sanitizes a wallet name
func SanitizeWalletName(name string) (string, error) {
	if name == "" {
		return "", NewValidationError("name", "wallet name is required")
	}

	sanitized := SanitizeString(name, Options{
		AllowWhitespace: true,
		MaxLength:       MaxWalletNameLength,
	})

	if len(sanitized) == 0 {
		return "", NewValidationError("name", "wallet name cannot be empty after sanitization")
	}

	// Unreachable while SanitizeString truncates, kept as a guard if the limits diverge.
	if utf8.RuneCountInString(sanitized) > MaxWalletNameLength {
		return "", NewValidationError("name", "wallet name is too long")
	}

	return sanitized, nil
}

// SanitizeAddress strips whitespace and non-alphanumerics from a Solana address
// and checks it against the base58 alphabet with a length of 32-44 characters.
// This is a format check only; a passing address is not proof of an on-chain account.
func SanitizeAddress(address string) (string, error) {
	if address == "" {
		return "", NewValidationError("address", "address is required")
	}

	sanitized := removeWhitespace(SanitizeString(address, Options{AlphanumericOnly: true}))

	if !base58Address.MatchString(sanitized) {
		return "", NewValidationError("address", "invalid address format")
	}

	return sanitized, nil
}

// IsValidAddress reports whether address passes SanitizeAddress unchanged
func IsValidAddress(address string) bool {
	sanitized, err := SanitizeAddress(address)
	return err == nil && sanitized == address
}

// SanitizeTokenSymbol reduces a symbol to upper-case alphanumerics of 1-10 characters
func SanitizeTokenSymbol(symbol string) (string, error) {
	if symbol == "" {
		return "", NewValidationError("symbol", "token symbol is required")
	}

	sanitized := removeWhitespace(SanitizeString(symbol, Options{AlphanumericOnly: true}))
	sanitized = strings.ToUpper(truncate(sanitized, MaxTokenSymbolLength))

	if len(sanitized) < 1 || len(sanitized) > MaxTokenSymbolLength {
		return "", NewValidationError("symbol", "token symbol must be 1-10 characters")
	}

	return sanitized, nil
}

// NumberOptions bounds the values accepted by SanitizeNumber
type NumberOptions struct {
	Min     *float64
	Max     *float64
	Integer bool
}

// Bound returns a pointer to v for use in NumberOptions
func Bound(v float64) *float64 {
	return &v
}

// SanitizeNumber coerces input to a finite number and enforces the given bounds.
// Strings are parsed after trimming; an empty string coerces to zero and booleans
// coerce to 0 or 1.
func SanitizeNumber(input interface{}, opts NumberOptions) (float64, error) {
	num, ok := toNumber(input)
	if !ok || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, NewValidationError("", "input must be a valid number")
	}

	if opts.Integer && num != math.Trunc(num) {
		return 0, NewValidationError("", "input must be an integer")
	}

	if opts.Min != nil && num < *opts.Min {
		return 0, NewValidationError("", fmt.Sprintf("number must be at least %s", formatNumber(*opts.Min)))
	}

	if opts.Max != nil && num > *opts.Max {
		return 0, NewValidationError("", fmt.Sprintf("number must be at most %s", formatNumber(*opts.Max)))
	}

	return num, nil
}

func toNumber(input interface{}) (float64, bool) {
	switch v := input.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLength])
}

func removeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
