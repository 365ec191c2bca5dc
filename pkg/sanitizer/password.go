package sanitizer

import (
	"fmt"
	"regexp"
)

// PasswordPolicy describes the complexity required of a master password
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumbers   bool
	RequireSymbols   bool
}

// DefaultPasswordPolicy returns the policy applied to wallet master passwords
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		RequireSymbols:   true,
	}
}

// PasswordCheck is the outcome of a password policy evaluation
type PasswordCheck struct {
	IsSecure        bool     `json:"is_secure"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

var (
	upperPattern  = regexp.MustCompile(`[A-Z]`)
	lowerPattern  = regexp.MustCompile(`[a-z]`)
	digitPattern  = regexp.MustCompile(`\d`)
	symbolPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// ValidateMasterPassword evaluates password against policy
func ValidateMasterPassword(password string, policy PasswordPolicy) PasswordCheck {
	warnings := []string{}

	if len(password) < policy.MinLength {
		warnings = append(warnings, fmt.Sprintf("password must be at least %d characters long", policy.MinLength))
	}
	if policy.RequireUppercase && !upperPattern.MatchString(password) {
		warnings = append(warnings, "password must contain at least one uppercase letter")
	}
	if policy.RequireLowercase && !lowerPattern.MatchString(password) {
		warnings = append(warnings, "password must contain at least one lowercase letter")
	}
	if policy.RequireNumbers && !digitPattern.MatchString(password) {
		warnings = append(warnings, "password must contain at least one number")
	}
	if policy.RequireSymbols && !symbolPattern.MatchString(password) {
		warnings = append(warnings, "password must contain at least one special character")
	}

	recommendation := "strong password detected"
	if len(warnings) > 0 {
		recommendation = "consider using a password manager to generate a secure password"
	}

	return PasswordCheck{
		IsSecure:        len(warnings) == 0,
		Warnings:        warnings,
		Recommendations: []string{recommendation},
	}
}
