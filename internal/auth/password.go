package auth

import (
	"fmt"
	"strings"
)

const specialChars = `!@#$%^&*()_+[]{};':"\|,.<>/?`

// PasswordPolicy is a stateless rule set for candidate passwords.
type PasswordPolicy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireSpecialChar bool
}

// DefaultPasswordPolicy is applied to both signup and password reset.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:          8,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireSpecialChar: true,
	}
}

// Validate checks the password against the policy and fails on the FIRST
// violated rule, in fixed order: length, uppercase, lowercase, special
// character. The returned WeakPasswordError carries the specific reason.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return &WeakPasswordError{
			Reason: fmt.Sprintf("The password must have at least %d characters.", p.MinLength),
		}
	}
	if p.RequireUppercase && !strings.ContainsFunc(password, isASCIIUpper) {
		return &WeakPasswordError{
			Reason: "The password must contain at least one uppercase letter.",
		}
	}
	if p.RequireLowercase && !strings.ContainsFunc(password, isASCIILower) {
		return &WeakPasswordError{
			Reason: "The password must contain at least one lowercase letter.",
		}
	}
	if p.RequireSpecialChar && !strings.ContainsAny(password, specialChars) {
		return &WeakPasswordError{
			Reason: "The password must contain at least one special character.",
		}
	}
	return nil
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
