package password

import (
	"errors"
	"strings"
	"unicode"
)

// ErrPolicy is the sentinel wrapped by every policy violation.
var ErrPolicy = errors.New("password does not satisfy policy")

// Violation names one failed policy rule.
type Violation string

const (
	ViolationTooShort      Violation = "too_short"
	ViolationTooLong       Violation = "too_long"
	ViolationNoUppercase   Violation = "no_uppercase"
	ViolationNoLowercase   Violation = "no_lowercase"
	ViolationNoDigit       Violation = "no_digit"
	ViolationNoSymbol      Violation = "no_symbol"
	ViolationHasWhitespace Violation = "has_whitespace"
)

// PolicyError lists every rule a candidate password broke.
type PolicyError struct {
	Violations []Violation
}

func (e *PolicyError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = string(v)
	}
	return ErrPolicy.Error() + ": " + strings.Join(parts, ", ")
}

func (e *PolicyError) Unwrap() error { return ErrPolicy }

// Policy describes what a new password must contain.
type Policy struct {
	MinLength       int
	MaxLength       int
	RequireUpper    bool
	RequireLower    bool
	RequireDigit    bool
	RequireSymbol   bool
	AllowWhitespace bool
}

// DefaultPolicy mirrors the portal's registration and password-change forms.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:     8,
		MaxLength:     128,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// Check returns nil when candidate satisfies p, or a *PolicyError listing
// every violation.
func (p Policy) Check(candidate string) error {
	var (
		upper, lower, digit, symbol, space bool
		length                             int
	)
	for _, r := range candidate {
		length++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	var violations []Violation
	if p.MinLength > 0 && length < p.MinLength {
		violations = append(violations, ViolationTooShort)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		violations = append(violations, ViolationTooLong)
	}
	if p.RequireUpper && !upper {
		violations = append(violations, ViolationNoUppercase)
	}
	if p.RequireLower && !lower {
		violations = append(violations, ViolationNoLowercase)
	}
	if p.RequireDigit && !digit {
		violations = append(violations, ViolationNoDigit)
	}
	if p.RequireSymbol && !symbol {
		violations = append(violations, ViolationNoSymbol)
	}
	if !p.AllowWhitespace && space {
		violations = append(violations, ViolationHasWhitespace)
	}

	if len(violations) == 0 {
		return nil
	}
	return &PolicyError{Violations: violations}
}

// Validate reports inconsistent policy bounds.
func (p Policy) Validate() error {
	if p.MinLength < 0 || p.MaxLength < 0 {
		return errors.New("password policy lengths must be >= 0")
	}
	if p.MaxLength > 0 && p.MinLength > p.MaxLength {
		return errors.New("password policy min length exceeds max length")
	}
	return nil
}
