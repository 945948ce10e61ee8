package auth

import "strings"

// Password policy reasons, reported verbatim to clients.
const (
	ReasonTooShort    = "Password must be at least 8 characters long"
	ReasonNoUppercase = "Password must contain at least one uppercase letter"
	ReasonNoLowercase = "Password must contain at least one lowercase letter"
	ReasonNoDigit     = "Password must contain at least one number"
	ReasonNoSpecial   = "Password must contain at least one special character"
)

const (
	MinPasswordLength = 8
	SpecialCharacters = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

// PolicyResult is the outcome of CheckPasswordPolicy. Reason is empty when
// Valid is true.
type PolicyResult struct {
	Valid  bool
	Reason string
}

type passwordRule struct {
	ok     func(string) bool
	reason string
}

// Rules are evaluated in order; the first failing one is reported.
var passwordRules = []passwordRule{
	{func(p string) bool { return len([]rune(p)) >= MinPasswordLength }, ReasonTooShort},
	{func(p string) bool { return containsAny(p, 'A', 'Z') }, ReasonNoUppercase},
	{func(p string) bool { return containsAny(p, 'a', 'z') }, ReasonNoLowercase},
	{func(p string) bool { return containsAny(p, '0', '9') }, ReasonNoDigit},
	{func(p string) bool { return strings.ContainsAny(p, SpecialCharacters) }, ReasonNoSpecial},
}

// CheckPasswordPolicy reports the first password rule p violates. Letter and
// digit classes are ASCII only.
func CheckPasswordPolicy(p string) PolicyResult {
	for _, rule := range passwordRules {
		if !rule.ok(p) {
			return PolicyResult{Reason: rule.reason}
		}
	}
	return PolicyResult{Valid: true}
}

func containsAny(s string, lo, hi byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= lo && s[i] <= hi {
			return true
		}
	}
	return false
}
