// Package identifier format-checks and normalizes the email addresses and
// phone numbers users register with. Pure functions, no side effects.
package identifier

import (
	"errors"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Per-country phone rules, keyed by dialing prefix. Each country has its own
// digit-count/pattern rule; anything outside this set is rejected.
var phonePatterns = []struct {
	prefix  string
	pattern *regexp.Regexp
}{
	{"+261", regexp.MustCompile(`^\+261[3238]\d{8}$`)}, // Madagascar
	{"+86", regexp.MustCompile(`^\+86\d{11}$`)},        // China
}

// ErrUnsupportedCountry is returned for phone numbers whose dialing prefix is
// not in the recognized set.
var ErrUnsupportedCountry = errors.New("unsupported country code")

// ErrInvalidPhone is returned for numbers with a recognized prefix that fail
// that country's pattern.
var ErrInvalidPhone = errors.New("invalid phone number format")

// ErrInvalidEmail is returned for strings that fail the email shape check.
var ErrInvalidEmail = errors.New("invalid email address format")

// ValidateEmail reports whether s has a conventional local@domain.tld shape.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizePhone strips everything except digits and a leading '+', then
// validates against the recognized country rules. Returns the normalized
// E.164-like form; it must be called before a phone number is treated as
// canonical anywhere downstream.
func NormalizePhone(s string) (string, error) {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' || c == '+' {
			b.WriteRune(c)
		}
	}
	phone := b.String()

	for _, rule := range phonePatterns {
		if strings.HasPrefix(phone, rule.prefix) {
			if !rule.pattern.MatchString(phone) {
				return "", ErrInvalidPhone
			}
			return phone, nil
		}
	}
	return "", ErrUnsupportedCountry
}
