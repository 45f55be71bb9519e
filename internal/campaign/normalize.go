package campaign

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidFormat rejects input that cannot be normalized to E.164.
var ErrInvalidFormat = errors.New("campaign: invalid number format")

// ReasonInvalidFormat tags rejected numbers in history entries.
const ReasonInvalidFormat = "invalid_format"

var e164 = regexp.MustCompile(`^\+[0-9]{10,15}$`)

// NormalizeNumber converts an arbitrary raw string into an E.164 number
// (leading +, 10-15 digits) or rejects it with ErrInvalidFormat.
//
// Separators, parentheses and letters are stripped. Input without a leading
// "+" gets defaultCountryCode (e.g. "+1") prepended; when no default is
// configured such input is rejected rather than silently assigned a country.
//
// Normalization is pure and idempotent: normalizing an already-normalized
// number yields the same number.
func NormalizeNumber(raw, defaultCountryCode string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidFormat
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	var number string
	switch {
	case strings.HasPrefix(trimmed, "+"):
		number = "+" + digits.String()
	case defaultCountryCode != "":
		number = defaultCountryCode + digits.String()
	default:
		return "", ErrInvalidFormat
	}

	if !e164.MatchString(number) {
		return "", ErrInvalidFormat
	}
	return number, nil
}
