package digits

import (
	"errors"
	"strings"
)

// Lengths of the digit strings collected on the activation form.
const (
	LastSixLen = 6
	PINLen     = 4
)

var (
	ErrRequired = errors.New("value is required")
	ErrFormat   = errors.New("value has the wrong digit format")
)

// ValidateLastSix checks the trailing six digits of a card number.
func ValidateLastSix(s string) error {
	return validateExactly(s, LastSixLen)
}

// ValidatePIN checks a four digit PIN.
func ValidatePIN(s string) error {
	return validateExactly(s, PINLen)
}

func validateExactly(s string, n int) error {
	if s == "" {
		return ErrRequired
	}
	if !Exactly(s, n) {
		return ErrFormat
	}
	return nil
}

// Exactly reports whether s consists of exactly n ASCII digits.
func Exactly(s string, n int) bool {
	return len(s) == n && IsDigits(s)
}

func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func LastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Mask hides everything but the last two characters, for log output.
func Mask(s string) string {
	n := len(s)
	if n == 0 {
		return ""
	}
	if n <= 2 {
		return strings.Repeat("*", n)
	}
	return strings.Repeat("*", n-2) + LastN(s, 2)
}
