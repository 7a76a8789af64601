// Package inputval holds the field validation rules shared across features.
// Each check returns a user-facing message, empty when the value passes.
package inputval

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// NameLen checks a personal-name field: required, 3 to 50 characters.
func NameLen(label, value string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < 3 || n > 50 {
		return fmt.Sprintf("%s must be between 3 and 50 characters.", label)
	}
	return ""
}

// Email checks that value parses as an address with a domain.
func Email(value string) string {
	value = strings.TrimSpace(value)
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value, "@") {
		return "A valid email address is required."
	}
	if i := strings.LastIndex(value, "@"); !strings.Contains(value[i+1:], ".") {
		return "A valid email address is required."
	}
	return ""
}

// Password enforces the minimum credential length.
func Password(value string) string {
	if utf8.RuneCountInString(value) < 8 {
		return "Password must be at least 8 characters."
	}
	return ""
}

// Required checks for a non-blank value.
func Required(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return fmt.Sprintf("%s is required.", label)
	}
	return ""
}

// MaxLen caps a free-text field.
func MaxLen(label, value string, max int) string {
	if utf8.RuneCountInString(value) > max {
		return fmt.Sprintf("%s must be at most %d characters.", label, max)
	}
	return ""
}

// First returns the first non-empty message, empty when all pass.
func First(msgs ...string) string {
	for _, m := range msgs {
		if m != "" {
			return m
		}
	}
	return ""
}
