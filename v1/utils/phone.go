package utils

import (
	"regexp"
	"strings"
)

var (
	nonPhoneChars = regexp.MustCompile(`[^0-9+]`)
	nonDigits     = regexp.MustCompile(`[^0-9]`)
)

// NormalizePhone extracts and normalizes a phone number from free-text input.
// The canonical form is the Indonesian local format (leading "0"). It returns
// false when the input does not contain a usable phone number.
func NormalizePhone(raw string) (string, bool) {
	cleaned := nonPhoneChars.ReplaceAllString(raw, "")

	// Check if it looks like a phone number (at least 10 digits)
	if len(nonDigits.ReplaceAllString(cleaned, "")) < 10 {
		return "", false
	}

	// Remove + and any leading zeros for processing
	phone := strings.TrimLeft(strings.ReplaceAll(cleaned, "+", ""), "0")

	switch {
	case strings.HasPrefix(phone, "62"):
		// Convert +62 to the local 0 prefix
		phone = "0" + phone[2:]
	case len(phone) >= 10 && !strings.HasPrefix(phone, "0"):
		// Long number without a country code, assume Indonesian
		phone = "0" + phone
	case !strings.HasPrefix(phone, "0") && len(phone) < 15:
		// Shorter number, assume local format
		phone = "0" + phone
	}

	if len(phone) < 10 {
		return "", false
	}
	return phone, true
}
