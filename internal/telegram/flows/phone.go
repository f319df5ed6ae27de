package flows

import "strings"

// NormalizePhone strips everything but digits and keeps a leading "+".
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	var b strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidPhoneNumber accepts an already normalized number of 9 to 15 digits.
// Nine digits is the local Uzbek form without the country code.
func IsValidPhoneNumber(phone string) bool {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 9 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
