// Package masking produces partially-redacted phone and email strings for
// client-safe responses. Pure functions, no I/O.
package masking

import "strings"

// MaskPhone redacts all but the last three characters of phone.
// "3001234789" becomes "*******789". Phones of three characters or fewer
// are fully redacted. Empty input returns empty.
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	r := []rune(phone)
	if len(r) <= 3 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-3) + string(r[len(r)-3:])
}

// MaskEmail redacts the local part of email, keeping its first two characters
// and the full domain. "patient@example.com" becomes "pa***@example.com".
// Inputs without "@" are fully redacted. Empty input returns empty.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return strings.Repeat("*", len([]rune(email)))
	}
	local := []rune(email[:at])
	keep := 2
	if len(local) < keep {
		keep = len(local)
	}
	return string(local[:keep]) + "***" + email[at:]
}
