package masking

import "testing"

func TestMaskPhone(t *testing.T) {
	testCases := []struct {
		name  string
		phone string
		want  string
	}{
		{"typical mobile", "3001234789", "*******789"},
		{"with country code", "+573001234789", "**********789"},
		{"short", "789", "***"},
		{"two digits", "12", "**"},
		{"empty", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskPhone(tc.phone); got != tc.want {
				t.Errorf("MaskPhone(%q) = %q, want %q", tc.phone, got, tc.want)
			}
		})
	}
}

func TestMaskEmail(t *testing.T) {
	testCases := []struct {
		name  string
		email string
		want  string
	}{
		{"typical", "patient@example.com", "pa***@example.com"},
		{"short local part", "a@example.com", "a***@example.com"},
		{"no at sign", "not-an-email", "************"},
		{"empty", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskEmail(tc.email); got != tc.want {
				t.Errorf("MaskEmail(%q) = %q, want %q", tc.email, got, tc.want)
			}
		})
	}
}
