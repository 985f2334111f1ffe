package otp

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestGenerateCode_LengthAndDigits(t *testing.T) {
	for _, digits := range []int{4, 6} {
		code, err := GenerateCode(digits)
		if err != nil {
			t.Fatalf("GenerateCode(%d): %v", digits, err)
		}
		if len(code) != digits {
			t.Errorf("len(code) = %d, want %d", len(code), digits)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Errorf("code %q contains non-digit %q", code, r)
			}
		}
	}
}

func TestGenerateCode_NotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode(6)
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 50 {
		t.Errorf("100 generated codes produced only %d distinct values", len(seen))
	}
}

func TestGenerateCode_DigitsUniform(t *testing.T) {
	// 400000 digits, 40000 expected per value, std dev ~190. A tolerance of
	// 1000 is over five standard deviations, yet a plain byte%10 generator
	// skews digits 0-5 by about 1600 and reliably trips it.
	counts := make(map[rune]int)
	for i := 0; i < 100000; i++ {
		code, err := GenerateCode(4)
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		for _, r := range code {
			counts[r]++
		}
	}
	const expected, tolerance = 40000, 1000
	for d := '0'; d <= '9'; d++ {
		if diff := counts[d] - expected; diff < -tolerance || diff > tolerance {
			t.Errorf("digit %q count = %d, want %d±%d", d, counts[d], expected, tolerance)
		}
	}
}

func TestHashCode(t *testing.T) {
	h := sha256.Sum256([]byte("1234"))
	want := base64.StdEncoding.EncodeToString(h[:])
	if got := HashCode("1234"); got != want {
		t.Errorf("HashCode = %q, want %q", got, want)
	}
}

func TestCodeEqual(t *testing.T) {
	hash := HashCode("1234")
	if !CodeEqual("1234", hash) {
		t.Error("correct code should verify")
	}
	if CodeEqual("1235", hash) {
		t.Error("wrong code should not verify")
	}
	if CodeEqual("", hash) {
		t.Error("empty code should not verify")
	}
}
