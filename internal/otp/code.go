package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// GenerateCode returns a numeric code string of the given length (e.g. "0427").
// Uses crypto/rand for randomness; a non-cryptographic source is never
// acceptable here. Bytes of 250 and above are rejected so every digit is
// uniform; a plain modulo would skew 0-5 and lower the guess cost.
func GenerateCode(digits int) (string, error) {
	s := make([]byte, digits)
	var b [1]byte
	for i := 0; i < digits; {
		if _, err := rand.Read(b[:]); err != nil {
			return "", err
		}
		if b[0] >= 250 {
			continue
		}
		s[i] = '0' + b[0]%10
		i++
	}
	return string(s), nil
}

// HashCode returns a SHA-256 hash of the code string, base64-encoded.
// Only the hash is ever persisted or compared.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return base64.StdEncoding.EncodeToString(h[:])
}

// CodeEqual performs constant-time comparison of the provided code's hash with the stored hash.
func CodeEqual(providedCode, storedHash string) bool {
	providedHash := HashCode(providedCode)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
