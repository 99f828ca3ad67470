package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// RandomState returns 32 random bytes, base64url encoded, for OAuth state parameters.
func RandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
