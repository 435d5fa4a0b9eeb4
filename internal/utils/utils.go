package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashEmail creates a consistent digest for logging without exposing PII.
func HashEmail(email string) string {
	hash := sha256.Sum256([]byte(email))
	return hex.EncodeToString(hash[:])[:12]
}

// HashToken is a shorter digest for tokens and session ids in logs.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])[:8]
}

// NormalizeEmail lowercases and trims an address so lookups and locks agree on one key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
