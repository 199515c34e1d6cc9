package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateToken returns a fresh opaque participant token. Raw tokens are
// handed to the client once and never persisted.
func GenerateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken derives the one-way hash stored for invite tokens and
// participant proof tokens.
func HashToken(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyTokenHash compares a raw token against a stored hash in constant
// time.
func VerifyTokenHash(token, tokenHash, secret string) bool {
	if tokenHash == "" {
		return false
	}
	computed := HashToken(token, secret)
	return hmac.Equal([]byte(computed), []byte(tokenHash))
}
