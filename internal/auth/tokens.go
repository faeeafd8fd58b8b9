package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the entropy of a bearer token value.
const TokenBytes = 32

// GenerateTokenValue returns a fresh opaque bearer value: TokenBytes from
// crypto/rand, base64url encoded without padding.
func GenerateTokenValue() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
