package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a session token before encoding. 32 random
// bytes make collisions negligible at any realistic session volume; the
// stores still enforce uniqueness by using the token as the lookup key.
const tokenBytes = 32

// TokenSource produces opaque session tokens.
type TokenSource interface {
	Token() (string, error)
}

// RandomTokenSource draws tokens from crypto/rand, hex-encoded so they are
// safe as cookie values and storage keys.
type RandomTokenSource struct{}

// NewRandomTokenSource creates a RandomTokenSource.
func NewRandomTokenSource() *RandomTokenSource {
	return &RandomTokenSource{}
}

// Token returns a fresh 64-character hex token.
func (s *RandomTokenSource) Token() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
