package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// stateTokenBytes is the entropy of a state token before encoding.
const stateTokenBytes = 32

// GenerateVerifier returns a fresh PKCE code verifier: 32 random bytes,
// base64url encoded without padding (43 characters).
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// ChallengeFor derives the S256 code challenge for a verifier.
func ChallengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// generateStateToken returns an unguessable state token.
func generateStateToken() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
