package driven

import "github.com/custodia-labs/streamlink/internal/core/domain"

// AuthAdapter handles bearer token cryptographic operations.
// Tokens are minted by the identity system; GenerateToken exists for tooling and tests.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
