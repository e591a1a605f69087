package driving

import (
	"context"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// AuthService verifies bearer tokens issued by the identity system
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
