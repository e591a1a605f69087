package driven

import (
	"context"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// PlatformAdapter speaks OAuth2 to one streaming platform.
// Implementations differ only in endpoints, scopes and response shapes;
// callers never branch on which platform they hold.
type PlatformAdapter interface {
	// Platform returns the identifier this adapter serves.
	Platform() domain.Platform

	// BuildAuthorizeURL returns the platform consent URL carrying the state and S256 challenge.
	BuildAuthorizeURL(state, codeChallenge, redirectURI string) string

	// ExchangeCode redeems an authorization code. It is never retried.
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.TokenResult, error)

	// RefreshToken obtains a new access token. The result carries a new refresh
	// token only when the platform rotated it.
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResult, error)

	// FetchProfile returns the identity behind an access token.
	FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error)
}

// PlatformRegistry resolves adapters by platform identifier.
type PlatformRegistry interface {
	// Adapter returns domain.ErrUnsupportedPlatform for unknown or unconfigured platforms.
	Adapter(platform domain.Platform) (PlatformAdapter, error)

	// Platforms lists the configured platforms.
	Platforms() []domain.Platform
}
