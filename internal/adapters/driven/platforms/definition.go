package platforms

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// Credentials are the client credentials registered with a platform.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Configured reports whether both halves of the credentials are set.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Endpoints are the URLs an adapter talks to.
type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
}

// Definition describes everything that differs between platforms.
// The adapter logic itself is shared.
type Definition struct {
	Platform  domain.Platform
	Endpoints Endpoints
	Scopes    []string
	AuthStyle oauth2.AuthStyle

	// AuthParams are extra query parameters for the consent URL.
	AuthParams map[string]string

	// ProfileHeaders adds platform-specific headers to profile requests.
	ProfileHeaders func(h http.Header, creds Credentials)

	// DecodeProfile extracts the identity from a profile response body.
	DecodeProfile func(body []byte) (*domain.Profile, error)
}

// Definitions returns the built-in platform definitions.
func Definitions() []Definition {
	return []Definition{Twitch(), YouTube(), Kick()}
}
