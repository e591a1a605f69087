package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// OAuthService runs the authorization flow that links a platform account to a user.
type OAuthService interface {
	// Initiate starts an authorization flow and returns the platform consent URL.
	Initiate(ctx context.Context, userID string, platform domain.Platform) (*InitiateResponse, error)

	// HandleCallback validates the returned state, exchanges the code and stores the account.
	// It runs to completion even if ctx is cancelled by the caller.
	HandleCallback(ctx context.Context, req CallbackRequest) (*CallbackResponse, error)
}

// InitiateResponse contains the consent URL for a new authorization flow.
// @Description Response containing the platform authorization URL
type InitiateResponse struct {
	// AuthURL is the URL to send the user to.
	AuthURL string `json:"authUrl" example:"https://id.twitch.tv/oauth2/authorize?client_id=..."`

	// State is the opaque token the platform will echo back.
	State string `json:"-"`

	// ExpiresAt is when the pending authorization lapses.
	ExpiresAt time.Time `json:"-"`
}

// CallbackRequest carries the parameters of the platform redirect.
// @Description OAuth callback parameters from the platform redirect
type CallbackRequest struct {
	UserID   string          `json:"-"`
	Platform domain.Platform `json:"-"`

	// Code is the authorization code from the platform.
	Code string `json:"code" example:"abc123"`

	// State is the state token returned by the platform.
	State string `json:"state" example:"k3Jx..."`

	// Error is set if the platform reported a failure.
	Error string `json:"error,omitempty" example:"access_denied"`

	// ErrorDescription provides details about the error.
	ErrorDescription string `json:"error_description,omitempty" example:"The user denied access"`
}

// CallbackResponse is returned once the account is linked.
// @Description Response after a successful platform link
type CallbackResponse struct {
	Success  bool            `json:"success" example:"true"`
	Platform domain.Platform `json:"platform" example:"twitch"`
	Handle   string          `json:"handle" example:"streamer"`

	Account *domain.AccountSummary `json:"-"`
}
