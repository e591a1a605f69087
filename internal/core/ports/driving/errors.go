package driving

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// OAuthError is the external representation of a failure.
type OAuthError struct {
	Code        string `json:"error" example:"invalid_state"`
	Description string `json:"error_description" example:"The state parameter is invalid or expired"`
	Status      int    `json:"-"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// External error taxonomy
var (
	ErrOAuthUnsupportedPlatform = &OAuthError{Code: "unsupported_platform", Description: "The platform is not supported", Status: http.StatusNotFound}
	ErrOAuthInvalidState        = &OAuthError{Code: "invalid_state", Description: "The state parameter is invalid or expired", Status: http.StatusBadRequest}
	ErrOAuthDenied              = &OAuthError{Code: "authorization_denied", Description: "The platform did not grant access", Status: http.StatusBadRequest}
	ErrOAuthExchangeFailed      = &OAuthError{Code: "exchange_failed", Description: "Failed to exchange authorization code for tokens", Status: http.StatusBadGateway}
	ErrOAuthReauthorization     = &OAuthError{Code: "reauthorization_required", Description: "The account must be connected again", Status: http.StatusConflict}
	ErrOAuthRefreshInProgress   = &OAuthError{Code: "refresh_in_progress", Description: "A refresh for this account is already running", Status: http.StatusConflict}
	ErrOAuthPlatformAPI         = &OAuthError{Code: "platform_api_error", Description: "The platform is temporarily unavailable", Status: http.StatusBadGateway}
	ErrOAuthNotFound            = &OAuthError{Code: "not_found", Description: "Account not found", Status: http.StatusNotFound}
	ErrOAuthUnauthorized        = &OAuthError{Code: "unauthorized", Description: "Authentication required", Status: http.StatusUnauthorized}
	ErrOAuthInternal            = &OAuthError{Code: "internal_error", Description: "Internal server error", Status: http.StatusInternalServerError}
)

// ToOAuthError maps a domain error to its external representation.
// ErrStateMismatch is deliberately indistinguishable from ErrInvalidState.
func ToOAuthError(err error) *OAuthError {
	var oerr *OAuthError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &oerr):
		return oerr
	case errors.Is(err, domain.ErrUnsupportedPlatform):
		return ErrOAuthUnsupportedPlatform
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrStateMismatch):
		return ErrOAuthInvalidState
	case errors.Is(err, domain.ErrAuthorizationDenied):
		return ErrOAuthDenied
	case errors.Is(err, domain.ErrExchangeFailed):
		return ErrOAuthExchangeFailed
	case errors.Is(err, domain.ErrReauthorizationRequired), errors.Is(err, domain.ErrRefreshFailed):
		return ErrOAuthReauthorization
	case errors.Is(err, domain.ErrRefreshInProgress):
		return ErrOAuthRefreshInProgress
	case errors.Is(err, domain.ErrPlatformAPI):
		return ErrOAuthPlatformAPI
	case errors.Is(err, domain.ErrNotFound):
		return ErrOAuthNotFound
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenInvalid):
		return ErrOAuthUnauthorized
	default:
		return ErrOAuthInternal
	}
}
