package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the bearer token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the bearer token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrUnsupportedPlatform indicates the platform is unknown or not configured
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrInvalidState indicates the state token is absent, expired or already used
	ErrInvalidState = errors.New("invalid state")

	// ErrStateMismatch indicates the state belongs to another user or platform.
	// Reported to clients exactly like ErrInvalidState.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrAuthorizationDenied indicates the platform redirected back with an error
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrExchangeFailed indicates the platform rejected the authorization code
	ErrExchangeFailed = errors.New("code exchange failed")

	// ErrRefreshFailed indicates the platform rejected a refresh
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrReauthorizationRequired indicates the account must be linked again
	ErrReauthorizationRequired = errors.New("reauthorization required")

	// ErrRefreshInProgress indicates another holder kept the refresh lock too long
	ErrRefreshInProgress = errors.New("refresh in progress")

	// ErrPlatformAPI indicates a transient platform failure (5xx, network, timeout)
	ErrPlatformAPI = errors.New("platform api error")
)

// PlatformError describes a failed call to a platform endpoint.
// It never carries token values or raw response bodies.
type PlatformError struct {
	Platform   Platform
	Op         string
	StatusCode int
	// Code is the OAuth error code from the response body, if any.
	Code string
	// Transient is set for server errors, rate limiting and failures that
	// never produced a response.
	Transient bool
	Err       error
}

func (e *PlatformError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Platform, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Code != "" {
		msg += fmt.Sprintf(": %s", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure is worth retrying.
func (e *PlatformError) Temporary() bool {
	return e.Transient
}

// IsTemporary reports whether err wraps a temporary PlatformError.
func IsTemporary(err error) bool {
	var perr *PlatformError
	if errors.As(err, &perr) {
		return perr.Temporary()
	}
	return false
}
