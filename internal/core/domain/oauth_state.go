package domain

import "time"

// AuthorizationStateTTL is how long a pending authorization may wait for its callback.
const AuthorizationStateTTL = 10 * time.Minute

// AuthorizationState is the server-side record of a pending authorization.
// It binds the opaque state token to the user and platform that started the flow
// and carries the PKCE verifier needed to redeem the authorization code.
// CodeVerifier is never serialised to clients.
type AuthorizationState struct {
	State        string    `json:"state"`
	UserID       string    `json:"user_id"`
	Platform     Platform  `json:"platform"`
	CodeVerifier string    `json:"code_verifier"`
	RedirectURI  string    `json:"redirect_uri"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpiredAt reports whether the state is no longer usable at now.
// A state expires exactly at ExpiresAt.
func (s *AuthorizationState) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Matches reports whether the state was issued to the given user for the given platform.
func (s *AuthorizationState) Matches(userID string, platform Platform) bool {
	return s.UserID == userID && s.Platform == platform
}
