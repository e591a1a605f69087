package domain

import (
	"log/slog"
	"time"
)

// TokenResult is what a platform returns from a code exchange or refresh.
// RefreshToken is empty when the platform did not issue one.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	Scopes       []string
}

// LogValue keeps token material out of structured logs.
func (r *TokenResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token_type", r.TokenType),
		slog.Duration("expires_in", r.ExpiresIn),
		slog.Bool("has_refresh_token", r.RefreshToken != ""),
		slog.Any("scopes", r.Scopes),
	)
}

// Tokens holds decrypted credentials for a linked account.
// They exist only in memory and are never logged or serialised.
type Tokens struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// String redacts the token values.
func (t Tokens) String() string {
	return "[REDACTED]"
}

// LogValue redacts the token values.
func (t Tokens) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

// HasRefreshToken reports whether a refresh token is on file.
func (t Tokens) HasRefreshToken() bool {
	return t.RefreshToken != ""
}
