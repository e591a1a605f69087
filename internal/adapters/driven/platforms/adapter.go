// Package platforms implements the OAuth2 platform adapters on golang.org/x/oauth2.
package platforms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PlatformAdapter = (*Adapter)(nil)

const (
	// DefaultTimeout bounds every outbound platform request.
	DefaultTimeout = 10 * time.Second

	// DefaultRetryWait is the pause before the single retry of a transient failure.
	DefaultRetryWait = 250 * time.Millisecond

	// maxProfileBody caps how much of a profile response is read.
	maxProfileBody = 1 << 20
)

// Adapter implements driven.PlatformAdapter for one platform Definition.
type Adapter struct {
	def        Definition
	creds      Credentials
	config     oauth2.Config
	httpClient *http.Client
	retryWait  time.Duration
	logger     *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the HTTP client used for token and profile requests.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.httpClient = &http.Client{Timeout: d}
	}
}

// WithRetryWait sets the pause before retrying a transient failure.
func WithRetryWait(d time.Duration) Option {
	return func(a *Adapter) {
		a.retryWait = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithEndpoints overrides the definition's endpoints. Empty fields keep the default.
func WithEndpoints(e Endpoints) Option {
	return func(a *Adapter) {
		if e.AuthURL != "" {
			a.def.Endpoints.AuthURL = e.AuthURL
		}
		if e.TokenURL != "" {
			a.def.Endpoints.TokenURL = e.TokenURL
		}
		if e.ProfileURL != "" {
			a.def.Endpoints.ProfileURL = e.ProfileURL
		}
	}
}

// New creates an adapter for the given definition and credentials.
func New(def Definition, creds Credentials, opts ...Option) *Adapter {
	a := &Adapter{
		def:        def,
		creds:      creds,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retryWait:  DefaultRetryWait,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.config = oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.def.Endpoints.AuthURL,
			TokenURL:  a.def.Endpoints.TokenURL,
			AuthStyle: a.def.AuthStyle,
		},
		Scopes: a.def.Scopes,
	}
	a.logger = a.logger.With("platform", string(def.Platform))
	return a
}

// Platform returns the identifier this adapter serves.
func (a *Adapter) Platform() domain.Platform {
	return a.def.Platform
}

// BuildAuthorizeURL returns the consent URL with state and S256 challenge.
func (a *Adapter) BuildAuthorizeURL(state, codeChallenge, redirectURI string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	for k, v := range a.def.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return a.configFor(redirectURI).AuthCodeURL(state, opts...)
}

// ExchangeCode redeems an authorization code with its PKCE verifier.
// Never retried: a code is single-use and a replay would only be rejected.
func (a *Adapter) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.TokenResult, error) {
	cfg := a.configFor(redirectURI)
	tok, err := cfg.Exchange(a.clientContext(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, a.classify("exchange_code", err)
	}
	return a.tokenResult(tok), nil
}

// RefreshToken exchanges a refresh token for a new access token.
// The result's RefreshToken is empty unless the platform issued a different one.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResult, error) {
	var result *domain.TokenResult
	err := a.withRetry(ctx, "refresh_token", func() error {
		src := a.config.TokenSource(a.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
		tok, err := src.Token()
		if err != nil {
			return a.classify("refresh_token", err)
		}
		result = a.tokenResult(tok)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.RefreshToken == refreshToken {
		result.RefreshToken = ""
	}
	return result, nil
}

// FetchProfile returns the identity behind an access token.
func (a *Adapter) FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := a.withRetry(ctx, "fetch_profile", func() error {
		p, err := a.fetchProfile(ctx, accessToken)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (a *Adapter) fetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.def.Endpoints.ProfileURL, nil)
	if err != nil {
		return nil, a.platformError("fetch_profile", 0, fmt.Errorf("create request: %w", err), false)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if a.def.ProfileHeaders != nil {
		a.def.ProfileHeaders(req.Header, a.creds)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, a.classify("fetch_profile", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, a.platformError("fetch_profile", resp.StatusCode, nil, transientStatus(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, a.classify("fetch_profile", err)
	}

	profile, err := a.def.DecodeProfile(body)
	if err != nil {
		return nil, a.platformError("fetch_profile", resp.StatusCode, err, false)
	}
	return profile, nil
}

// configFor returns a copy of the OAuth config bound to redirectURI.
func (a *Adapter) configFor(redirectURI string) *oauth2.Config {
	cfg := a.config
	cfg.RedirectURL = redirectURI
	return &cfg
}

// clientContext makes x/oauth2 use the adapter's bounded HTTP client.
func (a *Adapter) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

func (a *Adapter) tokenResult(tok *oauth2.Token) *domain.TokenResult {
	result := &domain.TokenResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scopes:       parseScopes(tok.Extra("scope")),
	}
	if !tok.Expiry.IsZero() {
		if d := time.Until(tok.Expiry).Round(time.Second); d > 0 {
			result.ExpiresIn = d
		}
	}
	return result
}

// parseScopes accepts both the RFC 6749 space-delimited string and a JSON array.
func parseScopes(raw any) []string {
	switch v := raw.(type) {
	case string:
		return strings.Fields(strings.ReplaceAll(v, ",", " "))
	case []any:
		scopes := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok && str != "" {
				scopes = append(scopes, str)
			}
		}
		return scopes
	case []string:
		return v
	default:
		return nil
	}
}
