package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
	"github.com/custodia-labs/streamlink/internal/core/ports/driving"
	"github.com/custodia-labs/streamlink/internal/logger"
	"github.com/custodia-labs/streamlink/internal/metrics"
)

// Ensure oauthService implements OAuthService
var _ driving.OAuthService = (*oauthService)(nil)

// OAuthServiceConfig holds configuration for the OAuth service.
type OAuthServiceConfig struct {
	// Registry resolves platform adapters.
	Registry driven.PlatformRegistry

	// States issues and redeems authorization states.
	States *StateService

	// Vault stores the resulting tokens.
	Vault *TokenVault

	// Refresher serialises the upsert with refreshes of the same account.
	// Optional; without it the upsert takes no lock.
	Refresher *Refresher

	// BaseURL is the public base URL used to build callback URLs.
	// Example: "https://api.example.com"
	BaseURL string

	Logger *slog.Logger
}

// oauthService implements the OAuthService interface.
type oauthService struct {
	registry  driven.PlatformRegistry
	states    *StateService
	vault     *TokenVault
	refresher *Refresher
	baseURL   string
	logger    *slog.Logger
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(cfg OAuthServiceConfig) driving.OAuthService {
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	return &oauthService{
		registry:  cfg.Registry,
		states:    cfg.States,
		vault:     cfg.Vault,
		refresher: cfg.Refresher,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:    l,
	}
}

// Initiate starts an authorization flow.
// It generates PKCE credentials, stores state, and returns the platform consent URL.
func (s *oauthService) Initiate(ctx context.Context, userID string, platform domain.Platform) (*driving.InitiateResponse, error) {
	adapter, err := s.registry.Adapter(platform)
	if err != nil {
		return nil, err
	}

	state, err := s.states.Create(ctx, userID, platform, s.callbackURL(platform))
	if err != nil {
		return nil, err
	}

	authURL := adapter.BuildAuthorizeURL(state.State, ChallengeFor(state.CodeVerifier), state.RedirectURI)

	metrics.OAuthInitiations.WithLabelValues(string(platform)).Inc()
	logger.FromContext(ctx, s.logger).Debug("authorization initiated",
		"user_id", userID,
		"platform", platform,
		"expires_at", state.ExpiresAt,
	)

	return &driving.InitiateResponse{
		AuthURL:   authURL,
		State:     state.State,
		ExpiresAt: state.ExpiresAt,
	}, nil
}

// HandleCallback completes an authorization flow.
// The state is consumed first, whatever else is wrong with the request,
// so a callback can never be replayed.
func (s *oauthService) HandleCallback(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx, s.logger).With("platform", req.Platform)

	resp, outcome, err := s.handleCallback(ctx, log, req)
	metrics.OAuthCallbacks.WithLabelValues(string(req.Platform), outcome).Inc()
	return resp, err
}

func (s *oauthService) handleCallback(ctx context.Context, log *slog.Logger, req driving.CallbackRequest) (*driving.CallbackResponse, string, error) {
	state, err := s.states.Consume(ctx, req.State)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			log.Info("callback with unknown or expired state", "user_id", req.UserID)
			return nil, metrics.OutcomeInvalid, err
		}
		return nil, metrics.OutcomeError, err
	}

	if !state.Matches(req.UserID, req.Platform) {
		log.Warn("authorization state presented by a different identity",
			"state_user_id", state.UserID,
			"state_platform", state.Platform,
			"request_user_id", req.UserID,
			"request_platform", req.Platform,
		)
		return nil, metrics.OutcomeInvalid, domain.ErrStateMismatch
	}

	if req.Error != "" {
		log.Info("platform reported authorization failure",
			"user_id", req.UserID,
			"error", req.Error,
			"error_description", req.ErrorDescription,
		)
		return nil, metrics.OutcomeDenied, fmt.Errorf("%w: %s", domain.ErrAuthorizationDenied, req.Error)
	}

	adapter, err := s.registry.Adapter(req.Platform)
	if err != nil {
		return nil, metrics.OutcomeError, err
	}

	if req.Code == "" {
		return nil, metrics.OutcomeExchange, fmt.Errorf("%w: missing authorization code", domain.ErrExchangeFailed)
	}

	tokens, err := adapter.ExchangeCode(ctx, req.Code, state.CodeVerifier, state.RedirectURI)
	if err != nil {
		log.Warn("code exchange failed", "user_id", req.UserID, "error", err)
		return nil, metrics.OutcomeExchange, fmt.Errorf("%w: %w", domain.ErrExchangeFailed, err)
	}

	profile, err := adapter.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		log.Warn("profile lookup failed after exchange", "user_id", req.UserID, "error", err)
		return nil, metrics.OutcomeProfile, fmt.Errorf("%w: %w", domain.ErrPlatformAPI, err)
	}

	account, err := s.store(ctx, req.UserID, req.Platform, tokens, profile)
	if err != nil {
		return nil, metrics.OutcomeError, err
	}

	log.Info("platform account linked",
		"user_id", req.UserID,
		"account_id", account.ID,
		"handle", account.Handle,
		"tokens", tokens,
	)

	return &driving.CallbackResponse{
		Success:  true,
		Platform: account.Platform,
		Handle:   account.Handle,
		Account:  account.ToSummary(),
	}, metrics.OutcomeSuccess, nil
}

// callbackURL returns the redirect URI registered with each platform.
func (s *oauthService) callbackURL(platform domain.Platform) string {
	return s.baseURL + "/platforms/" + string(platform) + "/oauth/callback"
}

// store upserts the account under its refresh lock, so a refresh that started
// before the re-link cannot overwrite the new tokens with its own result.
func (s *oauthService) store(ctx context.Context, userID string, platform domain.Platform, tokens *domain.TokenResult, profile *domain.Profile) (*domain.PlatformAccount, error) {
	if s.refresher == nil {
		return s.vault.Upsert(ctx, userID, platform, tokens, profile)
	}

	var account *domain.PlatformAccount
	err := s.refresher.WithAccountLock(ctx, userID, platform, func(ctx context.Context) error {
		var err error
		account, err = s.vault.Upsert(ctx, userID, platform, tokens, profile)
		return err
	})
	return account, err
}
