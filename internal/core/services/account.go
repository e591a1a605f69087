package services

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
	"github.com/custodia-labs/streamlink/internal/core/ports/driving"
	"github.com/custodia-labs/streamlink/internal/logger"
)

// Ensure accountService implements AccountService
var _ driving.AccountService = (*accountService)(nil)

// accountService implements the AccountService interface
type accountService struct {
	vault     *TokenVault
	refresher *Refresher
	registry  driven.PlatformRegistry
	logger    *slog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(vault *TokenVault, refresher *Refresher, registry driven.PlatformRegistry, l *slog.Logger) driving.AccountService {
	if l == nil {
		l = slog.Default()
	}
	return &accountService{
		vault:     vault,
		refresher: refresher,
		registry:  registry,
		logger:    l,
	}
}

// List returns the user's linked accounts
func (s *accountService) List(ctx context.Context, userID string) ([]*domain.AccountSummary, error) {
	accounts, err := s.vault.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.AccountSummary, len(accounts))
	for i, a := range accounts {
		summaries[i] = a.ToSummary()
	}
	return summaries, nil
}

// Disconnect removes an account the user owns.
// Tokens are not revoked at the platform; the user can do that from the platform's settings.
func (s *accountService) Disconnect(ctx context.Context, userID, accountID string) error {
	account, err := s.vault.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return domain.ErrNotFound
	}

	if err := s.vault.Delete(ctx, account.UserID, account.Platform); err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info("platform account disconnected",
		"user_id", userID,
		"account_id", account.ID,
		"platform", account.Platform,
	)
	return nil
}

// Refresh refreshes the user's account on platform
func (s *accountService) Refresh(ctx context.Context, userID string, platform domain.Platform, force bool) (*domain.AccountSummary, error) {
	if _, err := s.registry.Adapter(platform); err != nil {
		return nil, err
	}

	account, err := s.vault.Get(ctx, userID, platform)
	if err != nil {
		return nil, err
	}

	if force {
		account, err = s.refresher.ForceRefresh(ctx, account)
	} else {
		account, err = s.refresher.RefreshIfNeeded(ctx, account)
	}
	if err != nil {
		return nil, err
	}
	return account.ToSummary(), nil
}

// SyncProfile re-reads the platform profile with a fresh token
func (s *accountService) SyncProfile(ctx context.Context, userID string, platform domain.Platform) (*domain.AccountSummary, error) {
	adapter, err := s.registry.Adapter(platform)
	if err != nil {
		return nil, err
	}

	var profile *domain.Profile
	err = s.refresher.WithFreshToken(ctx, userID, platform, func(ctx context.Context, accessToken string) error {
		p, err := adapter.FetchProfile(ctx, accessToken)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		if isPlatformError(err) {
			return nil, wrapPlatformAPI(err)
		}
		return nil, err
	}

	account, err := s.vault.Get(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	account, err = s.vault.UpdateProfile(ctx, account, profile)
	if err != nil {
		return nil, err
	}
	return account.ToSummary(), nil
}
