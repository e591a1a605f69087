package driving

import (
	"context"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// AccountService manages a user's linked platform accounts.
type AccountService interface {
	// List returns every account the user has linked.
	List(ctx context.Context, userID string) ([]*domain.AccountSummary, error)

	// Disconnect removes an account owned by the user.
	// Accounts owned by other users are reported as domain.ErrNotFound.
	Disconnect(ctx context.Context, userID, accountID string) error

	// Refresh refreshes the account's access token if it is due, or always when force is set.
	Refresh(ctx context.Context, userID string, platform domain.Platform, force bool) (*domain.AccountSummary, error)

	// SyncProfile re-reads the platform profile with a fresh token and updates the stored handle.
	SyncProfile(ctx context.Context, userID string, platform domain.Platform) (*domain.AccountSummary, error)
}
