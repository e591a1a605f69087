package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// AccountStore persists linked platform accounts.
// Token fields are stored as ciphertext; the store never sees plaintext.
type AccountStore interface {
	// Upsert inserts or replaces the account for (UserID, Platform).
	// An existing row keeps its ID and CreatedAt; the stored values are written back to account.
	Upsert(ctx context.Context, account *domain.PlatformAccount) error

	// Get retrieves the account for a user and platform.
	Get(ctx context.Context, userID string, platform domain.Platform) (*domain.PlatformAccount, error)

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id string) (*domain.PlatformAccount, error)

	// ListByUser returns every account linked by a user.
	ListByUser(ctx context.Context, userID string) ([]*domain.PlatformAccount, error)

	// ListExpiring returns active accounts whose access token expires before the given time.
	ListExpiring(ctx context.Context, before time.Time, limit int) ([]*domain.PlatformAccount, error)

	// UpdateTokens replaces token ciphertexts, scopes and expiry and resets the status to active.
	UpdateTokens(ctx context.Context, account *domain.PlatformAccount) error

	// UpdateProfile replaces the handle and platform user ID.
	UpdateProfile(ctx context.Context, id string, profile *domain.Profile) error

	// UpdateStatus sets the account status and reason.
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, reason string) error

	// Delete removes the account for a user and platform.
	Delete(ctx context.Context, userID string, platform domain.Platform) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
