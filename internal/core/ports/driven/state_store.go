package driven

import (
	"context"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// StateStore persists pending authorization states.
// States are short-lived and must not be written to durable backups.
type StateStore interface {
	// Save stores a state until its ExpiresAt.
	Save(ctx context.Context, state *domain.AuthorizationState) error

	// Consume atomically retrieves and removes a state.
	// Of any number of concurrent calls with the same token at most one succeeds.
	// Returns domain.ErrNotFound if the state is absent, expired or already consumed.
	Consume(ctx context.Context, state string) (*domain.AuthorizationState, error)

	// SweepExpired removes expired states and returns how many were removed.
	SweepExpired(ctx context.Context) (int, error)
}
