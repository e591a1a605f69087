package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.StateStore = (*StateStore)(nil)

const statePrefix = "streamlink:oauth_state:"

// StateStore implements driven.StateStore using Redis.
// Keys carry a TTL matching the state expiry, so Redis evicts abandoned states itself.
type StateStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewStateStore creates a new Redis-backed StateStore
func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client, now: time.Now}
}

// Save stores a state with TTL based on ExpiresAt.
// SET NX refuses to overwrite a live state with the same token.
func (s *StateStore) Save(ctx context.Context, state *domain.AuthorizationState) error {
	ttl := state.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("save authorization state: %w: already expired", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization state: %w", err)
	}

	ok, err := s.client.SetNX(ctx, statePrefix+state.State, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("save authorization state: %w", err)
	}
	if !ok {
		return fmt.Errorf("save authorization state: %w: duplicate state token", domain.ErrInvalidInput)
	}
	return nil
}

// Consume atomically reads and deletes the state with GETDEL.
func (s *StateStore) Consume(ctx context.Context, state string) (*domain.AuthorizationState, error) {
	data, err := s.client.GetDel(ctx, statePrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume authorization state: %w", err)
	}

	var st domain.AuthorizationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization state: %w", err)
	}

	if st.IsExpiredAt(s.now()) {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

// SweepExpired is a no-op: Redis expires state keys on its own.
func (s *StateStore) SweepExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Ping checks if Redis is reachable.
func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
