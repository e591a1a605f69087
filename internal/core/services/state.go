package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
	"github.com/custodia-labs/streamlink/internal/metrics"
)

// StateService issues and redeems single-use authorization states.
// It owns token generation and the TTL; the store only has to be atomic.
type StateService struct {
	store driven.StateStore
	ttl   time.Duration
	now   func() time.Time
}

// NewStateService creates a StateService over store.
func NewStateService(store driven.StateStore) *StateService {
	return &StateService{
		store: store,
		ttl:   domain.AuthorizationStateTTL,
		now:   time.Now,
	}
}

// Create records a pending authorization for userID on platform and returns it.
// The returned state carries the code verifier that the callback will need.
func (s *StateService) Create(ctx context.Context, userID string, platform domain.Platform, redirectURI string) (*domain.AuthorizationState, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	token, err := generateStateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	state := &domain.AuthorizationState{
		State:        token,
		UserID:       userID,
		Platform:     platform,
		CodeVerifier: GenerateVerifier(),
		RedirectURI:  redirectURI,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save authorization state: %w", err)
	}
	return state, nil
}

// Consume redeems a state token exactly once.
// Absent, expired and already used tokens all yield domain.ErrInvalidState.
func (s *StateService) Consume(ctx context.Context, token string) (*domain.AuthorizationState, error) {
	if token == "" {
		return nil, domain.ErrInvalidState
	}

	state, err := s.store.Consume(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("consume authorization state: %w", err)
	}

	if state.IsExpiredAt(s.now()) {
		return nil, domain.ErrInvalidState
	}
	return state, nil
}

// SweepExpired removes expired states from the store.
func (s *StateService) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.store.SweepExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep authorization states: %w", err)
	}
	metrics.StatesSwept.Add(float64(n))
	return n, nil
}
