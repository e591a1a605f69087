// Package memory provides in-process adapters for single-instance deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.StateStore = (*StateStore)(nil)

// StateStore keeps pending authorizations in a mutex-guarded map.
// It only works when every callback reaches the instance that issued the state.
type StateStore struct {
	mu     sync.Mutex
	states map[string]domain.AuthorizationState
	now    func() time.Time
}

// Option configures a StateStore.
type Option func(*StateStore)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *StateStore) {
		s.now = now
	}
}

// NewStateStore creates an empty in-memory state store.
func NewStateStore(opts ...Option) *StateStore {
	s := &StateStore{
		states: make(map[string]domain.AuthorizationState),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a state. A live state with the same token is never overwritten.
func (s *StateStore) Save(ctx context.Context, state *domain.AuthorizationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.states[state.State]; ok && !existing.IsExpiredAt(s.now()) {
		return fmt.Errorf("save authorization state: %w: duplicate state token", domain.ErrInvalidInput)
	}
	s.states[state.State] = *state
	return nil
}

// Consume removes the state and returns it if it has not expired.
// Lookup and delete happen under one lock, so concurrent consumers see a single winner.
func (s *StateStore) Consume(ctx context.Context, state string) (*domain.AuthorizationState, error) {
	s.mu.Lock()
	st, ok := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()

	if !ok || st.IsExpiredAt(s.now()) {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

// SweepExpired drops every expired state.
func (s *StateStore) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, st := range s.states {
		if st.IsExpiredAt(now) {
			delete(s.states, token)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored states, expired or not.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
