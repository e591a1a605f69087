package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore implements driven.StateStore on an UNLOGGED PostgreSQL table.
type StateStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewStateStore creates a new PostgreSQL-backed state store.
func NewStateStore(db *sql.DB) *StateStore {
	return &StateStore{db: db, now: time.Now}
}

// Save stores a new authorization state.
func (s *StateStore) Save(ctx context.Context, state *domain.AuthorizationState) error {
	query := `
		INSERT INTO authorization_states (state, user_id, platform, code_verifier, redirect_uri, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		state.State,
		state.UserID,
		state.Platform,
		state.CodeVerifier,
		state.RedirectURI,
		state.CreatedAt,
		state.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save authorization state: %w", err)
	}

	return nil
}

// Consume atomically deletes the state and returns it.
// DELETE ... RETURNING guarantees a single winner; an expired row is removed too.
func (s *StateStore) Consume(ctx context.Context, state string) (*domain.AuthorizationState, error) {
	query := `
		DELETE FROM authorization_states
		WHERE state = $1
		RETURNING state, user_id, platform, code_verifier, redirect_uri, created_at, expires_at
	`

	var st domain.AuthorizationState
	err := s.db.QueryRowContext(ctx, query, state).Scan(
		&st.State,
		&st.UserID,
		&st.Platform,
		&st.CodeVerifier,
		&st.RedirectURI,
		&st.CreatedAt,
		&st.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume authorization state: %w", err)
	}

	if st.IsExpiredAt(s.now()) {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

// SweepExpired removes expired states.
func (s *StateStore) SweepExpired(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM authorization_states WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep authorization states: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep authorization states: %w", err)
	}
	return int(n), nil
}
