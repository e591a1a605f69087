package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AccountStore = (*AccountStore)(nil)

const accountColumns = `id, user_id, platform, handle, platform_user_id,
	access_token_ciphertext, refresh_token_ciphertext, scopes, expires_at,
	status, status_reason, created_at, updated_at`

// AccountStore implements driven.AccountStore using PostgreSQL.
// Token columns hold ciphertext produced by the token vault.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates a new AccountStore
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

// Upsert inserts or replaces the account for (user_id, platform).
func (s *AccountStore) Upsert(ctx context.Context, account *domain.PlatformAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Status == "" {
		account.Status = domain.AccountStatusActive
	}
	now := time.Now()

	query := `
		INSERT INTO platform_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			handle = EXCLUDED.handle,
			platform_user_id = EXCLUDED.platform_user_id,
			access_token_ciphertext = EXCLUDED.access_token_ciphertext,
			refresh_token_ciphertext = EXCLUDED.refresh_token_ciphertext,
			scopes = EXCLUDED.scopes,
			expires_at = EXCLUDED.expires_at,
			status = EXCLUDED.status,
			status_reason = EXCLUDED.status_reason,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		account.ID,
		account.UserID,
		account.Platform,
		account.Handle,
		account.PlatformUserID,
		account.AccessTokenCiphertext,
		account.RefreshTokenCiphertext,
		pq.Array(account.Scopes),
		nullTime(account.ExpiresAt),
		account.Status,
		nullString(account.StatusReason),
		now,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert platform account: %w", err)
	}

	return nil
}

// Get retrieves the account for a user and platform.
func (s *AccountStore) Get(ctx context.Context, userID string, platform domain.Platform) (*domain.PlatformAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM platform_accounts WHERE user_id = $1 AND platform = $2`
	return s.getOne(ctx, query, userID, platform)
}

// GetByID retrieves an account by ID.
func (s *AccountStore) GetByID(ctx context.Context, id string) (*domain.PlatformAccount, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM platform_accounts WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// ListByUser returns every account linked by a user.
func (s *AccountStore) ListByUser(ctx context.Context, userID string) ([]*domain.PlatformAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM platform_accounts WHERE user_id = $1 ORDER BY platform`
	return s.list(ctx, query, userID)
}

// ListExpiring returns active accounts whose access token expires before the given time,
// soonest first.
func (s *AccountStore) ListExpiring(ctx context.Context, before time.Time, limit int) ([]*domain.PlatformAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM platform_accounts
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2
		ORDER BY expires_at
		LIMIT $3
	`
	return s.list(ctx, query, domain.AccountStatusActive, before, limit)
}

// UpdateTokens replaces token ciphertexts, scopes and expiry and marks the account active.
func (s *AccountStore) UpdateTokens(ctx context.Context, account *domain.PlatformAccount) error {
	query := `
		UPDATE platform_accounts SET
			access_token_ciphertext = $2,
			refresh_token_ciphertext = $3,
			scopes = $4,
			expires_at = $5,
			status = $6,
			status_reason = NULL,
			updated_at = $7
		WHERE id = $1
	`

	now := time.Now()
	result, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.AccessTokenCiphertext,
		account.RefreshTokenCiphertext,
		pq.Array(account.Scopes),
		nullTime(account.ExpiresAt),
		domain.AccountStatusActive,
		now,
	)
	if err != nil {
		return fmt.Errorf("update account tokens: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	account.Status = domain.AccountStatusActive
	account.StatusReason = ""
	account.UpdatedAt = now
	return nil
}

// UpdateProfile replaces the handle and platform user ID.
func (s *AccountStore) UpdateProfile(ctx context.Context, id string, profile *domain.Profile) error {
	query := `UPDATE platform_accounts SET handle = $2, platform_user_id = $3, updated_at = NOW() WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, profile.Handle, profile.PlatformUserID)
	if err != nil {
		return fmt.Errorf("update account profile: %w", err)
	}
	return expectOneRow(result)
}

// UpdateStatus sets the account status and reason.
func (s *AccountStore) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, reason string) error {
	query := `UPDATE platform_accounts SET status = $2, status_reason = $3, updated_at = NOW() WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, status, nullString(reason))
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	return expectOneRow(result)
}

// Delete removes the account for a user and platform.
func (s *AccountStore) Delete(ctx context.Context, userID string, platform domain.Platform) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM platform_accounts WHERE user_id = $1 AND platform = $2`, userID, platform)
	if err != nil {
		return fmt.Errorf("delete platform account: %w", err)
	}
	return expectOneRow(result)
}

// Ping checks if the database is reachable
func (s *AccountStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *AccountStore) getOne(ctx context.Context, query string, args ...any) (*domain.PlatformAccount, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get platform account: %w", err)
	}
	return account, nil
}

func (s *AccountStore) list(ctx context.Context, query string, args ...any) ([]*domain.PlatformAccount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list platform accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.PlatformAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan platform account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platform accounts: %w", err)
	}
	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.PlatformAccount, error) {
	var (
		account      domain.PlatformAccount
		expiresAt    sql.NullTime
		statusReason sql.NullString
	)

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Platform,
		&account.Handle,
		&account.PlatformUserID,
		&account.AccessTokenCiphertext,
		&account.RefreshTokenCiphertext,
		pq.Array(&account.Scopes),
		&expiresAt,
		&account.Status,
		&statusReason,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		account.ExpiresAt = expiresAt.Time
	}
	account.StatusReason = statusReason.String
	return &account, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
