package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

// tokenAAD binds a ciphertext to its account and column, so a blob copied
// into another row, or into the other token column, fails to decrypt.
func tokenAAD(userID string, platform domain.Platform, kind string) []byte {
	return []byte(userID + "\x00" + string(platform) + "\x00" + kind)
}

// TokenVault is the only component that sees plaintext platform tokens.
// Everything it hands to the store is encrypted with a fresh nonce.
type TokenVault struct {
	store  driven.AccountStore
	cipher driven.TokenCipher
	now    func() time.Time
}

// NewTokenVault creates a TokenVault.
func NewTokenVault(store driven.AccountStore, cipher driven.TokenCipher) *TokenVault {
	return &TokenVault{
		store:  store,
		cipher: cipher,
		now:    time.Now,
	}
}

// Upsert stores the tokens and profile for (userID, platform), replacing any previous link.
// When the platform issued no refresh token, a refresh token already on file is kept.
func (v *TokenVault) Upsert(ctx context.Context, userID string, platform domain.Platform, result *domain.TokenResult, profile *domain.Profile) (*domain.PlatformAccount, error) {
	if result == nil || result.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", domain.ErrInvalidInput)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile is required", domain.ErrInvalidInput)
	}

	account := &domain.PlatformAccount{
		UserID:         userID,
		Platform:       platform,
		Handle:         profile.Handle,
		PlatformUserID: profile.PlatformUserID,
		Scopes:         result.Scopes,
		Status:         domain.AccountStatusActive,
	}

	if result.RefreshToken == "" {
		existing, err := v.store.Get(ctx, userID, platform)
		switch {
		case err == nil:
			account.RefreshTokenCiphertext = existing.RefreshTokenCiphertext
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("load existing account: %w", err)
		}
	}

	if err := v.seal(account, result); err != nil {
		return nil, err
	}

	if err := v.store.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}
	return account, nil
}

// Get returns the account linked by userID on platform.
func (v *TokenVault) Get(ctx context.Context, userID string, platform domain.Platform) (*domain.PlatformAccount, error) {
	return v.store.Get(ctx, userID, platform)
}

// GetByID returns an account by its ID.
func (v *TokenVault) GetByID(ctx context.Context, id string) (*domain.PlatformAccount, error) {
	return v.store.GetByID(ctx, id)
}

// List returns every account userID has linked.
func (v *TokenVault) List(ctx context.Context, userID string) ([]*domain.PlatformAccount, error) {
	return v.store.ListByUser(ctx, userID)
}

// ListExpiring returns active accounts whose access token expires before the given time.
func (v *TokenVault) ListExpiring(ctx context.Context, before time.Time, limit int) ([]*domain.PlatformAccount, error) {
	return v.store.ListExpiring(ctx, before, limit)
}

// DecryptTokens returns the plaintext tokens of an account.
func (v *TokenVault) DecryptTokens(account *domain.PlatformAccount) (*domain.Tokens, error) {
	access, err := v.cipher.DecryptString(account.AccessTokenCiphertext, tokenAAD(account.UserID, account.Platform, tokenKindAccess))
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}

	tokens := &domain.Tokens{AccessToken: access}
	if len(account.RefreshTokenCiphertext) > 0 {
		refresh, err := v.cipher.DecryptString(account.RefreshTokenCiphertext, tokenAAD(account.UserID, account.Platform, tokenKindRefresh))
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
		tokens.RefreshToken = refresh
	}
	return tokens, nil
}

// UpdateTokens stores the outcome of a refresh and returns the updated account.
// A refresh token in result replaces the stored one; otherwise the stored one is kept.
// Scopes are only replaced when the platform reported them.
func (v *TokenVault) UpdateTokens(ctx context.Context, account *domain.PlatformAccount, result *domain.TokenResult) (*domain.PlatformAccount, error) {
	if result == nil || result.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", domain.ErrInvalidInput)
	}

	updated := *account
	if len(result.Scopes) > 0 {
		updated.Scopes = result.Scopes
	}
	if err := v.seal(&updated, result); err != nil {
		return nil, err
	}

	if err := v.store.UpdateTokens(ctx, &updated); err != nil {
		return nil, fmt.Errorf("store refreshed tokens: %w", err)
	}
	updated.Status = domain.AccountStatusActive
	updated.StatusReason = ""
	return &updated, nil
}

// UpdateProfile replaces the stored handle and platform user ID.
func (v *TokenVault) UpdateProfile(ctx context.Context, account *domain.PlatformAccount, profile *domain.Profile) (*domain.PlatformAccount, error) {
	if err := v.store.UpdateProfile(ctx, account.ID, profile); err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}
	updated := *account
	updated.Handle = profile.Handle
	updated.PlatformUserID = profile.PlatformUserID
	updated.UpdatedAt = v.now()
	return &updated, nil
}

// MarkReauthorizationRequired flags the account so no further refresh is attempted.
func (v *TokenVault) MarkReauthorizationRequired(ctx context.Context, account *domain.PlatformAccount, reason string) error {
	if err := v.store.UpdateStatus(ctx, account.ID, domain.AccountStatusReauthorizationRequired, reason); err != nil {
		return fmt.Errorf("mark account for reauthorization: %w", err)
	}
	account.Status = domain.AccountStatusReauthorizationRequired
	account.StatusReason = reason
	return nil
}

// Delete removes the link between userID and platform.
func (v *TokenVault) Delete(ctx context.Context, userID string, platform domain.Platform) error {
	return v.store.Delete(ctx, userID, platform)
}

// seal encrypts result into account and sets the expiry.
// RefreshTokenCiphertext is only overwritten when result carries a refresh token.
func (v *TokenVault) seal(account *domain.PlatformAccount, result *domain.TokenResult) error {
	access, err := v.cipher.EncryptString(result.AccessToken, tokenAAD(account.UserID, account.Platform, tokenKindAccess))
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	account.AccessTokenCiphertext = access

	if result.RefreshToken != "" {
		refresh, err := v.cipher.EncryptString(result.RefreshToken, tokenAAD(account.UserID, account.Platform, tokenKindRefresh))
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		account.RefreshTokenCiphertext = refresh
	}

	account.ExpiresAt = time.Time{}
	if result.ExpiresIn > 0 {
		account.ExpiresAt = v.now().Add(result.ExpiresIn)
	}
	return nil
}
