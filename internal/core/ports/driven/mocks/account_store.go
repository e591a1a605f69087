package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Ensure MockAccountStore implements AccountStore
var _ driven.AccountStore = (*MockAccountStore)(nil)

// MockAccountStore is an in-memory AccountStore for testing.
// It hands out copies so callers cannot mutate stored rows.
type MockAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.PlatformAccount // key: id
	byKey    map[string]string                  // key: userID:platform -> id

	// Custom behavior hooks (optional)
	UpsertErr       error
	UpdateTokensErr error
	PingErr         error
}

// NewMockAccountStore creates a new MockAccountStore
func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		accounts: make(map[string]*domain.PlatformAccount),
		byKey:    make(map[string]string),
	}
}

func clone(a *domain.PlatformAccount) *domain.PlatformAccount {
	c := *a
	c.AccessTokenCiphertext = append([]byte(nil), a.AccessTokenCiphertext...)
	if a.RefreshTokenCiphertext != nil {
		c.RefreshTokenCiphertext = append([]byte(nil), a.RefreshTokenCiphertext...)
	}
	c.Scopes = append([]string(nil), a.Scopes...)
	return &c
}

func (m *MockAccountStore) Upsert(ctx context.Context, account *domain.PlatformAccount) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	key := account.Key()
	if id, ok := m.byKey[key]; ok {
		existing := m.accounts[id]
		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
	} else {
		if account.ID == "" {
			account.ID = uuid.NewString()
		}
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	m.accounts[account.ID] = clone(account)
	m.byKey[key] = account.ID
	return nil
}

func (m *MockAccountStore) Get(ctx context.Context, userID string, platform domain.Platform) (*domain.PlatformAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[domain.AccountKey(userID, platform)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(m.accounts[id]), nil
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*domain.PlatformAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(account), nil
}

func (m *MockAccountStore) ListByUser(ctx context.Context, userID string) ([]*domain.PlatformAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.PlatformAccount
	for _, account := range m.accounts {
		if account.UserID == userID {
			result = append(result, clone(account))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Platform < result[j].Platform })
	return result, nil
}

func (m *MockAccountStore) ListExpiring(ctx context.Context, before time.Time, limit int) ([]*domain.PlatformAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.PlatformAccount
	for _, account := range m.accounts {
		if account.Status != domain.AccountStatusActive || account.ExpiresAt.IsZero() {
			continue
		}
		if account.ExpiresAt.Before(before) {
			result = append(result, clone(account))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExpiresAt.Before(result[j].ExpiresAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockAccountStore) UpdateTokens(ctx context.Context, account *domain.PlatformAccount) error {
	if m.UpdateTokensErr != nil {
		return m.UpdateTokensErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[account.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.AccessTokenCiphertext = append([]byte(nil), account.AccessTokenCiphertext...)
	existing.RefreshTokenCiphertext = append([]byte(nil), account.RefreshTokenCiphertext...)
	existing.Scopes = append([]string(nil), account.Scopes...)
	existing.ExpiresAt = account.ExpiresAt
	existing.Status = domain.AccountStatusActive
	existing.StatusReason = ""
	existing.UpdatedAt = time.Now()
	account.UpdatedAt = existing.UpdatedAt
	return nil
}

func (m *MockAccountStore) UpdateProfile(ctx context.Context, id string, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Handle = profile.Handle
	existing.PlatformUserID = profile.PlatformUserID
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *MockAccountStore) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Status = status
	existing.StatusReason = reason
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *MockAccountStore) Delete(ctx context.Context, userID string, platform domain.Platform) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := domain.AccountKey(userID, platform)
	id, ok := m.byKey[key]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byKey, key)
	delete(m.accounts, id)
	return nil
}

func (m *MockAccountStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Helper methods for testing

// Put stores an account as-is, bypassing upsert semantics.
func (m *MockAccountStore) Put(account *domain.PlatformAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	m.accounts[account.ID] = clone(account)
	m.byKey[account.Key()] = account.ID
}

func (m *MockAccountStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}

func (m *MockAccountStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = make(map[string]*domain.PlatformAccount)
	m.byKey = make(map[string]string)
}
