package mocks

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Ensure mocks implement the platform ports
var (
	_ driven.PlatformAdapter  = (*MockPlatformAdapter)(nil)
	_ driven.PlatformRegistry = (*MockPlatformRegistry)(nil)
)

// MockPlatformAdapter is a PlatformAdapter with overridable behavior and call counters.
type MockPlatformAdapter struct {
	PlatformID domain.Platform

	ExchangeFn func(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.TokenResult, error)
	RefreshFn  func(ctx context.Context, refreshToken string) (*domain.TokenResult, error)
	ProfileFn  func(ctx context.Context, accessToken string) (*domain.Profile, error)

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
	profileCalls  atomic.Int32

	mu            sync.Mutex
	lastVerifier  string
	refreshTokens []string
}

// NewMockPlatformAdapter creates an adapter that succeeds with deterministic tokens.
func NewMockPlatformAdapter(platform domain.Platform) *MockPlatformAdapter {
	return &MockPlatformAdapter{PlatformID: platform}
}

func (m *MockPlatformAdapter) Platform() domain.Platform {
	return m.PlatformID
}

func (m *MockPlatformAdapter) BuildAuthorizeURL(state, codeChallenge, redirectURI string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", "mock-client")
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "S256")
	return fmt.Sprintf("https://%s.example.com/authorize?%s", m.PlatformID, q.Encode())
}

func (m *MockPlatformAdapter) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.TokenResult, error) {
	m.exchangeCalls.Add(1)
	m.mu.Lock()
	m.lastVerifier = codeVerifier
	m.mu.Unlock()

	if m.ExchangeFn != nil {
		return m.ExchangeFn(ctx, code, codeVerifier, redirectURI)
	}
	return &domain.TokenResult{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		TokenType:    "bearer",
		ExpiresIn:    time.Hour,
	}, nil
}

func (m *MockPlatformAdapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResult, error) {
	n := m.refreshCalls.Add(1)
	m.mu.Lock()
	m.refreshTokens = append(m.refreshTokens, refreshToken)
	m.mu.Unlock()

	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return &domain.TokenResult{
		AccessToken: fmt.Sprintf("refreshed-access-%d", n),
		TokenType:   "bearer",
		ExpiresIn:   time.Hour,
	}, nil
}

func (m *MockPlatformAdapter) FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error) {
	m.profileCalls.Add(1)
	if m.ProfileFn != nil {
		return m.ProfileFn(ctx, accessToken)
	}
	return &domain.Profile{PlatformUserID: "pid-1", Handle: "mock_streamer"}, nil
}

// Helper methods for testing

func (m *MockPlatformAdapter) ExchangeCalls() int { return int(m.exchangeCalls.Load()) }
func (m *MockPlatformAdapter) RefreshCalls() int  { return int(m.refreshCalls.Load()) }
func (m *MockPlatformAdapter) ProfileCalls() int  { return int(m.profileCalls.Load()) }

// LastVerifier returns the code verifier passed to the most recent exchange.
func (m *MockPlatformAdapter) LastVerifier() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastVerifier
}

// RefreshTokensSeen returns every refresh token presented, in order.
func (m *MockPlatformAdapter) RefreshTokensSeen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.refreshTokens...)
}

// MockPlatformRegistry resolves mock adapters.
type MockPlatformRegistry struct {
	adapters map[domain.Platform]driven.PlatformAdapter
	order    []domain.Platform
}

// NewMockPlatformRegistry creates a registry containing the given adapters.
func NewMockPlatformRegistry(adapters ...driven.PlatformAdapter) *MockPlatformRegistry {
	r := &MockPlatformRegistry{adapters: make(map[domain.Platform]driven.PlatformAdapter)}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
		r.order = append(r.order, a.Platform())
	}
	return r
}

func (r *MockPlatformRegistry) Adapter(platform domain.Platform) (driven.PlatformAdapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, platform)
	}
	return a, nil
}

func (r *MockPlatformRegistry) Platforms() []domain.Platform {
	return append([]domain.Platform(nil), r.order...)
}
