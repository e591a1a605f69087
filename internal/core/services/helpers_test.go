package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/custodia-labs/streamlink/internal/adapters/driven/crypto"
	"github.com/custodia-labs/streamlink/internal/adapters/driven/memory"
	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/streamlink/internal/core/ports/driving"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv wires every service against in-memory adapters.
type testEnv struct {
	store     *mocks.MockAccountStore
	states    *memory.StateStore
	twitch    *mocks.MockPlatformAdapter
	kick      *mocks.MockPlatformAdapter
	registry  *mocks.MockPlatformRegistry
	lock      *mocks.MockDistributedLock
	cipher    *crypto.SecretEncryptor
	vault     *TokenVault
	stateSvc  *StateService
	refresher *Refresher
	oauth     driving.OAuthService
	accounts  driving.AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cipher, err := crypto.NewSecretEncryptor(testKey)
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	env := &testEnv{
		store:  mocks.NewMockAccountStore(),
		states: memory.NewStateStore(),
		twitch: mocks.NewMockPlatformAdapter(domain.PlatformTwitch),
		kick:   mocks.NewMockPlatformAdapter(domain.PlatformKick),
		lock:   mocks.NewMockDistributedLock(),
		cipher: cipher,
	}
	env.registry = mocks.NewMockPlatformRegistry(env.twitch, env.kick)
	env.vault = NewTokenVault(env.store, cipher)
	env.stateSvc = NewStateService(env.states)
	env.refresher = NewRefresher(RefresherConfig{
		Vault:    env.vault,
		Registry: env.registry,
		Lock:     env.lock,
		Logger:   discardLogger(),
		LockWait: 2 * time.Second,
	})
	env.oauth = NewOAuthService(OAuthServiceConfig{
		Registry:  env.registry,
		States:    env.stateSvc,
		Vault:     env.vault,
		Refresher: env.refresher,
		BaseURL:   "https://api.example.com/",
		Logger:    discardLogger(),
	})
	env.accounts = NewAccountService(env.vault, env.refresher, env.registry, discardLogger())
	return env
}

// seedAccount stores an account holding the given plaintext tokens.
func (e *testEnv) seedAccount(t *testing.T, userID string, platform domain.Platform, access, refresh string, expiresIn time.Duration) *domain.PlatformAccount {
	t.Helper()

	account, err := e.vault.Upsert(context.Background(), userID, platform, &domain.TokenResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
		Scopes:       []string{"user:read:email"},
	}, &domain.Profile{PlatformUserID: "pid-" + userID, Handle: "handle_" + userID})
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account
}

// tokensOf returns the stored plaintext tokens for (userID, platform).
func (e *testEnv) tokensOf(t *testing.T, userID string, platform domain.Platform) *domain.Tokens {
	t.Helper()

	account, err := e.store.Get(context.Background(), userID, platform)
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}
	tokens, err := e.vault.DecryptTokens(account)
	if err != nil {
		t.Fatalf("failed to decrypt tokens: %v", err)
	}
	return tokens
}

// linkAccount runs a full initiate/callback round trip.
func (e *testEnv) linkAccount(t *testing.T, userID string, platform domain.Platform, code string) *driving.CallbackResponse {
	t.Helper()
	ctx := context.Background()

	init, err := e.oauth.Initiate(ctx, userID, platform)
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	resp, err := e.oauth.HandleCallback(ctx, driving.CallbackRequest{
		UserID:   userID,
		Platform: platform,
		Code:     code,
		State:    init.State,
	})
	if err != nil {
		t.Fatalf("HandleCallback failed: %v", err)
	}
	return resp
}
