package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/streamlink/internal/adapters/driven/auth"
	"github.com/custodia-labs/streamlink/internal/adapters/driven/crypto"
	"github.com/custodia-labs/streamlink/internal/adapters/driven/memory"
	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/streamlink/internal/core/services"
)

const (
	featureJWTSecret = "feature-secret"
	featureJWTIssuer = "identity.example.com"
)

// linkingFeature is the per-scenario world: real services over in-memory adapters.
type linkingFeature struct {
	store   *mocks.MockAccountStore
	twitch  *mocks.MockPlatformAdapter
	kick    *mocks.MockPlatformAdapter
	jwt     *auth.Adapter
	handler http.Handler

	token   string
	authURL *url.URL
	resp    *httptest.ResponseRecorder
}

func (f *linkingFeature) reset(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
	cipher, err := crypto.NewSecretEncryptor([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		return ctx, err
	}

	f.store = mocks.NewMockAccountStore()
	f.twitch = mocks.NewMockPlatformAdapter(domain.PlatformTwitch)
	f.kick = mocks.NewMockPlatformAdapter(domain.PlatformKick)
	f.jwt = auth.NewAdapter(featureJWTSecret, featureJWTIssuer)
	f.token, f.authURL, f.resp = "", nil, nil

	registry := mocks.NewMockPlatformRegistry(f.twitch, f.kick)
	vault := services.NewTokenVault(f.store, cipher)
	refresher := services.NewRefresher(services.RefresherConfig{
		Vault:    vault,
		Registry: registry,
		Lock:     mocks.NewMockDistributedLock(),
		Logger:   discardLogger(),
	})

	srv := NewServer(DefaultConfig(), discardLogger(), Services{
		Auth: services.NewAuthService(f.jwt),
		OAuth: services.NewOAuthService(services.OAuthServiceConfig{
			Registry:  registry,
			States:    services.NewStateService(memory.NewStateStore()),
			Vault:     vault,
			Refresher: refresher,
			BaseURL:   "https://streamlink.example.com",
			Logger:    discardLogger(),
		}),
		Accounts: services.NewAccountService(vault, refresher, registry, discardLogger()),
	}, nil, nil)
	f.handler = srv.Handler()

	return ctx, nil
}

func (f *linkingFeature) issueToken(userID string) (string, error) {
	now := time.Now()
	return f.jwt.GenerateToken(&domain.TokenClaims{
		UserID:    userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	})
}

func (f *linkingFeature) send(method, target, token string) {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	f.resp = httptest.NewRecorder()
	f.handler.ServeHTTP(f.resp, req)
}

func (f *linkingFeature) aSignedInUser(userID string) error {
	token, err := f.issueToken(userID)
	if err != nil {
		return err
	}
	f.token = token
	return nil
}

func (f *linkingFeature) theUserInitiatesLinkingFor(platform string) error {
	f.send(http.MethodGet, "/platforms/"+platform+"/oauth/initiate", f.token)
	if f.resp.Code != http.StatusOK {
		return nil
	}

	var body struct {
		AuthURL string `json:"authUrl"`
	}
	if err := json.Unmarshal(f.resp.Body.Bytes(), &body); err != nil {
		return fmt.Errorf("decode initiate response: %w", err)
	}
	u, err := url.Parse(body.AuthURL)
	if err != nil {
		return fmt.Errorf("parse authUrl: %w", err)
	}
	f.authURL = u
	return nil
}

func (f *linkingFeature) theAuthorizationURLCarriesAnS256Challenge() error {
	if f.authURL == nil {
		return fmt.Errorf("no authorization URL was issued")
	}
	q := f.authURL.Query()
	if q.Get("code_challenge") == "" {
		return fmt.Errorf("authorization URL has no code_challenge")
	}
	if q.Get("code_challenge_method") != "S256" {
		return fmt.Errorf("expected S256, got %q", q.Get("code_challenge_method"))
	}
	if q.Get("state") == "" {
		return fmt.Errorf("authorization URL has no state")
	}
	if want := "https://streamlink.example.com/platforms/twitch/oauth/callback"; q.Get("redirect_uri") != want {
		return fmt.Errorf("expected redirect_uri %q, got %q", want, q.Get("redirect_uri"))
	}
	return nil
}

func (f *linkingFeature) callback(token string, params url.Values) error {
	if f.authURL == nil {
		return fmt.Errorf("no authorization URL was issued")
	}
	params.Set("state", f.authURL.Query().Get("state"))
	platform := "twitch"
	if f.authURL.Host == "kick.example.com" {
		platform = "kick"
	}
	f.send(http.MethodGet, "/platforms/"+platform+"/oauth/callback?"+params.Encode(), token)
	return nil
}

func (f *linkingFeature) thePlatformRedirectsBackWithCode(code string) error {
	return f.callback(f.token, url.Values{"code": {code}})
}

func (f *linkingFeature) thePlatformRedirectsBackWithError(errCode string) error {
	return f.callback(f.token, url.Values{"error": {errCode}})
}

func (f *linkingFeature) anotherUserCompletesTheCallback(userID, code string) error {
	token, err := f.issueToken(userID)
	if err != nil {
		return err
	}
	return f.callback(token, url.Values{"code": {code}})
}

func (f *linkingFeature) theResponseStatusIs(status int) error {
	if f.resp == nil {
		return fmt.Errorf("no request was sent")
	}
	if f.resp.Code != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, f.resp.Code, f.resp.Body.String())
	}
	return nil
}

func (f *linkingFeature) theErrorCodeIs(code string) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(f.resp.Body.Bytes(), &body); err != nil {
		return fmt.Errorf("decode error body: %w", err)
	}
	if body.Error != code {
		return fmt.Errorf("expected error %q, got %q", code, body.Error)
	}
	return nil
}

func (f *linkingFeature) listAccounts() ([]domain.AccountSummary, error) {
	f.send(http.MethodGet, "/platforms/accounts", f.token)
	if f.resp.Code != http.StatusOK {
		return nil, fmt.Errorf("list accounts: status %d", f.resp.Code)
	}
	var accounts []domain.AccountSummary
	if err := json.Unmarshal(f.resp.Body.Bytes(), &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

func (f *linkingFeature) theUserHasLinkedAccounts(n int) error {
	accounts, err := f.listAccounts()
	if err != nil {
		return err
	}
	if len(accounts) != n {
		return fmt.Errorf("expected %d linked accounts, got %d", n, len(accounts))
	}
	return nil
}

func (f *linkingFeature) theAccountHasHandle(platform, handle string) error {
	accounts, err := f.listAccounts()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if string(a.Platform) == platform {
			if a.Handle != handle {
				return fmt.Errorf("expected handle %q, got %q", handle, a.Handle)
			}
			return nil
		}
	}
	return fmt.Errorf("no %s account linked", platform)
}

func (f *linkingFeature) theAccessTokenIsAboutToExpire(platform string) error {
	claims, err := f.jwt.ParseToken(f.token)
	if err != nil {
		return err
	}
	account, err := f.store.Get(context.Background(), claims.UserID, domain.Platform(platform))
	if err != nil {
		return err
	}
	account.ExpiresAt = time.Now().Add(time.Minute)
	f.store.Put(account)
	return nil
}

func (f *linkingFeature) theUserRefreshes(platform string) error {
	f.send(http.MethodPost, "/platforms/"+platform+"/refresh", f.token)
	return nil
}

func (f *linkingFeature) thePlatformReceivedRefreshRequests(n int) error {
	if got := f.twitch.RefreshCalls(); got != n {
		return fmt.Errorf("expected %d refresh requests, got %d", n, got)
	}
	return nil
}

func (f *linkingFeature) theUserDisconnects(platform string) error {
	accounts, err := f.listAccounts()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if string(a.Platform) == platform {
			f.send(http.MethodDelete, "/platforms/accounts/"+a.ID, f.token)
			return nil
		}
	}
	return fmt.Errorf("no %s account linked", platform)
}

func (f *linkingFeature) anAnonymousClientListsAccounts() error {
	f.send(http.MethodGet, "/platforms/accounts", "")
	return nil
}

func initializeLinkingScenario(sc *godog.ScenarioContext) {
	f := &linkingFeature{}
	sc.Before(f.reset)

	sc.Step(`^a signed-in user "([^"]*)"$`, f.aSignedInUser)
	sc.Step(`^the user initiates linking for "([^"]*)"$`, f.theUserInitiatesLinkingFor)
	sc.Step(`^the authorization URL carries an S256 PKCE challenge$`, f.theAuthorizationURLCarriesAnS256Challenge)
	sc.Step(`^the platform redirects back with code "([^"]*)"$`, f.thePlatformRedirectsBackWithCode)
	sc.Step(`^the platform redirects back with error "([^"]*)"$`, f.thePlatformRedirectsBackWithError)
	sc.Step(`^"([^"]*)" completes the callback with code "([^"]*)"$`, f.anotherUserCompletesTheCallback)
	sc.Step(`^the response status is (\d+)$`, f.theResponseStatusIs)
	sc.Step(`^the error code is "([^"]*)"$`, f.theErrorCodeIs)
	sc.Step(`^the user has (\d+) linked accounts?$`, f.theUserHasLinkedAccounts)
	sc.Step(`^the "([^"]*)" account has handle "([^"]*)"$`, f.theAccountHasHandle)
	sc.Step(`^the "([^"]*)" access token is about to expire$`, f.theAccessTokenIsAboutToExpire)
	sc.Step(`^the user refreshes "([^"]*)"$`, f.theUserRefreshes)
	sc.Step(`^the platform received (\d+) refresh requests?$`, f.thePlatformReceivedRefreshRequests)
	sc.Step(`^the user disconnects the "([^"]*)" account$`, f.theUserDisconnects)
	sc.Step(`^an anonymous client lists accounts$`, f.anAnonymousClientListsAccounts)
}

func TestAccountLinkingFeature(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping feature suite in short mode")
	}

	suite := godog.TestSuite{
		Name:                "account-linking",
		ScenarioInitializer: initializeLinkingScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
