package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driving"
)

// Mock services for testing

type mockAuthService struct {
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	if token == "valid-token" {
		return &domain.AuthContext{UserID: "user-1"}, nil
	}
	return nil, domain.ErrTokenInvalid
}

type mockOAuthService struct {
	initiateFn func(ctx context.Context, userID string, platform domain.Platform) (*driving.InitiateResponse, error)
	callbackFn func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error)
}

func (m *mockOAuthService) Initiate(ctx context.Context, userID string, platform domain.Platform) (*driving.InitiateResponse, error) {
	if m.initiateFn != nil {
		return m.initiateFn(ctx, userID, platform)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOAuthService) HandleCallback(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
	if m.callbackFn != nil {
		return m.callbackFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockAccountService struct {
	listFn       func(ctx context.Context, userID string) ([]*domain.AccountSummary, error)
	disconnectFn func(ctx context.Context, userID, accountID string) error
	refreshFn    func(ctx context.Context, userID string, platform domain.Platform, force bool) (*domain.AccountSummary, error)
	syncFn       func(ctx context.Context, userID string, platform domain.Platform) (*domain.AccountSummary, error)
}

func (m *mockAccountService) List(ctx context.Context, userID string) ([]*domain.AccountSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAccountService) Disconnect(ctx context.Context, userID, accountID string) error {
	if m.disconnectFn != nil {
		return m.disconnectFn(ctx, userID, accountID)
	}
	return errors.New("not implemented")
}

func (m *mockAccountService) Refresh(ctx context.Context, userID string, platform domain.Platform, force bool) (*domain.AccountSummary, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, userID, platform, force)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAccountService) SyncProfile(ctx context.Context, userID string, platform domain.Platform) (*domain.AccountSummary, error) {
	if m.syncFn != nil {
		return m.syncFn(ctx, userID, platform)
	}
	return nil, errors.New("not implemented")
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(oauth *mockOAuthService, accounts *mockAccountService, db, redis Pinger) *Server {
	if oauth == nil {
		oauth = &mockOAuthService{}
	}
	if accounts == nil {
		accounts = &mockAccountService{}
	}
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	return NewServer(cfg, discardLogger(), Services{
		Auth:     &mockAuthService{},
		OAuth:    oauth,
		Accounts: accounts,
	}, db, redis)
}

func doRequest(s *Server, method, target string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if authed {
		req.Header.Set("Authorization", "Bearer valid-token")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) driving.OAuthError {
	t.Helper()
	var body driving.OAuthError
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func sampleSummary(platform domain.Platform) *domain.AccountSummary {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.AccountSummary{
		ID:        "acc-1",
		Platform:  platform,
		Handle:    "streamer",
		Scopes:    []string{"user:read:email"},
		ExpiresAt: &expires,
		Status:    domain.AccountStatusActive,
	}
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	s := newTestServer(nil, nil, nil, nil)

	rr := doRequest(s, http.MethodGet, "/health", false)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp StatusResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(nil, nil, nil, nil)

	rr := doRequest(s, http.MethodGet, "/version", false)

	var resp VersionResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", resp.Version)
	}
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		redis      Pinger
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{},
		},
		{
			name:       "all healthy",
			db:         &mockPinger{},
			redis:      &mockPinger{},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:       "redis down",
			db:         &mockPinger{},
			redis:      &mockPinger{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "ok", "redis": "unavailable"},
		},
		{
			name:       "postgres down",
			db:         &mockPinger{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil, nil, tt.db, tt.redis)

			rr := doRequest(s, http.MethodGet, "/ready", false)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			var resp ReadyResponse
			_ = json.NewDecoder(rr.Body).Decode(&resp)
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("expected checks %v, got %v", tt.wantChecks, resp.Checks)
			}
			for k, v := range tt.wantChecks {
				if resp.Checks[k] != v {
					t.Errorf("check %s: expected %q, got %q", k, v, resp.Checks[k])
				}
			}
		})
	}
}

func TestHandleMetrics(t *testing.T) {
	s := newTestServer(nil, nil, nil, nil)
	doRequest(s, http.MethodGet, "/health", false)

	rr := doRequest(s, http.MethodGet, "/metrics", false)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "streamlink_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

// Authorization flow endpoints

func TestHandleInitiate(t *testing.T) {
	var gotUser string
	var gotPlatform domain.Platform
	oauth := &mockOAuthService{
		initiateFn: func(ctx context.Context, userID string, platform domain.Platform) (*driving.InitiateResponse, error) {
			gotUser, gotPlatform = userID, platform
			return &driving.InitiateResponse{
				AuthURL: "https://id.twitch.tv/oauth2/authorize?state=abc",
				State:   "abc",
			}, nil
		},
	}
	s := newTestServer(oauth, nil, nil, nil)

	rr := doRequest(s, http.MethodGet, "/platforms/twitch/oauth/initiate", true)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotUser != "user-1" || gotPlatform != domain.PlatformTwitch {
		t.Errorf("unexpected service args: %q %q", gotUser, gotPlatform)
	}

	var body map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&body)
	if body["authUrl"] != "https://id.twitch.tv/oauth2/authorize?state=abc" {
		t.Errorf("unexpected authUrl: %v", body["authUrl"])
	}
	if _, leaked := body["State"]; leaked {
		t.Error("state must not be serialized separately")
	}
}

func TestHandleInitiate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		authed     bool
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing token",
			path:       "/platforms/twitch/oauth/initiate",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unauthorized",
		},
		{
			name:       "unknown platform",
			path:       "/platforms/myspace/oauth/initiate",
			authed:     true,
			wantStatus: http.StatusNotFound,
			wantCode:   "unsupported_platform",
		},
		{
			name:       "platform not configured",
			path:       "/platforms/youtube/oauth/initiate",
			authed:     true,
			serviceErr: fmt.Errorf("%w: youtube", domain.ErrUnsupportedPlatform),
			wantStatus: http.StatusNotFound,
			wantCode:   "unsupported_platform",
		},
		{
			name:       "store failure",
			path:       "/platforms/twitch/oauth/initiate",
			authed:     true,
			serviceErr: errors.New("redis: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oauth := &mockOAuthService{
				initiateFn: func(ctx context.Context, userID string, platform domain.Platform) (*driving.InitiateResponse, error) {
					return nil, tt.serviceErr
				},
			}
			s := newTestServer(oauth, nil, nil, nil)

			rr := doRequest(s, http.MethodGet, tt.path, tt.authed)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			body := decodeError(t, rr)
			if body.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, body.Code)
			}
			if strings.Contains(rr.Body.String(), "redis") {
				t.Error("internal error details must not leak")
			}
		})
	}
}

func TestHandleCallback(t *testing.T) {
	var got driving.CallbackRequest
	oauth := &mockOAuthService{
		callbackFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
			got = req
			return &driving.CallbackResponse{Success: true, Platform: req.Platform, Handle: "streamer"}, nil
		},
	}
	s := newTestServer(oauth, nil, nil, nil)

	rr := doRequest(s, http.MethodGet, "/platforms/kick/oauth/callback?code=c0de&state=st4te", true)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.UserID != "user-1" || got.Platform != domain.PlatformKick || got.Code != "c0de" || got.State != "st4te" {
		t.Errorf("unexpected callback request: %+v", got)
	}

	var resp driving.CallbackResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.Success || resp.Platform != domain.PlatformKick || resp.Handle != "streamer" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleCallback_PassesPlatformError(t *testing.T) {
	var got driving.CallbackRequest
	oauth := &mockOAuthService{
		callbackFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
			got = req
			return nil, domain.ErrAuthorizationDenied
		},
	}
	s := newTestServer(oauth, nil, nil, nil)

	rr := doRequest(s, http.MethodGet,
		"/platforms/twitch/oauth/callback?state=st4te&error=access_denied&error_description=User+denied", true)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if got.Error != "access_denied" || got.ErrorDescription != "User denied" {
		t.Errorf("platform error not forwarded: %+v", got)
	}
	if body := decodeError(t, rr); body.Code != "authorization_denied" {
		t.Errorf("expected authorization_denied, got %q", body.Code)
	}
}

func TestHandleCallback_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid state", domain.ErrInvalidState, http.StatusBadRequest, "invalid_state"},
		{"state mismatch", domain.ErrStateMismatch, http.StatusBadRequest, "invalid_state"},
		{"exchange failed", fmt.Errorf("%w: %w", domain.ErrExchangeFailed, &domain.PlatformError{StatusCode: 400, Code: "invalid_grant"}), http.StatusBadGateway, "exchange_failed"},
		{"profile failed", fmt.Errorf("%w: %w", domain.ErrPlatformAPI, &domain.PlatformError{StatusCode: 503}), http.StatusBadGateway, "platform_api_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oauth := &mockOAuthService{
				callbackFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(oauth, nil, nil, nil)

			rr := doRequest(s, http.MethodGet, "/platforms/twitch/oauth/callback?code=x&state=y", true)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if body := decodeError(t, rr); body.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, body.Code)
			}
		})
	}
}

// Linked account endpoints

func TestHandleListAccounts(t *testing.T) {
	accounts := &mockAccountService{
		listFn: func(ctx context.Context, userID string) ([]*domain.AccountSummary, error) {
			if userID != "user-1" {
				t.Errorf("expected user-1, got %q", userID)
			}
			return []*domain.AccountSummary{sampleSummary(domain.PlatformTwitch)}, nil
		},
	}
	s := newTestServer(nil, accounts, nil, nil)

	rr := doRequest(s, http.MethodGet, "/platforms/accounts", true)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp []domain.AccountSummary
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp) != 1 || resp[0].Handle != "streamer" {
		t.Errorf("unexpected accounts: %+v", resp)
	}
	if strings.Contains(rr.Body.String(), "token") {
		t.Error("account listing must not contain token material")
	}
}

func TestHandleListAccounts_FieldNames(t *testing.T) {
	accounts := &mockAccountService{
		listFn: func(ctx context.Context, userID string) ([]*domain.AccountSummary, error) {
			return []*domain.AccountSummary{sampleSummary(domain.PlatformKick)}, nil
		},
	}
	s := newTestServer(nil, accounts, nil, nil)

	rr := doRequest(s, http.MethodGet, "/platforms/accounts", true)

	var resp []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected one account, got %d", len(resp))
	}
	for _, key := range []string{"id", "platform", "handle", "scopes", "expiresAt", "status", "createdAt", "updatedAt"} {
		if _, ok := resp[0][key]; !ok {
			t.Errorf("expected field %q in %v", key, resp[0])
		}
	}
	for key := range resp[0] {
		if strings.Contains(key, "_") {
			t.Errorf("field %q is not camelCase", key)
		}
	}
}

func TestHandleListAccounts_Empty(t *testing.T) {
	accounts := &mockAccountService{
		listFn: func(ctx context.Context, userID string) ([]*domain.AccountSummary, error) {
			return nil, nil
		},
	}
	s := newTestServer(nil, accounts, nil, nil)

	rr := doRequest(s, http.MethodGet, "/platforms/accounts", true)

	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", rr.Body.String())
	}
}

func TestHandleDisconnect(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"deleted", nil, http.StatusOK},
		{"not owned", domain.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			accounts := &mockAccountService{
				disconnectFn: func(ctx context.Context, userID, accountID string) error {
					gotID = accountID
					return tt.err
				},
			}
			s := newTestServer(nil, accounts, nil, nil)

			rr := doRequest(s, http.MethodDelete, "/platforms/accounts/acc-42", true)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if gotID != "acc-42" {
				t.Errorf("expected account id acc-42, got %q", gotID)
			}
			if tt.err == nil {
				var resp StatusResponse
				_ = json.NewDecoder(rr.Body).Decode(&resp)
				if resp.Status != "deleted" {
					t.Errorf("expected status deleted, got %q", resp.Status)
				}
			}
		})
	}
}

func TestHandleRefresh(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantForce bool
	}{
		{"due only", "", false},
		{"forced", "?force=true", true},
		{"force flag as 1", "?force=1", true},
		{"garbage force", "?force=maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotForce bool
			accounts := &mockAccountService{
				refreshFn: func(ctx context.Context, userID string, platform domain.Platform, force bool) (*domain.AccountSummary, error) {
					gotForce = force
					return sampleSummary(platform), nil
				},
			}
			s := newTestServer(nil, accounts, nil, nil)

			rr := doRequest(s, http.MethodPost, "/platforms/twitch/refresh"+tt.query, true)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}
			if gotForce != tt.wantForce {
				t.Errorf("expected force=%v, got %v", tt.wantForce, gotForce)
			}
		})
	}
}

func TestHandleRefresh_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no account", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"reauth", fmt.Errorf("%w: %w", domain.ErrRefreshFailed, domain.ErrReauthorizationRequired), http.StatusConflict, "reauthorization_required"},
		{"in progress", domain.ErrRefreshInProgress, http.StatusConflict, "refresh_in_progress"},
		{"platform down", fmt.Errorf("%w: %w", domain.ErrPlatformAPI, &domain.PlatformError{StatusCode: 502}), http.StatusBadGateway, "platform_api_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &mockAccountService{
				refreshFn: func(ctx context.Context, userID string, platform domain.Platform, force bool) (*domain.AccountSummary, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(nil, accounts, nil, nil)

			rr := doRequest(s, http.MethodPost, "/platforms/twitch/refresh", true)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if body := decodeError(t, rr); body.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, body.Code)
			}
		})
	}
}

func TestHandleSyncProfile(t *testing.T) {
	accounts := &mockAccountService{
		syncFn: func(ctx context.Context, userID string, platform domain.Platform) (*domain.AccountSummary, error) {
			summary := sampleSummary(platform)
			summary.Handle = "renamed"
			return summary, nil
		},
	}
	s := newTestServer(nil, accounts, nil, nil)

	rr := doRequest(s, http.MethodPost, "/platforms/youtube/profile/sync", true)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp domain.AccountSummary
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Handle != "renamed" || resp.Platform != domain.PlatformYouTube {
		t.Errorf("unexpected summary: %+v", resp)
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	s := newTestServer(nil, nil, nil, nil)

	rr := doRequest(s, http.MethodPost, "/platforms/accounts", true)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}
