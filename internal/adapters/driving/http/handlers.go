package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driving"
	"github.com/custodia-labs/streamlink/internal/logger"
)

// readyTimeout bounds each dependency ping in /ready.
const readyTimeout = 2 * time.Second

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports dependency health
// @Description Readiness status with per-dependency checks
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the liveness status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings PostgreSQL and, when configured, Redis
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			logger.FromContext(r.Context(), s.logger).Warn("readiness check failed", "dependency", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			return
		}
		resp.Checks[name] = "ok"
	}
	check("postgres", s.db)
	check("redis", s.redisClient)

	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Authorization flow endpoints

// handleInitiate godoc
// @Summary      Start linking a platform account
// @Description  Creates a single-use state and returns the platform consent URL with a PKCE challenge
// @Tags         OAuth
// @Produce      json
// @Security     BearerAuth
// @Param        platform  path      string  true  "Platform"  Enums(twitch, youtube, kick)
// @Success      200       {object}  driving.InitiateResponse
// @Failure      401       {object}  driving.OAuthError
// @Failure      404       {object}  driving.OAuthError  "Unsupported platform"
// @Router       /platforms/{platform}/oauth/initiate [get]
func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	authCtx, platform, ok := s.platformRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.oauthService.Initiate(r.Context(), authCtx.UserID, platform)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCallback godoc
// @Summary      Complete linking a platform account
// @Description  Validates the state, exchanges the authorization code and stores the encrypted tokens
// @Tags         OAuth
// @Produce      json
// @Security     BearerAuth
// @Param        platform           path      string  true   "Platform"  Enums(twitch, youtube, kick)
// @Param        code               query     string  false  "Authorization code"
// @Param        state              query     string  true   "State token"
// @Param        error              query     string  false  "Error reported by the platform"
// @Param        error_description  query     string  false  "Error details reported by the platform"
// @Success      200                {object}  driving.CallbackResponse
// @Failure      400                {object}  driving.OAuthError  "Invalid state or authorization denied"
// @Failure      401                {object}  driving.OAuthError
// @Failure      404                {object}  driving.OAuthError  "Unsupported platform"
// @Failure      502                {object}  driving.OAuthError  "Exchange failed or platform unavailable"
// @Router       /platforms/{platform}/oauth/callback [get]
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	authCtx, platform, ok := s.platformRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := driving.CallbackRequest{
		UserID:           authCtx.UserID,
		Platform:         platform,
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	resp, err := s.oauthService.HandleCallback(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Linked account endpoints

// handleListAccounts godoc
// @Summary      List linked accounts
// @Description  Returns every platform account linked by the caller. Tokens are never included.
// @Tags         Accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.AccountSummary
// @Failure      401  {object}  driving.OAuthError
// @Router       /platforms/accounts [get]
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeOAuthError(w, driving.ErrOAuthUnauthorized)
		return
	}

	accounts, err := s.accountService.List(r.Context(), authCtx.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []*domain.AccountSummary{}
	}

	writeJSON(w, http.StatusOK, accounts)
}

// handleDisconnect godoc
// @Summary      Disconnect a linked account
// @Description  Removes the account and its stored tokens
// @Tags         Accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  driving.OAuthError
// @Failure      404  {object}  driving.OAuthError
// @Router       /platforms/accounts/{id} [delete]
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeOAuthError(w, driving.ErrOAuthUnauthorized)
		return
	}

	if err := s.accountService.Disconnect(r.Context(), authCtx.UserID, r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// handleRefresh godoc
// @Summary      Refresh an access token
// @Description  Refreshes the account's token when it is within the refresh window, or always with force=true
// @Tags         Accounts
// @Produce      json
// @Security     BearerAuth
// @Param        platform  path      string  true   "Platform"  Enums(twitch, youtube, kick)
// @Param        force     query     bool    false  "Refresh even if the token is not due"
// @Success      200       {object}  domain.AccountSummary
// @Failure      401       {object}  driving.OAuthError
// @Failure      404       {object}  driving.OAuthError
// @Failure      409       {object}  driving.OAuthError  "Reauthorization required or refresh in progress"
// @Failure      502       {object}  driving.OAuthError
// @Router       /platforms/{platform}/refresh [post]
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	authCtx, platform, ok := s.platformRequest(w, r)
	if !ok {
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	summary, err := s.accountService.Refresh(r.Context(), authCtx.UserID, platform, force)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleSyncProfile godoc
// @Summary      Re-read the platform profile
// @Description  Fetches the profile with a fresh access token and updates the stored handle
// @Tags         Accounts
// @Produce      json
// @Security     BearerAuth
// @Param        platform  path      string  true  "Platform"  Enums(twitch, youtube, kick)
// @Success      200       {object}  domain.AccountSummary
// @Failure      401       {object}  driving.OAuthError
// @Failure      404       {object}  driving.OAuthError
// @Failure      409       {object}  driving.OAuthError
// @Failure      502       {object}  driving.OAuthError
// @Router       /platforms/{platform}/profile/sync [post]
func (s *Server) handleSyncProfile(w http.ResponseWriter, r *http.Request) {
	authCtx, platform, ok := s.platformRequest(w, r)
	if !ok {
		return
	}

	summary, err := s.accountService.SyncProfile(r.Context(), authCtx.UserID, platform)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// platformRequest resolves the caller and the {platform} path segment.
// It writes the error response itself and reports false on failure.
func (s *Server) platformRequest(w http.ResponseWriter, r *http.Request) (*domain.AuthContext, domain.Platform, bool) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeOAuthError(w, driving.ErrOAuthUnauthorized)
		return nil, "", false
	}

	platform, err := domain.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		writeOAuthError(w, driving.ErrOAuthUnsupportedPlatform)
		return nil, "", false
	}

	return authCtx, platform, true
}

// writeServiceError maps err onto the external taxonomy. Only server-side failures are logged at error level.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	oerr := driving.ToOAuthError(err)
	log := logger.FromContext(r.Context(), s.logger)
	if oerr.Status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "code", oerr.Code, "error", err)
	} else {
		log.Info("request rejected", "path", r.URL.Path, "code", oerr.Code, "error", err)
	}
	writeOAuthError(w, oerr)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeOAuthError(w http.ResponseWriter, oerr *driving.OAuthError) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, oerr.Status, oerr)
}
