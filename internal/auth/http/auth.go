package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/aussiebroadwan/keystone/internal/auth/service"
	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/aussiebroadwan/keystone/pkg/httpx"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
)

// Bounds on a new password. Argon2 cost is independent of length, the
// upper bound just keeps request bodies sane.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

type AuthHandler struct {
	AuthService *service.AuthService
}

func tokenResponse(pair domain.TokenPair) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	}
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in with email and password
//	@Description	Issues an access and refresh token pair. When the password has expired the tokens are still issued and the response carries error=password_expired so the client can force a password change.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		APIKeyAuth
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse	"Token pair, possibly with error=password_expired"
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request or password_mismatch"
//	@Failure		401		{object}	authsdk.ErrorResponse	"api_key_*"
//	@Failure		403		{object}	authsdk.ErrorResponse	"account_inactive or role_inactive"
//	@Failure		404		{object}	authsdk.ErrorResponse	"credential_not_found"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, "request body must be a JSON login object")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		invalidRequest(w, "email and password are required")
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := tokenResponse(res.Tokens)
	if res.Outcome == domain.LoginPasswordExpired {
		resp.Error = authsdk.ErrorCodePasswordExpired
		resp.ErrorDescription = authsdk.ErrPasswordExpired.Description
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh handles POST /v1/auth/refresh
//
//	@Summary		Exchange a refresh token
//	@Description	Issues a new access token. The refresh token is sent as the bearer token and is returned unchanged.
//	@Tags			Auth
//	@Produce		json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.TokenResponse	"New access token and the presented refresh token"
//	@Failure		401	{object}	authsdk.ErrorResponse	"token_invalid, token_expired or api_key_*"
//	@Failure		403	{object}	authsdk.ErrorResponse	"account_inactive, role_inactive or password_expired"
//	@Failure		404	{object}	authsdk.ErrorResponse	"credential_not_found"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	raw, ok := httpx.BearerToken(r)
	if !ok {
		httpx.WriteBearerError(w, httpx.CodeTokenInvalid, "missing bearer token")
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(*pair))
}

// HandleChangePassword handles PATCH /v1/auth/change-password
//
//	@Summary		Change the caller's password
//	@Tags			Auth
//	@Accept			json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Param			request	body	authsdk.ChangePasswordRequest	true	"Old and new password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid_request, password_mismatch or password_unchanged"
//	@Failure		401	{object}	authsdk.ErrorResponse	"token_invalid, token_expired or api_key_*"
//	@Failure		403	{object}	authsdk.ErrorResponse	"account_inactive or role_inactive"
//	@Router			/v1/auth/change-password [patch].
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, "request body must be a JSON change-password object")
		return
	}
	if req.OldPassword == "" {
		invalidRequest(w, "old_password is required")
		return
	}
	if n := len(req.NewPassword); n < MinPasswordLength || n > MaxPasswordLength {
		invalidRequest(w, "new_password must be between 8 and 128 characters")
		return
	}

	err := h.AuthService.ChangePassword(ctx, httpx.SubjectFromContext(ctx), req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /v1/auth/me
//
//	@Summary		Get the caller's profile
//	@Tags			Auth
//	@Produce		json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.ProfileResponse	"Account, role and session expiry"
//	@Failure		401	{object}	authsdk.ErrorResponse	"token_invalid, token_expired or api_key_*"
//	@Failure		403	{object}	authsdk.ErrorResponse	"account_inactive or role_inactive"
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := actorFromContext(ctx)
	if !ok {
		slogx.FromContext(ctx).Error("profile requested without a resolved actor")
		authsdk.ErrServerError.WriteError(w)
		return
	}
	payload, _ := httpx.PayloadFromContext(ctx)

	httpx.WriteJSON(w, http.StatusOK, authsdk.ProfileResponse{
		ID:          actor.User.ID,
		Email:       actor.User.Email,
		DisplayName: actor.User.DisplayName,
		Role: authsdk.RoleInfo{
			ID:          actor.Role.ID,
			Name:        actor.Role.Name,
			Permissions: actor.Role.Permissions,
		},
		PasswordExpiry: actor.User.PasswordExpiry,
		LoginExpiry:    payload.LoginExpiry,
	})
}
