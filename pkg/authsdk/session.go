package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// Session is an authenticated session. It refreshes the access token on
// demand and is safe for concurrent use.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func newSession(client *SDKClient, tokens *TokenResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  tokens.AccessToken,
		refreshToken: tokens.RefreshToken,
	}
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	tokens, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		s.refreshToken = tokens.RefreshToken
	}
	return s.accessToken, nil
}

// Me returns the profile of the session's user.
func (s *Session) Me(ctx context.Context) (*ProfileResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var profile ProfileResponse
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ChangePassword rotates the session user's password. Existing tokens stay
// valid until they expire.
func (s *Session) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, "/v1/auth/change-password", ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ListAPIKeys requires api_key:read.
func (s *Session) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/api-keys", nil)
	if err != nil {
		return nil, err
	}

	var list APIKeyListResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return list.APIKeys, nil
}

func (s *Session) GetAPIKey(ctx context.Context, id string) (*APIKey, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/api-keys/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var key APIKey
	if err := decodeJSON(resp, &key, http.StatusOK); err != nil {
		return nil, err
	}
	return &key, nil
}

// CreateAPIKey returns the only copy of the new key's secret.
func (s *Session) CreateAPIKey(ctx context.Context, req CreateAPIKeyRequest) (*APIKeyCredentials, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/api-keys", req)
	if err != nil {
		return nil, err
	}

	var creds APIKeyCredentials
	if err := decodeJSON(resp, &creds, http.StatusCreated); err != nil {
		return nil, err
	}
	return &creds, nil
}

// ResetAPIKey issues a new secret for id, invalidating the old one.
func (s *Session) ResetAPIKey(ctx context.Context, id string) (*APIKeyCredentials, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, "/v1/api-keys/"+url.PathEscape(id)+"/reset", nil)
	if err != nil {
		return nil, err
	}

	var creds APIKeyCredentials
	if err := decodeJSON(resp, &creds, http.StatusOK); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *Session) SetAPIKeyActive(ctx context.Context, id string, active bool) error {
	action := "inactive"
	if active {
		action = "active"
	}
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, "/v1/api-keys/"+url.PathEscape(id)+"/"+action, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (s *Session) UpdateAPIKeyDates(ctx context.Context, id string, req UpdateAPIKeyDatesRequest) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/api-keys/"+url.PathEscape(id)+"/date", req)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (s *Session) UpdateAPIKey(ctx context.Context, id string, req UpdateAPIKeyRequest) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/api-keys/"+url.PathEscape(id), req)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (s *Session) DeleteAPIKey(ctx context.Context, id string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/api-keys/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
