package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/keystone/pkg/cryptox"
)

// APIKeyHeader carries "<key>:<proof>" on every /v1 request.
const APIKeyHeader = "X-API-Key"

// SDKClient is a client for the keystone authentication service. It
// performs the unauthenticated calls and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// APIKey and APIKeySecret identify the calling application. The secret
	// never leaves the client, only its proof does.
	APIKey       string
	APIKeySecret string
}

// NewSDKClient creates a client for baseURL authenticating as the given
// API key. Leave key empty against a server running outside secure mode.
func NewSDKClient(baseURL, key, secret string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		APIKey:       key,
		APIKeySecret: secret,
	}
}

// APIKeyHeaderValue returns the X-API-Key value for key and secret.
func APIKeyHeaderValue(key, secret string) string {
	return key + ":" + cryptox.KeyProof(key, secret)
}

// Login exchanges credentials for a token pair. A login whose password has
// expired still returns tokens; check TokenResponse.PasswordExpired.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Refresh obtains a new access token. The returned refresh token is the
// one presented; sessions are bounded by their original login expiry.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/refresh", nil, map[string]string{
		"Authorization": "Bearer " + refreshToken,
	})
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// AuthenticateWithPassword logs in and wraps the tokens in a Session. A
// soft password_expired login still yields a session; callers that care
// should use Login directly.
func (c *SDKClient) AuthenticateWithPassword(
	ctx context.Context,
	email, password string,
	rememberMe bool,
) (*Session, error) {
	tokens, err := c.Login(ctx, LoginRequest{Email: email, Password: password, RememberMe: rememberMe})
	if err != nil {
		return nil, err
	}
	return newSession(c, tokens), nil
}

// NewSessionFromTokens creates a session from previously issued tokens.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}
