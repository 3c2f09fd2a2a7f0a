package auth_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLoginEndpoint verifies that /v1/auth/login is rate limited.
// This endpoint has strict limits (5 req/min) to prevent brute force attacks.
func TestRateLimitLoginEndpoint(t *testing.T) {
	baseURL := setupAuthContainerWithDefaultRateLimits(t)

	client := authsdk.NewSDKClient(baseURL, "", "")
	bad := authsdk.LoginRequest{Email: adminEmail, Password: "wrong-password"}

	// First 5 fail on the password, the 6th on the limiter
	for i := range 5 {
		_, err := client.Login(t.Context(), bad)
		require.ErrorIs(t, err, authsdk.ErrPasswordMismatch, "request %d should not be rate limited", i+1)
	}

	_, err := client.Login(t.Context(), bad)
	var apiErr *authsdk.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeRateLimitExceeded, apiErr.Code)

	// The limiter is keyed by IP and email, another account is unaffected
	_, err = client.Login(t.Context(), authsdk.LoginRequest{Email: "someone@example.com", Password: "x"})
	require.ErrorIs(t, err, authsdk.ErrCredentialNotFound)
}

// TestRateLimitHealthEndpoints verifies health check endpoints have lenient limits.
// Monitoring systems poll these frequently, so they need higher limits.
func TestRateLimitHealthEndpoints(t *testing.T) {
	baseURL := setupAuthContainerWithDefaultRateLimits(t)

	client := authsdk.NewSDKClient(baseURL, "", "")

	// Lenient limit is 100 req/min, test we can make 30 requests to both endpoints
	for i := range 30 {
		health, err := client.GetLiveness(t.Context())
		require.NoError(t, err, "Liveness request %d should not be rate limited", i+1)
		require.Equal(t, "ok", health.Status)

		health, err = client.GetReadiness(t.Context())
		require.NoError(t, err, "Readiness request %d should not be rate limited", i+1)
		require.Equal(t, "ok", health.Status)
	}
}

// TestRateLimitHeadersPresent verifies that rate limit response includes proper headers.
func TestRateLimitHeadersPresent(t *testing.T) {
	baseURL := setupAuthContainerWithDefaultRateLimits(t)

	httpClient := &http.Client{}
	body := `{"email":"` + adminEmail + `","password":"wrong-password"}`

	var last *http.Response
	for range 6 {
		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL+"/v1/auth/login", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		last = resp
	}

	require.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	require.NotEmpty(t, last.Header.Get("Retry-After"))
	require.Equal(t, "5", last.Header.Get("X-RateLimit-Limit"))
	require.Equal(t, "1m0s", last.Header.Get("X-RateLimit-Window"))
}
