package auth_test

import (
	"maps"
	"testing"

	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestInvalidCredentials verifies that login failures carry distinct codes.
func TestInvalidCredentials(t *testing.T) {
	baseURL := setupAuthContainer(t)

	client := authsdk.NewSDKClient(baseURL, "", "")

	_, err := client.Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: "wrong-password"})
	require.ErrorIs(t, err, authsdk.ErrPasswordMismatch)

	_, err = client.Login(t.Context(), authsdk.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.ErrorIs(t, err, authsdk.ErrCredentialNotFound)
}

// TestInvalidAccessToken verifies that the profile endpoint rejects invalid tokens.
func TestInvalidAccessToken(t *testing.T) {
	baseURL := setupAuthContainer(t)

	client := authsdk.NewSDKClient(baseURL, "", "")

	invalidSession := client.NewSessionFromTokens("invalid-token-12345", "")

	_, err := invalidSession.Me(t.Context())
	require.ErrorIs(t, err, authsdk.ErrTokenInvalid)
}

// TestSecureModeRequiresAPIKey verifies that a service in secure mode
// rejects callers without a key but keeps health endpoints open.
func TestSecureModeRequiresAPIKey(t *testing.T) {
	env := baseEnv()
	maps.Copy(env, relaxedLimits())
	env["APP_MODE"] = "secure"
	baseURL := startAuthContainer(t, env)

	client := authsdk.NewSDKClient(baseURL, "", "")

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	_, err = client.Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.ErrorIs(t, err, authsdk.ErrAPIKeyMissing)

	forged := authsdk.NewSDKClient(baseURL, "test_ABCDEFGHIJKLMNOPQRSTUVWXY", "secret")
	_, err = forged.Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.ErrorIs(t, err, authsdk.ErrAPIKeyNotFound)
}
