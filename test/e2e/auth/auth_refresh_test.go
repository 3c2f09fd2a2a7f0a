package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRefreshMe tests the complete flow:
// 1. Login with the bootstrapped admin
// 2. Refresh the access token
// 3. Verify the refresh token is handed back unchanged
// 4. Read the profile with the new access token
func TestLoginRefreshMe(t *testing.T) {
	baseURL := setupAuthContainer(t)

	client := authsdk.NewSDKClient(baseURL, "", "")

	login, err := client.Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.NoError(t, err)
	assertTokenResponse(t, login)
	require.False(t, login.PasswordExpired())

	refreshed, err := client.Refresh(t.Context(), login.RefreshToken)
	require.NoError(t, err)
	assertTokenResponse(t, refreshed)
	require.Equal(t, login.RefreshToken, refreshed.RefreshToken, "Refresh token is not rotated")

	session := client.NewSessionFromTokens(refreshed.AccessToken, refreshed.RefreshToken)
	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, adminEmail, me.Email)
	require.Equal(t, "admin", me.Role.Name)
}

// TestChangePasswordFlow verifies the new password replaces the old one.
func TestChangePasswordFlow(t *testing.T) {
	baseURL := setupAuthContainer(t)

	client := authsdk.NewSDKClient(baseURL, "", "")
	session := performLogin(t, client)

	const newPassword = "a-much-better-password"
	require.NoError(t, session.ChangePassword(t.Context(), adminPassword, newPassword))

	_, err := client.Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.ErrorIs(t, err, authsdk.ErrPasswordMismatch)

	_, err = client.Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: newPassword})
	require.NoError(t, err)
}
