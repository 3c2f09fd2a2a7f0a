package auth_test

import (
	"strings"
	"testing"

	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestAPIKeyLifecycle drives every API key administration route as the
// bootstrapped admin.
func TestAPIKeyLifecycle(t *testing.T) {
	baseURL := setupAuthContainer(t)
	ctx := t.Context()

	client := authsdk.NewSDKClient(baseURL, "", "")
	session := performLogin(t, client)

	created, err := session.CreateAPIKey(ctx, authsdk.CreateAPIKeyRequest{Name: "e2e", Description: "end to end"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(created.Key, "test_"), "key carries the environment prefix")
	require.NotEmpty(t, created.Secret)

	keys, err := session.ListAPIKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, created.ID, keys[0].ID)

	require.NoError(t, session.UpdateAPIKey(ctx, created.ID, authsdk.UpdateAPIKeyRequest{Name: "e2e-renamed"}))
	require.NoError(t, session.SetAPIKeyActive(ctx, created.ID, false))

	got, err := session.GetAPIKey(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "e2e-renamed", got.Name)
	require.False(t, got.IsActive)

	reset, err := session.ResetAPIKey(ctx, created.ID)
	require.NoError(t, err)
	require.NotEqual(t, created.Secret, reset.Secret)

	require.NoError(t, session.DeleteAPIKey(ctx, created.ID))
	_, err = session.GetAPIKey(ctx, created.ID)
	require.ErrorIs(t, err, authsdk.ErrNotFound)
}
