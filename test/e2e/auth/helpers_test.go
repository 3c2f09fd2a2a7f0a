package auth_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "keystone-auth-test:latest"

	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!Admin123!"
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Image might not exist
}

// baseEnv bootstraps an admin account and runs without API key checks so
// flows can be driven with only a password.
func baseEnv() map[string]string {
	return map[string]string{
		"APP_ENV":            "test",
		"APP_MODE":           "insecure",
		"AUTH_DATABASE_FILE": "/data/auth.db",
		"AUTH_PEPPER_FILE":   "/data/pepper",
		"AUTH_ISSUER":        "keystone-e2e",
		// Refresh tokens are usable immediately so flows need no waiting
		"AUTH_REFRESH_TOKEN_NOT_BEFORE": "0s",
		"BOOTSTRAP_ADMIN_EMAIL":         adminEmail,
		"BOOTSTRAP_ADMIN_PASSWORD":      adminPassword,
		"LOG_LEVEL":                     "info",
		"LOG_FORMAT":                    "json",
	}
}

// relaxedLimits keeps rapid test traffic under the production limits.
func relaxedLimits() map[string]string {
	return map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

// startAuthContainer starts the auth service with env and returns the
// base URL. The container is terminated when the test finishes.
func startAuthContainer(t *testing.T, env map[string]string) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// setupAuthContainer starts an insecure-mode service with relaxed limits.
func setupAuthContainer(t *testing.T) string {
	t.Helper()
	env := baseEnv()
	maps.Copy(env, relaxedLimits())
	return startAuthContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits keeps production limits, for
// the rate limit tests only.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) string {
	t.Helper()
	return startAuthContainer(t, baseEnv())
}

// performLogin logs the admin in and returns a session.
func performLogin(t *testing.T, client *authsdk.SDKClient) *authsdk.Session {
	t.Helper()

	session, err := client.AuthenticateWithPassword(t.Context(), adminEmail, adminPassword, false)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session)
	return session
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *authsdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "Refresh token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.Positive(t, resp.ExpiresIn)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
