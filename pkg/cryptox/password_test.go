package cryptox

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPolicy(t *testing.T, now time.Time) *PasswordPolicy {
	t.Helper()
	p, err := NewPasswordPolicy(
		PasswordConfig{SaltLength: 16, ExpiryDays: 182, Pepper: "test-pepper"},
		WithPasswordClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	return p
}

func TestNewPasswordPolicy_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  PasswordConfig
	}{
		{"salt too short", PasswordConfig{SaltLength: 4, ExpiryDays: 30}},
		{"zero expiry", PasswordConfig{SaltLength: 16, ExpiryDays: 0}},
		{"negative expiry", PasswordConfig{SaltLength: 16, ExpiryDays: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPasswordPolicy(tt.cfg)
			require.ErrorIs(t, err, ErrInvalidPasswordConfig)
		})
	}
}

func TestPasswordPolicy_Hash(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPolicy(t, now)

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := p.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(h.Hash, "$argon2id$v=19$m=19456,t=2,p=1$"))

			parts := strings.Split(h.Hash, "$")
			require.Len(t, parts, 6)
			require.Equal(t, parts[4], h.Salt, "salt must be the one embedded in the hash")
			require.Equal(t, now.AddDate(0, 0, 182), h.Expiry)

			require.True(t, p.Verify(tt.password, h))
		})
	}
}

func TestPasswordPolicy_SaltLength(t *testing.T) {
	p, err := NewPasswordPolicy(PasswordConfig{SaltLength: 24, ExpiryDays: 1})
	require.NoError(t, err)

	h, err := p.Hash("secret")
	require.NoError(t, err)
	// 24 bytes in unpadded base64 is 32 chars.
	require.Len(t, h.Salt, 32)
}

func TestPasswordPolicy_UniqueSalts(t *testing.T) {
	p := newTestPolicy(t, time.Now())

	h1, err := p.Hash("samepassword")
	require.NoError(t, err)
	h2, err := p.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, h1.Salt, h2.Salt)
	require.NotEqual(t, h1.Hash, h2.Hash)
	require.True(t, p.Verify("samepassword", h1))
	require.True(t, p.Verify("samepassword", h2))
}

func TestPasswordPolicy_VerifyWrongPassword(t *testing.T) {
	p := newTestPolicy(t, time.Now())
	h, err := p.Hash("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{
		"wrong-password",
		"Correct-Password",
		"correct-password ",
		"",
		"correct-passwor",
		strings.Repeat("x", 10000),
	} {
		require.False(t, p.Verify(wrong, h), "password %q must not verify", wrong)
	}
}

func TestPasswordPolicy_VerifyRequiresPairedSalt(t *testing.T) {
	p := newTestPolicy(t, time.Now())
	h, err := p.Hash("pw")
	require.NoError(t, err)

	other, err := p.Hash("pw")
	require.NoError(t, err)

	require.False(t, p.Verify("pw", PasswordHash{Hash: h.Hash}), "missing salt")
	require.False(t, p.Verify("pw", PasswordHash{Hash: h.Hash, Salt: other.Salt}), "foreign salt")
}

func TestPasswordPolicy_PepperMatters(t *testing.T) {
	a, err := NewPasswordPolicy(PasswordConfig{SaltLength: 16, ExpiryDays: 1, Pepper: "a"})
	require.NoError(t, err)
	b, err := NewPasswordPolicy(PasswordConfig{SaltLength: 16, ExpiryDays: 1, Pepper: "b"})
	require.NoError(t, err)

	h, err := a.Hash("pw")
	require.NoError(t, err)
	require.True(t, a.Verify("pw", h))
	require.False(t, b.Verify("pw", h))
}

func TestPasswordPolicy_VerifyInvalidHashFormat(t *testing.T) {
	p := newTestPolicy(t, time.Now())

	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, p.Verify("pw", PasswordHash{Hash: tt.hash, Salt: "c2FsdA"}))

			_, err := parsePHC(tt.hash)
			require.ErrorIs(t, err, ErrInvalidHash)
		})
	}
}

func TestPasswordPolicy_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPolicy(t, now)

	require.True(t, p.IsExpired(now.Add(-time.Second)))
	require.False(t, p.IsExpired(now), "expiry equal to now is not yet past")
	require.False(t, p.IsExpired(now.Add(time.Second)))
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]struct{}, 50)
	for range 50 {
		pw, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, pw, 16)
		for _, c := range pw {
			require.Contains(t, Alphanumeric, string(c))
		}
		require.NotContains(t, seen, pw)
		seen[pw] = struct{}{}
	}
}

func TestRandomString_InvalidInput(t *testing.T) {
	_, err := RandomString(0, Alphanumeric)
	require.Error(t, err)

	_, err = RandomString(4, "")
	require.Error(t, err)
}
