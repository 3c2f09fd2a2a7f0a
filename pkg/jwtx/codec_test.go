package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/keystone/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() jwtx.CodecConfig {
	return jwtx.CodecConfig{
		Issuer: "keystone-test",
		Access: jwtx.KindConfig{
			Secret: []byte(strings.Repeat("a", 32)),
			TTL:    30 * time.Minute,
		},
		Refresh: jwtx.KindConfig{
			Secret:    []byte(strings.Repeat("r", 32)),
			TTL:       7 * 24 * time.Hour,
			NotBefore: 30 * time.Minute,
		},
		RememberMeChecked:    30,
		RememberMeNotChecked: 1,
	}
}

func newCodec(t *testing.T) (*jwtx.Codec, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)}
	c, err := jwtx.NewCodec(testConfig(), jwtx.WithClock(clk.Now))
	require.NoError(t, err)
	return c, clk
}

func samplePayload(now time.Time) jwtx.Payload {
	return jwtx.Payload{
		Subject:        "01JUSER",
		Role:           &jwtx.RoleClaim{ID: "01JROLE", Name: "admin", Permissions: []string{"api_key:read"}},
		RememberMe:     true,
		LoginDate:      now,
		LoginExpiry:    now.AddDate(0, 0, 30),
		PasswordExpiry: now.AddDate(0, 0, 182),
	}
}

func TestCodecConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*jwtx.CodecConfig)
	}{
		{"short access secret", func(c *jwtx.CodecConfig) { c.Access.Secret = []byte("short") }},
		{"missing refresh secret", func(c *jwtx.CodecConfig) { c.Refresh.Secret = nil }},
		{"shared secret", func(c *jwtx.CodecConfig) { c.Refresh.Secret = c.Access.Secret }},
		{"zero ttl", func(c *jwtx.CodecConfig) { c.Access.TTL = 0 }},
		{"not-before past ttl", func(c *jwtx.CodecConfig) { c.Refresh.NotBefore = c.Refresh.TTL }},
		{"negative not-before", func(c *jwtx.CodecConfig) { c.Access.NotBefore = -time.Second }},
		{"zero remember-me days", func(c *jwtx.CodecConfig) { c.RememberMeNotChecked = 0 }},
	}

	require.NoError(t, testConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := jwtx.NewCodec(cfg)
			require.ErrorIs(t, err, jwtx.ErrConfig)
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c, clk := newCodec(t)
	p := samplePayload(clk.Now())

	t.Run("access", func(t *testing.T) {
		tok, err := c.Create(jwtx.KindAccess, p)
		require.NoError(t, err)

		got, err := c.Verify(jwtx.KindAccess, tok)
		require.NoError(t, err)
		require.Equal(t, p, got)
	})

	t.Run("refresh drops role", func(t *testing.T) {
		tok, err := c.Create(jwtx.KindRefresh, p)
		require.NoError(t, err)

		clk.Advance(31 * time.Minute)
		defer clk.Advance(-31 * time.Minute)

		got, err := c.Verify(jwtx.KindRefresh, tok)
		require.NoError(t, err)
		require.Nil(t, got.Role)
		require.Equal(t, p.Subject, got.Subject)
		require.Equal(t, p.RememberMe, got.RememberMe)
		require.Equal(t, p.LoginDate, got.LoginDate)
		require.Equal(t, p.LoginExpiry, got.LoginExpiry)
		require.Equal(t, p.PasswordExpiry, got.PasswordExpiry)
	})
}

func TestCodec_Expiry(t *testing.T) {
	c, clk := newCodec(t)
	tok, err := c.CreateWithWindow(jwtx.KindAccess, samplePayload(clk.Now()), time.Minute, 0)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, err = c.Verify(jwtx.KindAccess, tok)
	require.NoError(t, err, "valid up to and including exp")

	clk.Advance(time.Second)
	_, err = c.Verify(jwtx.KindAccess, tok)
	require.ErrorIs(t, err, jwtx.ErrTokenExpired)
	require.NotErrorIs(t, err, jwtx.ErrTokenInvalid)
}

func TestCodec_NotBefore(t *testing.T) {
	c, clk := newCodec(t)
	tok, err := c.Create(jwtx.KindRefresh, samplePayload(clk.Now()))
	require.NoError(t, err)

	_, err = c.Verify(jwtx.KindRefresh, tok)
	require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	require.ErrorIs(t, err, jwtx.ErrNotYetValid)

	clk.Advance(30 * time.Minute)
	_, err = c.Verify(jwtx.KindRefresh, tok)
	require.NoError(t, err)
}

func TestCodec_KindsAreNotInterchangeable(t *testing.T) {
	c, clk := newCodec(t)
	p := samplePayload(clk.Now())

	access, err := c.Create(jwtx.KindAccess, p)
	require.NoError(t, err)
	refresh, err := c.CreateWithWindow(jwtx.KindRefresh, p, time.Hour, 0)
	require.NoError(t, err)

	_, err = c.Verify(jwtx.KindRefresh, access)
	require.ErrorIs(t, err, jwtx.ErrTokenInvalid)

	_, err = c.Verify(jwtx.KindAccess, refresh)
	require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
}

func TestCodec_KindClaimCheckedEvenWithSharedSecret(t *testing.T) {
	c, clk := newCodec(t)
	cfg := testConfig()

	// A refresh-kind token signed with the access secret.
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "01JUSER",
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
		Kind: jwtx.KindRefresh,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Access.Secret)
	require.NoError(t, err)

	_, err = c.Verify(jwtx.KindAccess, forged)
	require.ErrorIs(t, err, jwtx.ErrWrongKind)
}

func TestCodec_RejectsTampering(t *testing.T) {
	c, clk := newCodec(t)
	tok, err := c.Create(jwtx.KindAccess, samplePayload(clk.Now()))
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"swapped signature", parts[0] + "." + parts[1] + ".AAAA"},
		{"none alg", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." + parts[1] + "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Verify(jwtx.KindAccess, tt.token)
			require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
		})
	}
}

func TestCodec_RejectsOtherIssuer(t *testing.T) {
	c, clk := newCodec(t)

	cfg := testConfig()
	cfg.Issuer = "someone-else"
	other, err := jwtx.NewCodec(cfg, jwtx.WithClock(clk.Now))
	require.NoError(t, err)

	tok, err := other.Create(jwtx.KindAccess, samplePayload(clk.Now()))
	require.NoError(t, err)

	_, err = c.Verify(jwtx.KindAccess, tok)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestCodec_EmptySubject(t *testing.T) {
	c, _ := newCodec(t)
	_, err := c.Create(jwtx.KindAccess, jwtx.Payload{})
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

func TestCodec_LoginExpiry(t *testing.T) {
	c, clk := newCodec(t)

	remembered := c.LoginExpiry(true)
	notRemembered := c.LoginExpiry(false)

	require.True(t, remembered.After(notRemembered))
	require.Equal(t, clk.Now().AddDate(0, 0, 30), remembered)
	require.Equal(t, clk.Now().AddDate(0, 0, 1), notRemembered)
}

func TestCodec_For(t *testing.T) {
	c, clk := newCodec(t)
	tok, err := c.Create(jwtx.KindAccess, samplePayload(clk.Now()))
	require.NoError(t, err)

	got, err := c.For(jwtx.KindAccess).Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "01JUSER", got.Subject)

	_, err = c.For(jwtx.KindRefresh).Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
}
