package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/keystone/pkg/cryptox"
	"github.com/aussiebroadwan/keystone/pkg/jwtx"
)

// InitTokenCodec builds the access/refresh codec from the configuration.
//
// Secret sources:
//   - configured: AUTH_ACCESS_TOKEN_SECRET and AUTH_REFRESH_TOKEN_SECRET are
//     used as given. Tokens survive restarts.
//   - ephemeral: a missing secret is generated on startup and held only in
//     memory. Every issued token becomes invalid when the process restarts.
//     Validate refuses this mode in production.
func InitTokenCodec(cfg Config, logger *slog.Logger) (*jwtx.Codec, error) {
	access, err := tokenSecret("access", cfg.AccessTokenSecret, logger)
	if err != nil {
		return nil, err
	}
	refresh, err := tokenSecret("refresh", cfg.RefreshTokenSecret, logger)
	if err != nil {
		return nil, err
	}

	return jwtx.NewCodec(codecConfig(cfg, access, refresh))
}

func codecConfig(cfg Config, access, refresh []byte) jwtx.CodecConfig {
	return jwtx.CodecConfig{
		Issuer: cfg.Issuer,
		Access: jwtx.KindConfig{
			Secret:    access,
			TTL:       cfg.AccessTokenTTL,
			NotBefore: cfg.AccessTokenNotBefore,
		},
		Refresh: jwtx.KindConfig{
			Secret:    refresh,
			TTL:       cfg.RefreshTokenTTL,
			NotBefore: cfg.RefreshTokenNotBefore,
		},
		RememberMeChecked:    cfg.RememberMeCheckedDays,
		RememberMeNotChecked: cfg.RememberMeNotCheckedDays,
	}
}

func tokenSecret(kind, configured string, logger *slog.Logger) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}

	generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("generate %s token secret: %w", kind, err)
	}
	logger.Warn("using ephemeral token secret, tokens will not survive a restart",
		slog.String("kind", kind),
	)
	return []byte(generated), nil
}

// InitPasswordPolicy loads (or creates) the pepper file and builds the
// password policy.
func InitPasswordPolicy(cfg Config, logger *slog.Logger) (*cryptox.PasswordPolicy, error) {
	pepper, err := cryptox.LoadOrGeneratePepper(cfg.PepperFile)
	if err != nil {
		return nil, err
	}
	logger.Info("password pepper loaded", slog.String("path", cfg.PepperFile))

	return cryptox.NewPasswordPolicy(cryptox.PasswordConfig{
		SaltLength: cfg.PasswordSaltLength,
		ExpiryDays: cfg.PasswordExpiryDays,
		Pepper:     pepper,
	})
}

// sessionSummary is logged at startup so operators can see the effective
// token windows.
func sessionSummary(cfg Config) []any {
	return []any{
		slog.Duration("access_ttl", cfg.AccessTokenTTL),
		slog.Duration("refresh_ttl", cfg.RefreshTokenTTL),
		slog.Duration("remember_me", time.Duration(cfg.RememberMeCheckedDays)*24*time.Hour),
		slog.Duration("session", time.Duration(cfg.RememberMeNotCheckedDays)*24*time.Hour),
	}
}
