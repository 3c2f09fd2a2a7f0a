package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Modes accepted by APP_MODE. Anything other than insecure checks the
// X-API-Key header.
const (
	ModeSecure   = "secure"
	ModeInsecure = "insecure"
)

// EnvProduction refuses to start without explicit token secrets.
const EnvProduction = "production"

var ErrConfig = errors.New("invalid configuration")

type Config struct {
	Env  string `env:"APP_ENV"  envDefault:"development"` // Also the API key prefix
	Mode string `env:"APP_MODE" envDefault:"secure"`      // secure or insecure
	Port int    `env:"PORT"     envDefault:"8080"`

	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	PepperFile   string `env:"AUTH_PEPPER_FILE"   envDefault:"pepper"`

	Issuer string `env:"AUTH_ISSUER" envDefault:"keystone"`

	// Secrets left empty are generated per process outside production.
	AccessTokenSecret        string        `env:"AUTH_ACCESS_TOKEN_SECRET"`
	AccessTokenTTL           time.Duration `env:"AUTH_ACCESS_TOKEN_TTL"            envDefault:"30m"`
	AccessTokenNotBefore     time.Duration `env:"AUTH_ACCESS_TOKEN_NOT_BEFORE"     envDefault:"0s"`
	RefreshTokenSecret       string        `env:"AUTH_REFRESH_TOKEN_SECRET"`
	RefreshTokenTTL          time.Duration `env:"AUTH_REFRESH_TOKEN_TTL"           envDefault:"168h"`
	RefreshTokenNotBefore    time.Duration `env:"AUTH_REFRESH_TOKEN_NOT_BEFORE"    envDefault:"30m"`
	RememberMeCheckedDays    int           `env:"AUTH_REMEMBER_ME_CHECKED_DAYS"     envDefault:"30"`
	RememberMeNotCheckedDays int           `env:"AUTH_REMEMBER_ME_NOT_CHECKED_DAYS" envDefault:"1"`

	PasswordSaltLength int `env:"AUTH_PASSWORD_SALT_LENGTH" envDefault:"16"`
	PasswordExpiryDays int `env:"AUTH_PASSWORD_EXPIRY_DAYS" envDefault:"182"`

	// Bootstrap only runs against an empty database. A missing password is
	// generated and logged once.
	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminName     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrator"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`

	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig parses the environment and validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Secure reports whether machine callers must present an API key.
func (c Config) Secure() bool {
	return c.Mode != ModeInsecure
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Env) == "" || strings.ContainsAny(c.Env, "_: ") {
		errs = append(errs, fmt.Errorf("%w: APP_ENV must be a non-empty word", ErrConfig))
	}
	if c.Mode != ModeSecure && c.Mode != ModeInsecure {
		errs = append(errs, fmt.Errorf("%w: APP_MODE must be %q or %q", ErrConfig, ModeSecure, ModeInsecure))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: PORT out of range", ErrConfig))
	}
	if c.Issuer == "" {
		errs = append(errs, fmt.Errorf("%w: AUTH_ISSUER is required", ErrConfig))
	}
	if c.Env == EnvProduction && (c.AccessTokenSecret == "" || c.RefreshTokenSecret == "") {
		errs = append(errs, fmt.Errorf("%w: token secrets are required in production", ErrConfig))
	}
	if c.PasswordExpiryDays <= 0 {
		errs = append(errs, fmt.Errorf("%w: AUTH_PASSWORD_EXPIRY_DAYS must be positive", ErrConfig))
	}
	if c.ShutdownGracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("%w: SHUTDOWN_GRACE_PERIOD must be positive", ErrConfig))
	}

	return errors.Join(errs...)
}
