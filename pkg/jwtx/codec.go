package jwtx

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HMAC secret the codec accepts.
const MinSecretLength = 32

var (
	// ErrTokenInvalid covers every verification failure except expiry.
	ErrTokenInvalid = errors.New("jwtx: token invalid")
	ErrTokenExpired = errors.New("jwtx: token expired")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrWrongKind    = errors.New("jwtx: token kind mismatch")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrUnknownKind  = errors.New("jwtx: unknown token kind")
	ErrConfig       = errors.New("jwtx: invalid codec config")
)

// KindConfig holds everything bound to a single token kind.
type KindConfig struct {
	Secret    []byte        // HMAC-SHA256 secret
	TTL       time.Duration // Expiry window from issue time
	NotBefore time.Duration // Offset from issue time before the token is usable
}

// CodecConfig is the value object a Codec is built from.
type CodecConfig struct {
	Issuer  string
	Access  KindConfig
	Refresh KindConfig

	// Session length in days, picked at login by the remember-me flag.
	RememberMeChecked    int
	RememberMeNotChecked int
}

func (c CodecConfig) Validate() error {
	for kind, kc := range map[Kind]KindConfig{KindAccess: c.Access, KindRefresh: c.Refresh} {
		if len(kc.Secret) < MinSecretLength {
			return fmt.Errorf("%w: %s secret shorter than %d bytes", ErrConfig, kind, MinSecretLength)
		}
		if kc.TTL <= 0 {
			return fmt.Errorf("%w: %s ttl must be positive", ErrConfig, kind)
		}
		if kc.NotBefore < 0 || kc.NotBefore >= kc.TTL {
			return fmt.Errorf("%w: %s not-before must be within [0, ttl)", ErrConfig, kind)
		}
	}
	if bytes.Equal(c.Access.Secret, c.Refresh.Secret) {
		return fmt.Errorf("%w: access and refresh secrets must differ", ErrConfig)
	}
	if c.RememberMeChecked <= 0 || c.RememberMeNotChecked <= 0 {
		return fmt.Errorf("%w: remember-me day counts must be positive", ErrConfig)
	}
	return nil
}

// Codec signs and verifies HS256 tokens for the access and refresh kinds.
// It is immutable after construction and safe for concurrent use.
type Codec struct {
	cfg CodecConfig
	now func() time.Time
}

type CodecOption func(*Codec)

// WithClock overrides the codec clock.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

func NewCodec(cfg CodecConfig, opts ...CodecOption) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) kindConfig(kind Kind) (KindConfig, error) {
	switch kind {
	case KindAccess:
		return c.cfg.Access, nil
	case KindRefresh:
		return c.cfg.Refresh, nil
	default:
		return KindConfig{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// TTL returns the configured expiry window for kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	kc, _ := c.kindConfig(kind)
	return kc.TTL
}

// Create signs payload as kind using the kind's configured window.
func (c *Codec) Create(kind Kind, p Payload) (string, error) {
	kc, err := c.kindConfig(kind)
	if err != nil {
		return "", err
	}
	return c.CreateWithWindow(kind, p, kc.TTL, kc.NotBefore)
}

// CreateWithWindow signs payload as kind with exp = now+window and
// nbf = now+notBefore.
func (c *Codec) CreateWithWindow(kind Kind, p Payload, window, notBefore time.Duration) (string, error) {
	kc, err := c.kindConfig(kind)
	if err != nil {
		return "", err
	}
	if p.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidClaim)
	}

	claims := newClaims(kind, p, c.cfg.Issuer, uuid.NewString(), c.now(), window, notBefore)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(kc.Secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature, kind and issuer, then not-before, then expiry.
// Every failure wraps ErrTokenInvalid except expiry, which is
// ErrTokenExpired.
func (c *Codec) Verify(kind Kind, token string) (Payload, error) {
	kc, err := c.kindConfig(kind)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return kc.Secret, nil
	})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Payload{}, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrInvalidClaim)
	}
	if claims.Kind != kind {
		return Payload{}, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrWrongKind)
	}
	if err := claims.ValidateIssuer(c.cfg.Issuer); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return Payload{}, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrInvalidClaim)
	}

	if err := claims.ValidateWindow(c.now()); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return Payload{}, err
		}
		return Payload{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	return claims.Payload(), nil
}

// LoginExpiry returns the absolute session end for a login happening now.
func (c *Codec) LoginExpiry(rememberMe bool) time.Time {
	days := c.cfg.RememberMeNotChecked
	if rememberMe {
		days = c.cfg.RememberMeChecked
	}
	return c.now().AddDate(0, 0, days).UTC()
}

// Now exposes the codec clock so callers compare against the same instant
// source the codec signs with.
func (c *Codec) Now() time.Time { return c.now() }

// Verifier validates a bearer token of one fixed kind.
type Verifier interface {
	Verify(token string) (Payload, error)
}

type kindVerifier struct {
	codec *Codec
	kind  Kind
}

func (v kindVerifier) Verify(token string) (Payload, error) { return v.codec.Verify(v.kind, token) }

// For returns a Verifier bound to kind.
func (c *Codec) For(kind Kind) Verifier {
	return kindVerifier{codec: c, kind: kind}
}
