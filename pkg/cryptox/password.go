package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing them only affects new hashes, the encoded
// PHC string carries the values used for each stored hash.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the derived key

	// MinSaltLength is the smallest salt we accept from configuration.
	MinSaltLength = 8
)

var (
	ErrInvalidPasswordConfig = errors.New("cryptox: invalid password config")
	ErrInvalidHash           = errors.New("cryptox: invalid hash format")
)

// PasswordConfig is the value object the password policy is built from.
type PasswordConfig struct {
	SaltLength int    // Random salt length in bytes
	ExpiryDays int    // Days until a freshly set password expires
	Pepper     string // Server-side secret appended before hashing
}

// PasswordHash is what gets persisted for a credential. Salt is the
// base64 encoding of the salt embedded in Hash and must travel with it.
type PasswordHash struct {
	Hash   string
	Salt   string
	Expiry time.Time
}

// PasswordPolicy hashes, verifies and ages passwords. It holds no mutable
// state and is safe for concurrent use.
type PasswordPolicy struct {
	cfg PasswordConfig
	now func() time.Time
}

type PasswordOption func(*PasswordPolicy)

// WithPasswordClock overrides the clock used for expiry, mostly for tests.
func WithPasswordClock(now func() time.Time) PasswordOption {
	return func(p *PasswordPolicy) { p.now = now }
}

func NewPasswordPolicy(cfg PasswordConfig, opts ...PasswordOption) (*PasswordPolicy, error) {
	if cfg.SaltLength < MinSaltLength {
		return nil, fmt.Errorf("%w: salt length %d below %d", ErrInvalidPasswordConfig, cfg.SaltLength, MinSaltLength)
	}
	if cfg.ExpiryDays <= 0 {
		return nil, fmt.Errorf("%w: expiry days must be positive", ErrInvalidPasswordConfig)
	}

	p := &PasswordPolicy{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Hash derives an Argon2id hash with a fresh salt and stamps the expiry.
func (p *PasswordPolicy) Hash(password string) (PasswordHash, error) {
	salt := make([]byte, p.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return PasswordHash{}, fmt.Errorf("cryptox: read salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password+p.cfg.Pepper), salt, iterations, memory, parallelism, keyLength)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return PasswordHash{
		Hash: fmt.Sprintf(
			"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
			memory,
			iterations,
			parallelism,
			b64Salt,
			b64Hash,
		),
		Salt:   b64Salt,
		Expiry: p.ExpiryFrom(p.now()),
	}, nil
}

// Verify reports whether password matches the stored hash. A hash whose
// embedded salt does not match the paired salt never verifies.
func (p *PasswordPolicy) Verify(password string, stored PasswordHash) bool {
	params, err := parsePHC(stored.Hash)
	if err != nil || stored.Salt == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(params.b64Salt), []byte(stored.Salt)) != 1 {
		return false
	}

	computed := argon2.IDKey(
		[]byte(password+p.cfg.Pepper),
		params.salt,
		params.iterations,
		params.memory,
		params.parallelism,
		uint32(len(params.hash)), // #nosec G115 - hash length is bounded by the encoder
	)
	return subtle.ConstantTimeCompare(computed, params.hash) == 1
}

// IsExpired reports whether expiry lies in the past.
func (p *PasswordPolicy) IsExpired(expiry time.Time) bool {
	return p.now().After(expiry)
}

// ExpiryFrom returns t plus the configured password lifetime.
func (p *PasswordPolicy) ExpiryFrom(t time.Time) time.Time {
	return t.AddDate(0, 0, p.cfg.ExpiryDays)
}

type phcParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	b64Salt     string
	salt        []byte
	hash        []byte
}

// parsePHC splits $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func parsePHC(encoded string) (phcParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return phcParams{}, fmt.Errorf("%w: expected 6 parts", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return phcParams{}, fmt.Errorf("%w: not argon2id", ErrInvalidHash)
	}
	if parts[2] != "v=19" {
		return phcParams{}, fmt.Errorf("%w: wrong version", ErrInvalidHash)
	}

	var out phcParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.memory, &out.iterations, &out.parallelism); err != nil {
		return phcParams{}, fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}

	var err error
	out.b64Salt = parts[4]
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(out.salt) == 0 {
		return phcParams{}, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	if out.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.hash) == 0 {
		return phcParams{}, fmt.Errorf("%w: hash", ErrInvalidHash)
	}
	return out, nil
}

// GeneratePassword returns a random 16 character alphanumeric password,
// used for seeded accounts when no password is configured.
func GeneratePassword() (string, error) {
	return RandomString(16, Alphanumeric)
}

// RandomString draws length characters uniformly from charset.
func RandomString(length int, charset string) (string, error) {
	if length <= 0 || charset == "" {
		return "", fmt.Errorf("cryptox: invalid random string request (length=%d)", length)
	}

	out := make([]byte, length)
	limit := big.NewInt(int64(len(charset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("cryptox: random string: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
