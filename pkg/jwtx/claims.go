package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind partitions tokens into independent signing domains.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

func (k Kind) String() string { return string(k) }

// RoleClaim is the role snapshot carried by access tokens.
type RoleClaim struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

// Payload is the data a token vouches for. Refresh tokens never carry
// Role, the codec strips it on creation.
type Payload struct {
	Subject        string
	Role           *RoleClaim
	RememberMe     bool
	LoginDate      time.Time
	LoginExpiry    time.Time
	PasswordExpiry time.Time
}

// Claims is the wire form of a Payload.
type Claims struct {
	jwt.RegisteredClaims

	// Token kind, checked on verify so a token signed for one kind is
	// rejected by the other even if secrets were ever shared.
	Kind Kind `json:"knd"`

	Role           *RoleClaim       `json:"role,omitempty"`
	RememberMe     bool             `json:"rme"`
	LoginDate      *jwt.NumericDate `json:"ldt,omitempty"`
	LoginExpiry    *jwt.NumericDate `json:"lex,omitempty"`
	PasswordExpiry *jwt.NumericDate `json:"pex,omitempty"`
}

func newClaims(kind Kind, p Payload, issuer, jti string, now time.Time, window, notBefore time.Duration) Claims {
	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(notBefore)),
			ExpiresAt: jwt.NewNumericDate(now.Add(window)),
			ID:        jti,
		},
		Kind:           kind,
		RememberMe:     p.RememberMe,
		LoginDate:      numericDate(p.LoginDate),
		LoginExpiry:    numericDate(p.LoginExpiry),
		PasswordExpiry: numericDate(p.PasswordExpiry),
	}
	if kind == KindAccess {
		c.Role = p.Role
	}
	return c
}

// Payload converts claims back to the payload they were built from. Times
// come back in UTC at second precision.
func (c *Claims) Payload() Payload {
	return Payload{
		Subject:        c.Subject,
		Role:           c.Role,
		RememberMe:     c.RememberMe,
		LoginDate:      timeOf(c.LoginDate),
		LoginExpiry:    timeOf(c.LoginExpiry),
		PasswordExpiry: timeOf(c.PasswordExpiry),
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateWindow checks nbf before exp, at the given instant.
func (c *Claims) ValidateWindow(now time.Time) error {
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if now.After(c.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}

func numericDate(t time.Time) *jwt.NumericDate {
	if t.IsZero() {
		return nil
	}
	return jwt.NewNumericDate(t)
}

func timeOf(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.UTC()
}
