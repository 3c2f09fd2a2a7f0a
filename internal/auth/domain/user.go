package domain

import (
	"time"

	"github.com/aussiebroadwan/keystone/pkg/cryptox"
)

type User struct {
	ID             string
	Email          string // Login identifier, stored lower-cased
	DisplayName    string
	PasswordHash   string // argon2id PHC string
	Salt           string // base64 salt paired with PasswordHash
	PasswordExpiry time.Time
	IsActive       bool
	RoleID         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Password returns the stored hash and salt as the pair the password
// policy verifies against.
func (u User) Password() cryptox.PasswordHash {
	return cryptox.PasswordHash{
		Hash:   u.PasswordHash,
		Salt:   u.Salt,
		Expiry: u.PasswordExpiry,
	}
}
