package domain

import (
	"time"

	"github.com/aussiebroadwan/keystone/pkg/authz"
	"github.com/aussiebroadwan/keystone/pkg/jwtx"
)

type Role struct {
	ID          string
	Name        string
	IsActive    bool
	Permissions []string // Codes of the role's active permissions
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionSet is the snapshot handed to the authorizer.
func (r Role) PermissionSet() authz.Set {
	return authz.NewSet(r.Permissions...)
}

// Claim is the role as embedded in an access token.
func (r Role) Claim() *jwtx.RoleClaim {
	return &jwtx.RoleClaim{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: append([]string(nil), r.Permissions...),
	}
}

type Permission struct {
	Code        string
	Description string
	IsActive    bool
}
