package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/aussiebroadwan/keystone/internal/auth/store"
	"github.com/aussiebroadwan/keystone/pkg/cryptox"
	"github.com/aussiebroadwan/keystone/pkg/idx"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
	"github.com/samber/oops"
)

var (
	ErrBootstrapAlready    = errors.New("system already bootstrapped")
	ErrBootstrapNoAdmin    = errors.New("bootstrap must define the admin role")
	ErrBootstrapInvalidReq = errors.New("bootstrap requires an admin email")
)

type BootstrapService struct {
	Store     store.Store
	Passwords *cryptox.PasswordPolicy
}

// BootstrapResult reports what was seeded. GeneratedPassword is only set
// when the request carried no admin password.
type BootstrapResult struct {
	AdminUserID       string
	GeneratedPassword string
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, oops.Code("STORE_FAILED").With("operation", "check users empty").Wrap(err)
	}
	return !empty, nil
}

// Bootstrap seeds the permission catalogue, the roles and the admin user of
// an empty database in one transaction.
func (s *BootstrapService) Bootstrap(ctx context.Context, req domain.BootstrapData) (*BootstrapResult, error) {
	l := slogx.FromContext(ctx)

	// 1. Check if already bootstrapped
	bootstrapped, err := s.IsBootstrapped(ctx)
	if err != nil {
		return nil, err
	}
	if bootstrapped {
		return nil, ErrBootstrapAlready
	}
	if strings.TrimSpace(req.AdminEmail) == "" {
		return nil, ErrBootstrapInvalidReq
	}

	// 2. Hash the admin password, generating one when none was configured
	res := &BootstrapResult{AdminUserID: idx.New().String()}
	password := req.AdminPassword
	if password == "" {
		if password, err = cryptox.GeneratePassword(); err != nil {
			return nil, oops.Code("AUTH_PASSWORD_GENERATION_FAILED").Wrap(err)
		}
		res.GeneratedPassword = password
	}
	hashed, err := s.Passwords.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	// 3. Create permissions, roles and admin user in a transaction
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Permission catalogue
		for _, p := range req.Permissions {
			if err := tx.Roles().CreatePermission(ctx, p); err != nil {
				return oops.Code("BOOTSTRAP_FAILED").With("permission", p.Code).Wrap(err)
			}
		}

		// 2. Roles (users depend on roles)
		roleIDs := make(map[string]string, len(req.Roles))
		for _, def := range req.Roles {
			role := domain.Role{
				ID:          idx.New().String(),
				Name:        def.Name,
				IsActive:    true,
				Permissions: def.Permissions,
			}
			if err := tx.Roles().CreateRole(ctx, role); err != nil {
				return oops.Code("BOOTSTRAP_FAILED").With("role", def.Name).Wrap(err)
			}
			roleIDs[def.Name] = role.ID
		}

		adminRoleID, ok := roleIDs[domain.RoleAdmin]
		if !ok {
			return ErrBootstrapNoAdmin
		}

		// 3. Admin user
		err := tx.Users().CreateUser(ctx, domain.User{
			ID:             res.AdminUserID,
			Email:          req.AdminEmail,
			DisplayName:    req.AdminDisplayName,
			PasswordHash:   hashed.Hash,
			Salt:           hashed.Salt,
			PasswordExpiry: hashed.Expiry,
			IsActive:       true,
			RoleID:         adminRoleID,
		})
		if err != nil {
			return oops.Code("BOOTSTRAP_FAILED").With("admin_user_id", res.AdminUserID).Wrap(err)
		}
		return nil
	})
	if err != nil {
		l.Error("bootstrap failed", slog.Any("error", err))
		return nil, err
	}

	l.Info("successfully bootstrapped system",
		slog.String("admin_user_id", res.AdminUserID),
		slog.Int("roles", len(req.Roles)),
		slog.Int("permissions", len(req.Permissions)),
	)
	return res, nil
}
