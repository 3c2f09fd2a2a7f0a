package service

import (
	"testing"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/aussiebroadwan/keystone/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	t.Parallel()

	t.Run("runs once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		boot := &BootstrapService{Store: f.store, Passwords: f.passwords}
		done, err := boot.IsBootstrapped(t.Context())
		require.NoError(t, err)
		require.True(t, done)

		_, err = boot.Bootstrap(t.Context(), domain.BootstrapData{
			AdminEmail: "again@example.com",
			Roles:      domain.DefaultRoles(),
		})
		require.ErrorIs(t, err, ErrBootstrapAlready)
	})

	t.Run("generates a password when none is given", func(t *testing.T) {
		t.Parallel()
		st, err := sqlite.NewStore(":memory:")
		require.NoError(t, err)
		require.NoError(t, st.ApplyMigrations())
		t.Cleanup(func() { _ = st.Close() })

		f := newFixture(t)
		boot := &BootstrapService{Store: st, Passwords: f.passwords}
		res, err := boot.Bootstrap(t.Context(), domain.BootstrapData{
			AdminEmail:  "root@example.com",
			Permissions: domain.DefaultPermissions(),
			Roles:       domain.DefaultRoles(),
		})
		require.NoError(t, err)
		require.Len(t, res.GeneratedPassword, 16)

		auth := &AuthService{Store: st, Passwords: f.passwords, Tokens: f.codec}
		_, err = auth.Login(t.Context(), "root@example.com", res.GeneratedPassword, false)
		require.NoError(t, err)
	})

	t.Run("rolls back without an admin role", func(t *testing.T) {
		t.Parallel()
		st, err := sqlite.NewStore(":memory:")
		require.NoError(t, err)
		require.NoError(t, st.ApplyMigrations())
		t.Cleanup(func() { _ = st.Close() })

		f := newFixture(t)
		boot := &BootstrapService{Store: st, Passwords: f.passwords}
		_, err = boot.Bootstrap(t.Context(), domain.BootstrapData{
			AdminEmail:    "root@example.com",
			AdminPassword: "whatever-password",
			Permissions:   domain.DefaultPermissions(),
			Roles:         []domain.RoleDefinition{{Name: domain.RoleUser}},
		})
		require.ErrorIs(t, err, ErrBootstrapNoAdmin)

		empty, err := st.Roles().IsEmpty(t.Context())
		require.NoError(t, err)
		require.True(t, empty)
	})

	t.Run("requires an admin email", func(t *testing.T) {
		t.Parallel()
		st, err := sqlite.NewStore(":memory:")
		require.NoError(t, err)
		require.NoError(t, st.ApplyMigrations())
		t.Cleanup(func() { _ = st.Close() })

		boot := &BootstrapService{Store: st}
		_, err = boot.Bootstrap(t.Context(), domain.BootstrapData{Roles: domain.DefaultRoles()})
		require.ErrorIs(t, err, ErrBootstrapInvalidReq)
	})
}
