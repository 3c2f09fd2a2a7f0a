package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
)

type rolesRepo struct {
	q   dbtx
	now func() time.Time
}

func (r *rolesRepo) getRole(ctx context.Context, where string, arg any) (domain.Role, error) {
	var (
		role                 domain.Role
		createdAt, updatedAt int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM roles WHERE `+where+` = ?`, arg,
	).Scan(&role.ID, &role.Name, &role.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	role.CreatedAt = fromMillis(createdAt)
	role.UpdatedAt = fromMillis(updatedAt)

	perms, err := r.activePermissions(ctx, role.ID)
	if err != nil {
		return domain.Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

func (r *rolesRepo) activePermissions(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT p.code
		FROM role_permissions rp
		JOIN permissions p ON p.code = rp.permission_code
		WHERE rp.role_id = ? AND p.is_active = 1
		ORDER BY p.code`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	return r.getRole(ctx, "id", id)
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	return r.getRole(ctx, "name", name)
}

// CreateRole inserts the role and grants its listed permissions.
func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	now := toMillis(r.now())
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO roles (id, name, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		role.ID, role.Name, boolToInt(role.IsActive), now, now,
	)
	if err != nil {
		return mapWriteError(err)
	}

	for _, code := range role.Permissions {
		if err := r.GrantPermission(ctx, role.ID, code); err != nil {
			return err
		}
	}
	return nil
}

func (r *rolesRepo) SetActive(ctx context.Context, roleID string, active bool) error {
	return expectAffected(r.q.ExecContext(ctx,
		`UPDATE roles SET is_active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), toMillis(r.now()), roleID,
	))
}

func (r *rolesRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	now := toMillis(r.now())
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO permissions (code, description, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.Code, p.Description, boolToInt(p.IsActive), now, now,
	)
	return mapWriteError(err)
}

func (r *rolesRepo) SetPermissionActive(ctx context.Context, code string, active bool) error {
	return expectAffected(r.q.ExecContext(ctx,
		`UPDATE permissions SET is_active = ?, updated_at = ? WHERE code = ?`,
		boolToInt(active), toMillis(r.now()), code,
	))
}

func (r *rolesRepo) GrantPermission(ctx context.Context, roleID, code string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO role_permissions (role_id, permission_code) VALUES (?, ?)`,
		roleID, code,
	)
	return mapWriteError(err)
}

func (r *rolesRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
