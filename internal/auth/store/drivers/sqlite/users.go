package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
)

type usersRepo struct {
	q   dbtx
	now func() time.Time
}

const userColumns = `id, email, display_name, password_hash, salt, password_expiry, is_active, role_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                            domain.User
		expiry, createdAt, updatedAt int64
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Salt,
		&expiry, &u.IsActive, &u.RoleID, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.PasswordExpiry = fromMillis(expiry)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := toMillis(r.now())
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.DisplayName,
		u.PasswordHash,
		u.Salt,
		toMillis(u.PasswordExpiry),
		boolToInt(u.IsActive),
		u.RoleID,
		now,
		now,
	)
	return mapWriteError(err)
}

func (r *usersRepo) UpdatePassword(ctx context.Context, userID, hash, salt string, expiry time.Time) error {
	return expectAffected(r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, salt = ?, password_expiry = ?, updated_at = ? WHERE id = ?`,
		hash, salt, toMillis(expiry), toMillis(r.now()), userID,
	))
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	return expectAffected(r.q.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), toMillis(r.now()), userID,
	))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
