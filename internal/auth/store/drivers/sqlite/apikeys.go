package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
)

type apiKeysRepo struct {
	q   dbtx
	now func() time.Time
}

const apiKeyColumns = `id, name, description, key, hash, is_active, start_date, end_date, created_at, updated_at`

func scanAPIKey(row rowScanner) (domain.APIKey, error) {
	var (
		k                    domain.APIKey
		start, end           sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&k.ID, &k.Name, &k.Description, &k.Key, &k.Hash, &k.IsActive,
		&start, &end, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.APIKey{}, mapNotFound(err)
	}
	k.StartDate = fromNullMillis(start)
	k.EndDate = fromNullMillis(end)
	k.CreatedAt = fromMillis(createdAt)
	k.UpdatedAt = fromMillis(updatedAt)
	return k, nil
}

func (r *apiKeysRepo) CreateAPIKey(ctx context.Context, k domain.APIKey) error {
	now := toMillis(r.now())
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO api_keys (`+apiKeyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		k.ID,
		k.Name,
		k.Description,
		k.Key,
		k.Hash,
		boolToInt(k.IsActive),
		toNullMillis(k.StartDate),
		toNullMillis(k.EndDate),
		now,
		now,
	)
	return mapWriteError(err)
}

func (r *apiKeysRepo) GetAPIKeyByID(ctx context.Context, id string) (domain.APIKey, error) {
	return scanAPIKey(r.q.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id))
}

func (r *apiKeysRepo) GetAPIKeyByKey(ctx context.Context, key string) (domain.APIKey, error) {
	return scanAPIKey(r.q.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key = ?`, key))
}

func (r *apiKeysRepo) ListAPIKeys(ctx context.Context) ([]domain.APIKey, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []domain.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *apiKeysRepo) UpdateAPIKeyHash(ctx context.Context, id, hash string) error {
	return expectAffected(r.q.ExecContext(ctx,
		`UPDATE api_keys SET hash = ?, updated_at = ? WHERE id = ?`,
		hash, toMillis(r.now()), id,
	))
}

func (r *apiKeysRepo) UpdateAPIKeyName(ctx context.Context, id, name, description string) error {
	return expectAffected(r.q.ExecContext(ctx,
		`UPDATE api_keys SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		name, description, toMillis(r.now()), id,
	))
}

func (r *apiKeysRepo) SetAPIKeyActive(ctx context.Context, id string, active bool) error {
	return expectAffected(r.q.ExecContext(ctx,
		`UPDATE api_keys SET is_active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), toMillis(r.now()), id,
	))
}

func (r *apiKeysRepo) UpdateAPIKeyDates(ctx context.Context, id string, start, end *time.Time) error {
	return expectAffected(r.q.ExecContext(ctx,
		`UPDATE api_keys SET start_date = ?, end_date = ?, updated_at = ? WHERE id = ?`,
		toNullMillis(start), toNullMillis(end), toMillis(r.now()), id,
	))
}

func (r *apiKeysRepo) DeleteAPIKey(ctx context.Context, id string) error {
	return expectAffected(r.q.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id))
}

func (r *apiKeysRepo) DeactivateLapsedAPIKeys(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE api_keys SET is_active = 0, updated_at = ?
		 WHERE is_active = 1 AND end_date IS NOT NULL AND end_date < ?`,
		toMillis(r.now()), toMillis(now),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
