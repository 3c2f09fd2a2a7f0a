package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it
// and expose sub-repositories so transactional work goes through Tx and
// never nests.
type Store interface {
	Users() Users
	Roles() Roles
	APIKeys() APIKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used by login. Email matching is case-insensitive.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePassword replaces hash, salt and expiry together and bumps
	// updated_at.
	UpdatePassword(ctx context.Context, userID, hash, salt string, expiry time.Time) error

	SetActive(ctx context.Context, userID string, active bool) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetRoleByID returns the role with the codes of its active
	// permissions.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	CreateRole(ctx context.Context, r domain.Role) error

	SetActive(ctx context.Context, roleID string, active bool) error

	// CreatePermission inserts a permission into the catalogue.
	CreatePermission(ctx context.Context, p domain.Permission) error

	SetPermissionActive(ctx context.Context, code string, active bool) error

	// GrantPermission links an existing permission code to a role.
	GrantPermission(ctx context.Context, roleID, code string) error

	IsEmpty(ctx context.Context) (bool, error)
}

type APIKeys interface {
	CreateAPIKey(ctx context.Context, k domain.APIKey) error

	GetAPIKeyByID(ctx context.Context, id string) (domain.APIKey, error)

	// GetAPIKeyByKey is the lookup behind every machine-caller request.
	GetAPIKeyByKey(ctx context.Context, key string) (domain.APIKey, error)

	// ListAPIKeys returns every key, newest first.
	ListAPIKeys(ctx context.Context) ([]domain.APIKey, error)

	UpdateAPIKeyHash(ctx context.Context, id, hash string) error
	UpdateAPIKeyName(ctx context.Context, id, name, description string) error
	SetAPIKeyActive(ctx context.Context, id string, active bool) error
	UpdateAPIKeyDates(ctx context.Context, id string, start, end *time.Time) error

	DeleteAPIKey(ctx context.Context, id string) error

	// DeactivateLapsedAPIKeys clears the active flag on keys whose end
	// date is before now and reports how many rows changed.
	DeactivateLapsedAPIKeys(ctx context.Context, now time.Time) (int64, error)
}
