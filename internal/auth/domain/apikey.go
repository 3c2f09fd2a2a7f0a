package domain

import "time"

type APIKey struct {
	ID          string
	Name        string
	Description string
	Key         string // Public part, "<env>_" + random
	Hash        string // hex sha256 of "key:secret"
	IsActive    bool
	StartDate   *time.Time // Optional validity window
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InWindow reports whether now falls inside the key's validity window.
// Either bound may be absent.
func (k APIKey) InWindow(now time.Time) bool {
	if k.StartDate != nil && now.Before(*k.StartDate) {
		return false
	}
	if k.EndDate != nil && now.After(*k.EndDate) {
		return false
	}
	return true
}

// Usable combines the active flag with the validity window.
func (k APIKey) Usable(now time.Time) bool {
	return k.IsActive && k.InWindow(now)
}

// APIKeyWithSecret is returned from create and reset only.
type APIKeyWithSecret struct {
	APIKey
	Secret string
}
