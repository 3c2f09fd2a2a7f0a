package domain

// BootstrapData seeds an empty database.
type BootstrapData struct {
	AdminEmail       string
	AdminDisplayName string
	AdminPassword    string
	Permissions      []Permission
	Roles            []RoleDefinition
}

type RoleDefinition struct {
	Name        string
	Permissions []string
}

// Permission codes guarding the API-key administration endpoints.
const (
	PermAPIKeyRead     = "api_key:read"
	PermAPIKeyCreate   = "api_key:create"
	PermAPIKeyUpdate   = "api_key:update"
	PermAPIKeyReset    = "api_key:reset"
	PermAPIKeyActive   = "api_key:active"
	PermAPIKeyInactive = "api_key:inactive"
	PermAPIKeyDelete   = "api_key:delete"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultPermissions is the catalogue created on first start.
func DefaultPermissions() []Permission {
	return []Permission{
		{Code: PermAPIKeyRead, Description: "List and view API keys", IsActive: true},
		{Code: PermAPIKeyCreate, Description: "Create API keys", IsActive: true},
		{Code: PermAPIKeyUpdate, Description: "Edit API keys", IsActive: true},
		{Code: PermAPIKeyReset, Description: "Rotate API key secrets", IsActive: true},
		{Code: PermAPIKeyActive, Description: "Activate API keys", IsActive: true},
		{Code: PermAPIKeyInactive, Description: "Deactivate API keys", IsActive: true},
		{Code: PermAPIKeyDelete, Description: "Delete API keys", IsActive: true},
	}
}

// DefaultRoles grants admin the whole catalogue and user nothing.
func DefaultRoles() []RoleDefinition {
	perms := DefaultPermissions()
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = p.Code
	}
	return []RoleDefinition{
		{Name: RoleAdmin, Permissions: codes},
		{Name: RoleUser, Permissions: nil},
	}
}
