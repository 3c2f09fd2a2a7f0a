package service

import (
	"errors"

	"github.com/aussiebroadwan/keystone/pkg/jwtx"
)

// Credential and account errors returned by AuthService.
var (
	ErrCredentialNotFound = errors.New("credential_not_found")
	ErrPasswordMismatch   = errors.New("password_mismatch")
	ErrPasswordUnchanged  = errors.New("password_unchanged")
	ErrPasswordExpired    = errors.New("password_expired")
	ErrAccountInactive    = errors.New("account_inactive")
	ErrRoleInactive       = errors.New("role_inactive")

	// Token failures keep the codec's sentinels so errors.Is works across
	// both packages.
	ErrTokenInvalid = jwtx.ErrTokenInvalid
	ErrTokenExpired = jwtx.ErrTokenExpired
)

// API key authentication errors, in the order they are checked.
var (
	ErrAPIKeyMissing       = errors.New("api_key_missing")
	ErrAPIKeyMalformed     = errors.New("api_key_malformed")
	ErrAPIKeySchemaInvalid = errors.New("api_key_schema_invalid")
	ErrAPIKeyNotFound      = errors.New("api_key_not_found")
	ErrAPIKeyInactive      = errors.New("api_key_inactive")
	ErrAPIKeyInvalid       = errors.New("api_key_invalid")
)

// Administrative errors.
var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidInput = errors.New("invalid_request")
)
