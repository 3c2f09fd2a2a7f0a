package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/keystone/internal/auth/service"
	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
	"github.com/samber/oops"
)

// errorMap pairs service sentinels with their wire errors. Order matters
// only for errors that wrap more than one sentinel.
var errorMap = []struct {
	err  error
	wire *authsdk.Error
}{
	{service.ErrCredentialNotFound, authsdk.ErrCredentialNotFound},
	{service.ErrPasswordMismatch, authsdk.ErrPasswordMismatch},
	{service.ErrPasswordUnchanged, authsdk.ErrPasswordUnchanged},
	{service.ErrPasswordExpired, authsdk.ErrPasswordExpired},
	{service.ErrAccountInactive, authsdk.ErrAccountInactive},
	{service.ErrRoleInactive, authsdk.ErrRoleInactive},
	{service.ErrTokenExpired, authsdk.ErrTokenExpired},
	{service.ErrTokenInvalid, authsdk.ErrTokenInvalid},
	{service.ErrAPIKeyMissing, authsdk.ErrAPIKeyMissing},
	{service.ErrAPIKeyMalformed, authsdk.ErrAPIKeyMalformed},
	{service.ErrAPIKeySchemaInvalid, authsdk.ErrAPIKeySchemaInvalid},
	{service.ErrAPIKeyNotFound, authsdk.ErrAPIKeyNotFound},
	{service.ErrAPIKeyInactive, authsdk.ErrAPIKeyInactive},
	{service.ErrAPIKeyInvalid, authsdk.ErrAPIKeyInvalid},
	{service.ErrNotFound, authsdk.ErrNotFound},
	{service.ErrInvalidInput, authsdk.ErrInvalidRequest},
}

// writeError maps err onto its wire error. Anything unknown is logged with
// its oops context and reported as server_error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMap {
		if !errors.Is(err, m.err) {
			continue
		}
		wire := m.wire
		if o, ok := oops.AsOops(err); ok && o.Public() != "" {
			wire = wire.WithDescription(o.Public())
		}
		wire.WriteError(w)
		return
	}

	slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
	authsdk.ErrServerError.WriteError(w)
}

func invalidRequest(w http.ResponseWriter, desc string) {
	authsdk.ErrInvalidRequest.WithDescription(desc).WriteError(w)
}
