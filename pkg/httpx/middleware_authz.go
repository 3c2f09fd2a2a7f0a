package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/keystone/pkg/authz"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
)

// RequirePermissions denies the request unless the permission snapshot in
// the context holds every listed code. It must run after the snapshot has
// been resolved; a missing snapshot denies.
func RequirePermissions(required ...string) Middleware {
	required = append([]string(nil), required...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := PermissionsFromContext(r.Context())
			if authz.Authorize(required, have) {
				next.ServeHTTP(w, r)
				return
			}

			slogx.FromContext(r.Context()).Info("permission denied",
				"missing", authz.Missing(required, have),
			)
			writePermissionError(w, required)
		})
	}
}

func writePermissionError(w http.ResponseWriter, required []string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteJSON(w, http.StatusForbidden, map[string]string{
		"error":             CodePermissionDenied,
		"error_description": "missing required permissions",
	})
}
