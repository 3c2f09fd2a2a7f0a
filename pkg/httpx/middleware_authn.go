package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/keystone/pkg/jwtx"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
)

// Error codes written by the bearer middlewares.
const (
	CodeTokenInvalid     = "token_invalid"
	CodeTokenExpired     = "token_expired"
	CodePermissionDenied = "permission_denied"
)

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return raw, raw != ""
}

// AuthnMiddleware verifies the bearer token with v and stores the payload
// in the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				WriteBearerError(w, CodeTokenInvalid, "missing bearer token")
				return
			}

			payload, err := v.Verify(raw)
			if err != nil {
				log.Info("bearer token rejected", "err", err)
				if errors.Is(err, jwtx.ErrTokenExpired) {
					WriteBearerError(w, CodeTokenExpired, "token expired")
					return
				}
				WriteBearerError(w, CodeTokenInvalid, "token verification failed")
				return
			}

			ctx = WithPayload(ctx, payload)
			ctx = slogx.WithSubject(ctx, payload.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteBearerError writes an RFC 6750 challenge with a JSON body.
func WriteBearerError(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}
