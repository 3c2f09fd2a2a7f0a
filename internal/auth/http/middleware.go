package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/aussiebroadwan/keystone/internal/auth/service"
	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/aussiebroadwan/keystone/pkg/httpx"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
)

type ctxKey string

const (
	ctxKeyActor  ctxKey = "actor"
	ctxKeyAPIKey ctxKey = "api_key"
)

func actorFromContext(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(domain.Actor)
	return a, ok
}

// APIKeyFromContext returns the authenticated machine caller, or nil when
// the guard ran in non-secure mode.
func APIKeyFromContext(ctx context.Context) *domain.APIKey {
	k, _ := ctx.Value(ctxKeyAPIKey).(*domain.APIKey)
	return k
}

// APIKeyGuard authenticates the X-API-Key header. The key is kept in the
// context for attribution only, it grants no permissions.
func APIKeyGuard(keys *service.APIKeyService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key, err := keys.Authenticate(ctx, r.Header.Get(authsdk.APIKeyHeader))
			if err != nil {
				writeError(w, r, err)
				return
			}
			if key != nil {
				ctx = context.WithValue(ctx, ctxKeyAPIKey, key)
				ctx = slogx.WithAPIKey(ctx, key.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActive resolves the token subject's account and role once per
// request and stores the role's active permissions as the snapshot later
// middlewares authorize against. It must run after AuthnMiddleware.
func RequireActive(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			subject := httpx.SubjectFromContext(ctx)
			if subject == "" {
				authsdk.ErrTokenInvalid.WriteError(w)
				return
			}

			actor, err := auth.ResolveActor(ctx, subject)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx = context.WithValue(ctx, ctxKeyActor, actor)
			ctx = httpx.WithPermissions(ctx, actor.Role.PermissionSet())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
