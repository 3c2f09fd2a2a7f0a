package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/aussiebroadwan/keystone/internal/auth/service"
	"github.com/aussiebroadwan/keystone/internal/auth/store"
	"github.com/aussiebroadwan/keystone/pkg/httpx"
	"github.com/aussiebroadwan/keystone/pkg/jwtx"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/keystone/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier // access tokens
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService   *service.AuthService
	APIKeyService *service.APIKeyService

	// Rate limit profiles, overridable before ApplyRoutes.
	LoginLimit  httpx.RateLimitConfig
	UserLimit   httpx.RateLimitConfig
	HealthLimit httpx.RateLimitConfig
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		LoginLimit:   httpx.StrictLimit,
		UserLimit:    httpx.ModerateLimit,
		HealthLimit:  httpx.LenientLimit,
	}

	// Metrics sit inside the logger so they see the pattern the mux matched
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.MetricsMiddleware(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAPIKeys()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Keystone Authentication Service API
//	@version		0.1.0
//	@description	Multi-tenant authentication core: password login, HS256 access/refresh tokens, API key gated machine access and permission checks.
//	@description
//	@description	Every /v1 route requires an X-API-Key header of the form "<key>:<proof>" where proof is hex(sha256(key:secret)).
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/keystone
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT token. Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Machine caller credential. Format: "{key}:{proof}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured wraps h in the full pipeline: API key, bearer token, active
// account snapshot, then the route's permission list.
func (r *Router) secured(h http.Handler, permissions ...string) http.Handler {
	return httpx.Chain(h,
		APIKeyGuard(r.APIKeyService),
		httpx.AuthnMiddleware(r.verifier),
		RequireActive(r.AuthService),
		httpx.RequirePermissions(permissions...),
		httpx.RateLimitBySubject(r.UserLimit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// POST /login - strict rate limit by IP + email (brute force)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			APIKeyGuard(r.APIKeyService),
			httpx.RateLimitByIPAndJSONField(r.LoginLimit, "email"),
		),
	)

	// POST /refresh - the bearer token is the refresh token, verified by the service
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			APIKeyGuard(r.APIKeyService),
			httpx.RateLimitByIP(r.UserLimit),
		),
	)

	r.Mux.Handle("PATCH /v1/auth/change-password", r.secured(http.HandlerFunc(h.HandleChangePassword)))
	r.Mux.Handle("GET /v1/auth/me", r.secured(http.HandlerFunc(h.HandleMe)))
}

func (r *Router) registerAPIKeys() {
	h := &APIKeysHandler{APIKeyService: r.APIKeyService}

	r.Mux.Handle("GET /v1/api-keys",
		r.secured(http.HandlerFunc(h.HandleList),
			domain.PermAPIKeyRead,
		),
	)
	r.Mux.Handle("POST /v1/api-keys",
		r.secured(http.HandlerFunc(h.HandleCreate),
			domain.PermAPIKeyRead, domain.PermAPIKeyCreate,
		),
	)
	r.Mux.Handle("GET /v1/api-keys/{id}",
		r.secured(http.HandlerFunc(h.HandleGet),
			domain.PermAPIKeyRead,
		),
	)
	r.Mux.Handle("PUT /v1/api-keys/{id}",
		r.secured(http.HandlerFunc(h.HandleUpdate),
			domain.PermAPIKeyRead, domain.PermAPIKeyUpdate,
		),
	)
	r.Mux.Handle("DELETE /v1/api-keys/{id}",
		r.secured(http.HandlerFunc(h.HandleDelete),
			domain.PermAPIKeyRead, domain.PermAPIKeyDelete,
		),
	)
	r.Mux.Handle("PATCH /v1/api-keys/{id}/reset",
		r.secured(http.HandlerFunc(h.HandleReset),
			domain.PermAPIKeyRead, domain.PermAPIKeyUpdate, domain.PermAPIKeyReset,
		),
	)
	r.Mux.Handle("PATCH /v1/api-keys/{id}/active",
		r.secured(h.HandleSetActive(true),
			domain.PermAPIKeyRead, domain.PermAPIKeyUpdate, domain.PermAPIKeyActive,
		),
	)
	r.Mux.Handle("PATCH /v1/api-keys/{id}/inactive",
		r.secured(h.HandleSetActive(false),
			domain.PermAPIKeyRead, domain.PermAPIKeyUpdate, domain.PermAPIKeyInactive,
		),
	)
	r.Mux.Handle("PUT /v1/api-keys/{id}/date",
		r.secured(http.HandlerFunc(h.HandleUpdateDates),
			domain.PermAPIKeyRead, domain.PermAPIKeyUpdate,
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.HealthLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(r.HealthLimit),
		),
	)
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
