package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/keystone/pkg/authz"
	"github.com/aussiebroadwan/keystone/pkg/httpx"
	"github.com/aussiebroadwan/keystone/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type verifierFunc func(string) (jwtx.Payload, error)

func (f verifierFunc) Verify(token string) (jwtx.Payload, error) { return f(token) }

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	v := verifierFunc(func(token string) (jwtx.Payload, error) {
		switch token {
		case "good":
			return jwtx.Payload{Subject: "01JUSER"}, nil
		case "old":
			return jwtx.Payload{}, jwtx.ErrTokenExpired
		default:
			return jwtx.Payload{}, errors.Join(jwtx.ErrTokenInvalid, errors.New("bad"))
		}
	})

	var gotSubject string
	h := httpx.AuthnMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = httpx.SubjectFromContext(r.Context())
		p, ok := httpx.PayloadFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, gotSubject, p.Subject)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, httpx.CodeTokenInvalid},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, httpx.CodeTokenInvalid},
		{"empty bearer", "Bearer  ", http.StatusUnauthorized, httpx.CodeTokenInvalid},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, httpx.CodeTokenInvalid},
		{"expired token", "Bearer old", http.StatusUnauthorized, httpx.CodeTokenExpired},
		{"valid token", "Bearer good", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				require.Equal(t, tt.code, decodeError(t, rec))
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
				require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			}
		})
	}
	require.Equal(t, "01JUSER", gotSubject)
}

func TestRequirePermissions(t *testing.T) {
	h := httpx.RequirePermissions("api_key:read", "api_key:update")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	tests := []struct {
		name   string
		have   authz.Set
		status int
	}{
		{"no snapshot", nil, http.StatusForbidden},
		{"partial", authz.NewSet("api_key:read"), http.StatusForbidden},
		{"all", authz.NewSet("api_key:read", "api_key:update"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.have != nil {
				req = req.WithContext(httpx.WithPermissions(req.Context(), tt.have))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusForbidden {
				require.Equal(t, httpx.CodePermissionDenied, decodeError(t, rec))
			}
		})
	}

	t.Run("empty requirement passes without snapshot", func(t *testing.T) {
		open := httpx.RequirePermissions()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"email":"a@b"}`, false},
		{"unknown field", `{"email":"a@b","extra":1}`, true},
		{"trailing data", `{"email":"a@b"}{}`, true},
		{"not json", `email=a`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			var dst body
			err := httpx.DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "a@b", dst.Email)
		})
	}
}

func TestMetricsMiddleware_PassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	h := httpx.Chain(mux, httpx.MetricsMiddleware())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/1", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
}
