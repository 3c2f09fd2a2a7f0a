package httpx

import (
	"context"

	"github.com/aussiebroadwan/keystone/pkg/authz"
	"github.com/aussiebroadwan/keystone/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeySubject     ctxKey = "subject"
	CtxKeyPayload     ctxKey = "payload"
	CtxKeyPermissions ctxKey = "permissions"
)

// WithPayload stores a verified token payload and its subject.
func WithPayload(ctx context.Context, p jwtx.Payload) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubject, p.Subject)
	return context.WithValue(ctx, CtxKeyPayload, p)
}

func PayloadFromContext(ctx context.Context) (jwtx.Payload, bool) {
	p, ok := ctx.Value(CtxKeyPayload).(jwtx.Payload)
	return p, ok
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(CtxKeySubject).(string)
	return s
}

// WithPermissions stores the actor's permission snapshot for the rest of
// the request.
func WithPermissions(ctx context.Context, s authz.Set) context.Context {
	return context.WithValue(ctx, CtxKeyPermissions, s)
}

// PermissionsFromContext returns nil when no snapshot was resolved.
func PermissionsFromContext(ctx context.Context) authz.Set {
	s, _ := ctx.Value(CtxKeyPermissions).(authz.Set)
	return s
}
