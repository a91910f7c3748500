package audit

import "context"

// RequestMeta is the request information attached to journal entries.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

type metaKey struct{}

// WithMeta returns a copy of ctx carrying m.
func WithMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

// MetaFromContext returns the request metadata stored in ctx, or the zero
// value outside a request.
func MetaFromContext(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(metaKey{}).(RequestMeta)
	return m
}
