package currenturl

import (
	"context"
	"net/url"

	"github.com/dpup/currenturl/logging"
)

type requestKey struct{}

// WithRequest binds req to the context, making it available to FromContext.
// Middleware and the router adapters call this for you.
func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// RequestFromContext returns the request bound to ctx, or nil.
func RequestFromContext(ctx context.Context) Request {
	if req, ok := ctx.Value(requestKey{}).(Request); ok {
		return req
	}
	return nil
}

// FromContext resolves the current URL for the request bound to ctx using the
// package level resolver.
func FromContext(ctx context.Context) (*url.URL, error) {
	return defaultResolver.FromContext(ctx)
}

// FromContext resolves the current URL for the request bound to ctx.
func (r *Resolver) FromContext(ctx context.Context) (*url.URL, error) {
	return r.Resolve(RequestFromContext(ctx))
}

// URL is like FromContext but logs and swallows errors, returning nil. It is
// convenient from templates and other places where a missing URL is fine.
func URL(ctx context.Context) *url.URL {
	u, err := FromContext(ctx)
	if err != nil {
		logging.Warnw(ctx, "currenturl: unable to resolve url", "error", err)
		return nil
	}
	return u
}
