package serverutil

import (
	"context"
	"strings"

	"github.com/dpup/currenturl"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Request adapts the incoming GRPC metadata in ctx for the resolver.
//
// Headers are read from the gateway's forwarded headers. The host header
// falls back to X-Forwarded-Host, set by the gateway, and then to the
// :authority of native GRPC calls. Only gateway requests carry a URL, so
// native calls resolve to nil.
func Request(ctx context.Context) currenturl.Request {
	md, _ := metadata.FromIncomingContext(ctx)
	return mdRequest{md}
}

type mdRequest struct {
	md metadata.MD
}

func (r mdRequest) Header(key string) string {
	if v := headerFromMD(r.md, key); v != "" {
		return v
	}
	if strings.EqualFold(key, "host") {
		if v := firstMD(r.md, forwardedHostKey); v != "" {
			return v
		}
		return firstMD(r.md, authorityKey)
	}
	return ""
}

func (r mdRequest) URL() (string, bool) {
	v := firstMD(r.md, MetadataHTTPPrefix+"url")
	return v, v != ""
}

// UnaryServerInterceptor binds the request's metadata to the context, so GRPC
// handlers can call currenturl.FromContext. A request that is already bound is
// left alone.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(bindRequest(ctx), req)
	}
}

// StreamServerInterceptor is the streaming counterpart of
// UnaryServerInterceptor.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, stream grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		wrapped := grpc_middleware.WrapServerStream(stream)
		wrapped.WrappedContext = bindRequest(stream.Context())
		return handler(srv, wrapped)
	}
}

func bindRequest(ctx context.Context) context.Context {
	if currenturl.RequestFromContext(ctx) != nil {
		return ctx
	}
	return currenturl.WithRequest(ctx, Request(ctx))
}
