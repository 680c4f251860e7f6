package serverutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dpup/currenturl"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func resolver() *currenturl.Resolver {
	return currenturl.New(
		currenturl.WithProbe(currenturl.NoBrowser),
		currenturl.WithEnvironment(currenturl.Environment{}),
	)
}

func gatewayContext(t *testing.T, r *http.Request) context.Context {
	t.Helper()
	mux := runtime.NewServeMux(GatewayOptions()...)
	ctx, err := runtime.AnnotateIncomingContext(r.Context(), mux, r, "/things.Things/Get")
	require.NoError(t, err)
	return ctx
}

func TestRequest_Gateway(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/things/1?x=2", nil)
	r.Host = "api.example"

	t.Run("intercepted", func(t *testing.T) {
		ctx := gatewayContext(t, currenturl.Intercept(r))
		u, err := resolver().Resolve(Request(ctx))
		require.NoError(t, err)
		assert.Equal(t, "http://api.example/v1/things/1?x=2", u.String())
	})

	t.Run("host from x-forwarded-host", func(t *testing.T) {
		ctx := gatewayContext(t, r)
		req := Request(ctx)
		assert.Equal(t, "api.example", req.Header("Host"))
		assert.Empty(t, req.Header(currenturl.HeaderURL))

		u, err := resolver().Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "http://api.example/v1/things/1?x=2", u.String())
	})
}

func TestRequest_NativeGRPC(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(":authority", "things.internal:443"))
	req := Request(ctx)

	assert.Equal(t, "things.internal:443", req.Header("host"))
	_, ok := req.URL()
	assert.False(t, ok)

	u, err := resolver().Resolve(req)
	require.NoError(t, err)
	assert.Nil(t, u, "native calls have no url")

	_, ok = Request(context.Background()).URL()
	assert.False(t, ok, "no metadata at all")
}

func TestUnaryServerInterceptor(t *testing.T) {
	md := metadata.Pairs(
		MetadataHeaderPrefix+"x-url", "https://public.example/v1/things",
		MetadataHTTPPrefix+"url", "/v1/things",
	)
	ctx := metadata.NewIncomingContext(context.Background(), md)

	var got string
	handler := func(ctx context.Context, req any) (any, error) {
		u, err := currenturl.FromContext(ctx)
		require.NoError(t, err)
		got = u.String()
		return "ok", nil
	}

	resp, err := UnaryServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/things.Things/List"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "https://public.example/v1/things", got)
}

func TestUnaryServerInterceptor_KeepsBoundRequest(t *testing.T) {
	bound := currenturl.NewIncomingMessage("https://bound.example/", nil)
	ctx := currenturl.WithRequest(context.Background(), bound)

	_, err := UnaryServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		assert.Same(t, bound, currenturl.RequestFromContext(ctx))
		return nil, nil
	})
	require.NoError(t, err)
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context {
	return f.ctx
}

func TestStreamServerInterceptor(t *testing.T) {
	md := metadata.Pairs(MetadataHTTPPrefix+"url", "https://public.example/events")
	stream := &fakeStream{ctx: metadata.NewIncomingContext(context.Background(), md)}

	var got string
	err := StreamServerInterceptor()(nil, stream, &grpc.StreamServerInfo{}, func(srv any, ss grpc.ServerStream) error {
		got = currenturl.URL(ss.Context()).String()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "https://public.example/events", got)
}
