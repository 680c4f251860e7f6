// Package serverutil carries the current URL across the GRPC Gateway, from the
// HTTP request into the metadata seen by GRPC handlers.
package serverutil

import (
	"context"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/dpup/currenturl"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/metadata"
)

const (
	// GRPC Metadata prefix that is added to allowed headers specified with
	// HeaderMatcher.
	MetadataHeaderPrefix = "cu-header-"

	// GRPC Metadata prefix that is added to metadata keys that are extracted from
	// the HTTP request. These keys will only be present for Gateway requests.
	MetadataHTTPPrefix = "cu-http-"
)

// Metadata keys set by the gateway and by native GRPC clients that identify
// the host the request was made to.
const (
	forwardedHostKey = "x-forwarded-host"
	authorityKey     = ":authority"
)

// HTTPHeader returns the value of a "permanent HTTP header" or a header that
// was added to the allow-list by a HeaderMatcher.
//
// For permanent headers, see https://github.com/grpc-ecosystem/grpc-gateway/blob/main/runtime/context.go#L328
//
// This will only ever return a value for requests coming via the GRPC Gateway.
func HTTPHeader(ctx context.Context, header string) string {
	md, _ := metadata.FromIncomingContext(ctx)
	return headerFromMD(md, header)
}

func headerFromMD(md metadata.MD, header string) string {
	header = strings.ToLower(header)
	if v := md.Get(MetadataHeaderPrefix + header); len(v) > 0 {
		return v[0]
	}
	if v := md.Get(runtime.MetadataPrefix + header); len(v) > 0 {
		return v[0]
	}
	return ""
}

// HTTPMethod returns the HTTP method of the request that was made to the
// Gateway. This will only ever return a value for requests coming via the GRPC
// Gateway.
func HTTPMethod(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	return firstMD(md, MetadataHTTPPrefix+"method")
}

// HTTPURL returns the URL of the request that was made to the Gateway, as
// received. False for requests that did not come via the Gateway.
func HTTPURL(ctx context.Context) (string, bool) {
	md, _ := metadata.FromIncomingContext(ctx)
	v := firstMD(md, MetadataHTTPPrefix+"url")
	return v, v != ""
}

func firstMD(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// HeaderMatcher appends the given headers to the allow-list for incoming
// requests. The `x-url` header is always allowed, so URLs stamped by
// currenturl.Middleware reach GRPC handlers.
//
// See: runtime.WithIncomingHeaderMatcher.
func HeaderMatcher(headers []string) runtime.HeaderMatcherFunc {
	headerMap := map[string]bool{
		textproto.CanonicalMIMEHeaderKey(currenturl.HeaderURL): true,
	}
	for _, h := range headers {
		headerMap[textproto.CanonicalMIMEHeaderKey(h)] = true
	}
	return func(key string) (string, bool) {
		key = textproto.CanonicalMIMEHeaderKey(key)
		if headerMap[key] {
			return MetadataHeaderPrefix + key, true
		}
		return runtime.DefaultHeaderMatcher(key)
	}
}

// HTTPMetadataAnnotator is a gateway option that maps the HTTP method and URL
// of the request to incoming GRPC metadata.
//
// See: runtime.WithMetadata.
func HTTPMetadataAnnotator(_ context.Context, r *http.Request) metadata.MD {
	md := map[string]string{}
	md[MetadataHTTPPrefix+"method"] = r.Method
	if r.URL != nil {
		md[MetadataHTTPPrefix+"url"] = r.URL.String()
	}
	return metadata.New(md)
}

// GatewayOptions returns the serve mux options needed for Request to work
// with gateway requests.
func GatewayOptions(headers ...string) []runtime.ServeMuxOption {
	return []runtime.ServeMuxOption{
		runtime.WithIncomingHeaderMatcher(HeaderMatcher(headers)),
		runtime.WithMetadata(HTTPMetadataAnnotator),
	}
}
