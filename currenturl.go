// Package currenturl determines the absolute URL that the current page or
// request is being served at.
//
// In a browser (js/wasm builds) the URL comes from the window location. On a
// server it is derived from the incoming request: the `x-url` header stamped
// by Middleware is preferred, then the request's own URL, which is made
// absolute using the deployment environment and the request's host.
//
// Typical usage:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//		u, err := currenturl.FromContext(r.Context())
//		...
//	})
//	http.ListenAndServe(":8000", currenturl.Middleware(mux))
package currenturl

import (
	"fmt"
	"net/url"

	"github.com/dpup/currenturl/errors"
	"google.golang.org/grpc/codes"
)

// HeaderURL is the request header used to forward the original request URL
// from Middleware to the resolver. It is reserved for that purpose.
const HeaderURL = "x-url"

// ErrMalformedURL is returned, wrapped, when the final URL cannot be parsed.
var ErrMalformedURL = errors.NewC("currenturl: malformed url", codes.InvalidArgument)

// Request is the minimal view of an incoming request the resolver needs.
// Adapters exist for *http.Request, plain header maps, gRPC metadata and the
// supported routers.
type Request interface {
	// Header returns the first value for the named header, matched
	// case-insensitively, or "" when it is missing.
	Header(key string) string

	// URL returns the URL the request was made for, as received. The URL is
	// typically a path and query. False means the request has no URL.
	URL() (string, bool)
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithProbe overrides the probe used to detect a browser context.
func WithProbe(p Probe) Option {
	return func(r *Resolver) {
		r.probe = p
	}
}

// WithEnvironment fixes the deployment environment instead of reading it from
// Config on every call.
func WithEnvironment(env Environment) Option {
	return func(r *Resolver) {
		r.env = func() Environment { return env }
	}
}

// Resolver computes the current URL. The zero value is not usable, construct
// one with New. A Resolver holds no per-call state and is safe for concurrent
// use.
type Resolver struct {
	probe Probe
	env   func() Environment
}

// New returns a Resolver using the platform's default probe and the
// environment found in Config.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		probe: DefaultProbe(),
		env:   EnvironmentFromConfig,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = New()

// Resolve calls Resolve on the package level resolver.
func Resolve(req Request) (*url.URL, error) {
	return defaultResolver.Resolve(req)
}

// Resolve returns the absolute URL currently being served.
//
// A browser URL reported by the probe always wins. Otherwise a nil request, or
// one with no URL, resolves to nil without error. A non-empty `x-url` header
// is returned as is. An absolute request URL is used directly, and a relative
// one is prefixed with the environment's scheme and the platform host, falling
// back to the request's host header.
//
// Errors are only returned when the final URL is malformed.
func (r *Resolver) Resolve(req Request) (*url.URL, error) {
	if href, ok := r.probe.CurrentURL(); ok {
		return parse(href)
	}

	if req == nil {
		return nil, nil
	}
	own, ok := req.URL()
	if !ok || own == "" {
		return nil, nil
	}

	if forwarded := req.Header(HeaderURL); forwarded != "" {
		return parse(forwarded)
	}

	if isAbsoluteURL(own) {
		return parse(own)
	}

	env := r.env()
	host := env.PlatformHost
	if host == "" {
		host = req.Header("host")
	}
	u, err := parse(env.Scheme() + host + own)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, malformed(u.String(), fmt.Errorf("missing host"))
	}
	return u, nil
}

// isAbsoluteURL reports whether s parses to a URL with both a scheme and a
// host. Parse errors are not reported, they simply mean "not absolute".
func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func parse(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, malformed(raw, err)
	}
	return u, nil
}

func malformed(raw string, err error) error {
	return errors.Wrap(fmt.Errorf("%w %q: %w", ErrMalformedURL, raw, err), 1).
		WithCode(codes.InvalidArgument)
}
