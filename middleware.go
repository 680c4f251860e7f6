package currenturl

import (
	"net/http"
	"strings"

	"github.com/dpup/currenturl/logging"
)

// Interceptor stamps requests with the `x-url` header. The zero value ignores
// proxy headers.
type Interceptor struct {
	// TrustForwardedHeaders makes the scheme and host come from
	// X-Forwarded-Proto and X-Forwarded-Host when present. Only enable this
	// behind a proxy that sets them.
	TrustForwardedHeaders bool
}

// NewInterceptor returns an Interceptor configured from Config.
func NewInterceptor() Interceptor {
	return Interceptor{
		TrustForwardedHeaders: Config.Bool("currentURL.trustForwardedHeaders"),
	}
}

// Intercept returns a shallow copy of r whose headers are a copy of r's with
// `x-url` set to the request's full URL. r is not modified.
func (i Interceptor) Intercept(r *http.Request) *http.Request {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(HeaderURL, i.RequestURL(r))

	r2 := new(http.Request)
	*r2 = *r
	r2.Header = h
	return r2
}

// Forward intercepts r and binds the result into the request context so that
// FromContext and URL can find it.
func (i Interceptor) Forward(r *http.Request) *http.Request {
	r2 := i.Intercept(r)
	return r2.WithContext(WithRequest(r2.Context(), HTTPRequest(r2)))
}

// Wrap returns a handler that forwards requests to next.
func (i Interceptor) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = i.Forward(r)
		logging.Debugw(r.Context(), "currenturl: forwarding request url", HeaderURL, r.Header.Get(HeaderURL))
		next.ServeHTTP(w, r)
	})
}

// RequestURL returns the full URL of the request. Absolute request URLs, as
// seen by proxies and clients, are returned unchanged. Otherwise the URL is
// rebuilt from the connection's scheme and r.Host. Without a host the
// relative URL is returned.
func (i Interceptor) RequestURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}

	u := *r.URL
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	u.Host = r.Host

	if i.TrustForwardedHeaders {
		if proto := firstValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
			u.Scheme = strings.ToLower(proto)
		}
		if host := firstValue(r.Header.Get("X-Forwarded-Host")); host != "" {
			u.Host = host
		}
	}

	if u.Host == "" {
		return r.URL.String()
	}
	return u.String()
}

// Intercept stamps r using an Interceptor that ignores proxy headers.
func Intercept(r *http.Request) *http.Request {
	return Interceptor{}.Intercept(r)
}

// Middleware forwards the request URL in the `x-url` header and binds the
// request into the context before calling next. Whether proxy headers are
// trusted is read from `currentURL.trustForwardedHeaders`.
func Middleware(next http.Handler) http.Handler {
	return NewInterceptor().Wrap(next)
}

// Proxies may append to these headers, the client facing value comes first.
func firstValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
