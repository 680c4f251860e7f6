package currenturl

import (
	"net/url"
	"testing"

	"github.com/dpup/currenturl/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func serverResolver(env Environment) *Resolver {
	return New(WithProbe(NoBrowser), WithEnvironment(env))
}

func TestResolve_BrowserWins(t *testing.T) {
	r := New(WithProbe(StaticProbe("https://app.test/page?q=1")))

	reqs := map[string]Request{
		"nil request": nil,
		"no url":      &IncomingMessage{},
		"x-url":       NewIncomingMessage("/other", map[string]string{"x-url": "https://example.com/foo"}),
		"absolute":    NewIncomingMessage("https://example.com/bar", nil),
	}
	for name, req := range reqs {
		t.Run(name, func(t *testing.T) {
			u, err := r.Resolve(req)
			require.NoError(t, err)
			assert.Equal(t, "https://app.test/page?q=1", u.String())
		})
	}
}

func TestResolve_Unresolvable(t *testing.T) {
	r := serverResolver(Environment{PlatformHost: "myapp.example"})

	u, err := r.Resolve(nil)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = r.Resolve(HTTPRequest(nil))
	require.NoError(t, err)
	assert.Nil(t, u, "nil *http.Request")

	u, err = r.Resolve(NewIncomingMessage("", map[string]string{
		"Host":  "example.com",
		"X-Url": "https://example.com/foo",
	}))
	require.NoError(t, err)
	assert.Nil(t, u, "request without a url")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		env     Environment
		url     string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded header wins",
			url:     "/ignored",
			headers: map[string]string{"x-url": "https://example.com/foo"},
			want:    "https://example.com/foo",
		},
		{
			name:    "forwarded header is case insensitive",
			url:     "https://other.example/bar",
			headers: map[string]string{"X-URL": "https://example.com/foo"},
			want:    "https://example.com/foo",
		},
		{
			name:    "relative forwarded header is used verbatim",
			env:     Environment{Deployment: "production", PlatformHost: "myapp.example"},
			url:     "/baz",
			headers: map[string]string{"x-url": "/relative?x=1"},
			want:    "/relative?x=1",
		},
		{
			name: "absolute request url",
			env:  Environment{Deployment: "production", PlatformHost: "myapp.example"},
			url:  "https://example.com/bar",
			want: "https://example.com/bar",
		},
		{
			name: "relative url outside production",
			env:  Environment{Deployment: "preview", PlatformHost: "myapp.example"},
			url:  "/baz",
			want: "http://myapp.example/baz",
		},
		{
			name: "relative url in production",
			env:  Environment{Deployment: "production", PlatformHost: "myapp.example"},
			url:  "/baz",
			want: "https://myapp.example/baz",
		},
		{
			name:    "platform host preferred over host header",
			env:     Environment{PlatformHost: "myapp.example"},
			url:     "/baz",
			headers: map[string]string{"host": "localhost:3000"},
			want:    "http://myapp.example/baz",
		},
		{
			name:    "falls back to host header",
			url:     "/baz?q=1",
			headers: map[string]string{"Host": "localhost:3000"},
			want:    "http://localhost:3000/baz?q=1",
		},
		{
			name:    "deployment match is exact",
			env:     Environment{Deployment: "Production"},
			url:     "/baz",
			headers: map[string]string{"Host": "example.com"},
			want:    "http://example.com/baz",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := serverResolver(tt.env).Resolve(NewIncomingMessage(tt.url, tt.headers))
			require.NoError(t, err)
			require.NotNil(t, u)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestResolve_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		env     Environment
		url     string
		headers map[string]string
		urlErr  bool
	}{
		{
			name:    "malformed forwarded header",
			url:     "/baz",
			headers: map[string]string{"x-url": "http://[::1/baz"},
			urlErr:  true,
		},
		{
			name:    "malformed host header",
			url:     "/baz",
			headers: map[string]string{"Host": "bad host"},
			urlErr:  true,
		},
		{
			name:   "malformed platform host",
			env:    Environment{PlatformHost: "[::1"},
			url:    "/baz",
			urlErr: true,
		},
		{
			name: "no host available",
			url:  "/baz",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := serverResolver(tt.env).Resolve(NewIncomingMessage(tt.url, tt.headers))
			require.Error(t, err)
			assert.Nil(t, u)
			assert.True(t, errors.Is(err, ErrMalformedURL))
			assert.Equal(t, codes.InvalidArgument, errors.Code(err))
			assert.Equal(t, 400, errors.HTTPStatusCode(err))

			var ue *url.Error
			assert.Equal(t, tt.urlErr, errors.As(err, &ue))
		})
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, isAbsoluteURL("https://example.com/bar"))
	assert.True(t, isAbsoluteURL("http://localhost:3000"))
	assert.False(t, isAbsoluteURL("/baz"))
	assert.False(t, isAbsoluteURL("example.com/baz"))
	assert.False(t, isAbsoluteURL("mailto:someone@example.com"))
	assert.False(t, isAbsoluteURL("http://[::1/baz"), "parse errors mean not absolute")
}

func TestEnvironment(t *testing.T) {
	assert.Equal(t, "https://", Environment{Deployment: "production"}.Scheme())
	assert.Equal(t, "http://", Environment{Deployment: "preview"}.Scheme())
	assert.Equal(t, "http://", Environment{}.Scheme())
	assert.True(t, Environment{Deployment: ProductionDeployment}.IsProduction())
}

func TestProbes(t *testing.T) {
	_, ok := NoBrowser.CurrentURL()
	assert.False(t, ok)

	href, ok := StaticProbe("https://example.com/").CurrentURL()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/", href)

	calls := 0
	p := ProbeFunc(func() (string, bool) {
		calls++
		return "", false
	})
	_, err := New(WithProbe(p), WithEnvironment(Environment{})).Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, ok = DefaultProbe().CurrentURL()
	assert.False(t, ok, "no browser outside of js/wasm")
}
