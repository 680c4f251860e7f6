package currenturl

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/baz?q=1", nil)
	r.Header.Set("X-Url", "https://example.com/foo")

	req := HTTPRequest(r)
	assert.Equal(t, "https://example.com/foo", req.Header("x-url"))
	assert.Equal(t, "example.com", req.Header("Host"), "host comes from r.Host")
	assert.Empty(t, req.Header("X-Missing"))

	u, ok := req.URL()
	assert.True(t, ok)
	assert.Equal(t, "/baz?q=1", u)

	r.URL = nil
	_, ok = req.URL()
	assert.False(t, ok)

	assert.Nil(t, HTTPRequest(nil))
}

func TestIncomingMessage(t *testing.T) {
	m := NewIncomingMessage("/baz", map[string]string{"host": "localhost:3000"})
	assert.Equal(t, "localhost:3000", m.Header("Host"))

	u, ok := m.URL()
	assert.True(t, ok)
	assert.Equal(t, "/baz", u)

	_, ok = (&IncomingMessage{}).URL()
	assert.False(t, ok)
	assert.Empty(t, (&IncomingMessage{}).Header("Host"), "nil headers are fine")
}
