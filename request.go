package currenturl

import (
	"net/http"
	"strings"
)

// HTTPRequest adapts a *http.Request. The host header is answered from
// r.Host, since the standard library moves it out of r.Header for incoming
// requests. A nil request adapts to a nil Request.
func HTTPRequest(r *http.Request) Request {
	if r == nil {
		return nil
	}
	return httpRequest{r}
}

type httpRequest struct {
	r *http.Request
}

func (h httpRequest) Header(key string) string {
	if v := h.r.Header.Get(key); v != "" {
		return v
	}
	if strings.EqualFold(key, "host") {
		return h.r.Host
	}
	return ""
}

func (h httpRequest) URL() (string, bool) {
	if h.r.URL == nil {
		return "", false
	}
	return h.r.URL.String(), true
}

// IncomingMessage is a plain request shape: a set of headers and an optional
// raw URL, as received by a bare HTTP server. An empty RawURL means the
// message has no URL.
type IncomingMessage struct {
	Headers http.Header
	RawURL  string
}

// NewIncomingMessage builds an IncomingMessage from a flat header map. Keys are
// canonicalized so lookups are case-insensitive.
func NewIncomingMessage(rawURL string, headers map[string]string) *IncomingMessage {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return &IncomingMessage{Headers: h, RawURL: rawURL}
}

// Header implements Request.
func (m *IncomingMessage) Header(key string) string {
	return m.Headers.Get(key)
}

// URL implements Request.
func (m *IncomingMessage) URL() (string, bool) {
	return m.RawURL, m.RawURL != ""
}
