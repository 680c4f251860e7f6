package routing

import (
	"net/http"

	"github.com/dpup/currenturl"
	"github.com/julienschmidt/httprouter"
)

// HTTPRouter is the default router, built on julienschmidt/httprouter.
type HTTPRouter struct {
	router      *httprouter.Router
	interceptor currenturl.Interceptor
}

// Handler returns the underlying router.
func (h HTTPRouter) Handler() http.Handler {
	return h.router
}

// Handle registers a route.
func (h HTTPRouter) Handle(method, route string, handler HandlerFunc) {
	h.router.Handle(method, route, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		r = h.interceptor.Forward(r)
		params := make(map[string]string, len(ps))
		for _, p := range ps {
			params[p.Key] = p.Value
		}
		handler(w, r, params)
	})
}

// NewHTTPRouter returns a router that answers disallowed methods with
// notAllowedHandler. A nil handler uses httprouter's default response.
func NewHTTPRouter(notAllowedHandler http.Handler) Routeable {
	router := httprouter.New()
	router.HandleMethodNotAllowed = true
	router.MethodNotAllowed = notAllowedHandler
	return &HTTPRouter{router: router, interceptor: currenturl.NewInterceptor()}
}

// HTTPRouterHandle wraps a single httprouter handle.
func HTTPRouterHandle(handle httprouter.Handle) httprouter.Handle {
	i := currenturl.NewInterceptor()
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		handle(w, i.Forward(r), ps)
	}
}
