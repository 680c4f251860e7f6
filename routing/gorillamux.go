package routing

import (
	"net/http"
	"regexp"

	"github.com/dpup/currenturl"
	"github.com/gorilla/mux"
)

type gorillamuxRouter struct {
	router      *mux.Router
	interceptor currenturl.Interceptor
}

func (gm gorillamuxRouter) Handler() http.Handler {
	return gm.router
}

var routeParam = regexp.MustCompile(`:([^/]+)`)

func (gm gorillamuxRouter) Handle(method, route string, handler HandlerFunc) {
	// Gorilla uses {name} instead of :name.
	route = routeParam.ReplaceAllString(route, "{$1}")

	gm.router.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		r = gm.interceptor.Forward(r)
		handler(w, r, mux.Vars(r))
	}).Methods(method)
}

// Gorilla wraps a gorilla mux router.
func Gorilla(r *mux.Router) Routeable {
	return &gorillamuxRouter{router: r, interceptor: currenturl.NewInterceptor()}
}

// GorillaMiddleware stamps `x-url` on requests matched by a gorilla router.
//
//	r := mux.NewRouter()
//	r.Use(routing.GorillaMiddleware())
func GorillaMiddleware() mux.MiddlewareFunc {
	return currenturl.NewInterceptor().Wrap
}
