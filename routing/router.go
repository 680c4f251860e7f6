// Package routing adapts popular HTTP routers so that every handler they
// dispatch to sees the `x-url` header and can call currenturl.FromContext.
//
// Each router is wrapped in a Routeable. Routes use the ":name" parameter
// syntax for all routers, the Gorilla adapter translates it.
//
// The framework specific middleware (GinMiddleware, EchoMiddleware,
// GorillaMiddleware) can be used instead when an application registers its
// own routes.
package routing

import (
	"net/http"
)

// HandlerFunc handles a routed request. Params holds the values of the
// route's path parameters.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, params map[string]string)

// Routeable is a router that forwards the current URL to its handlers.
type Routeable interface {
	// Handler returns the router as an http.Handler.
	Handler() http.Handler

	// Handle registers a handler for the method and route.
	Handle(method, route string, handler HandlerFunc)
}
