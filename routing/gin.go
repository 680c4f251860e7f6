package routing

import (
	"net/http"
	"net/url"

	"github.com/dpup/currenturl"
	"github.com/gin-gonic/gin"
)

type ginRouter struct {
	router      *gin.Engine
	interceptor currenturl.Interceptor
}

func (g ginRouter) Handler() http.Handler {
	return g.router
}

func (g ginRouter) Handle(method, route string, handler HandlerFunc) {
	g.router.Handle(method, route, func(c *gin.Context) {
		c.Request = g.interceptor.Forward(c.Request)
		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
		handler(c.Writer, c.Request, params)
	})
}

// Gin wraps a gin engine.
func Gin(g *gin.Engine) Routeable {
	return &ginRouter{router: g, interceptor: currenturl.NewInterceptor()}
}

// GinMiddleware stamps `x-url` on requests handled by a gin engine or group.
//
//	r := gin.New()
//	r.Use(routing.GinMiddleware())
func GinMiddleware() gin.HandlerFunc {
	i := currenturl.NewInterceptor()
	return func(c *gin.Context) {
		c.Request = i.Forward(c.Request)
		c.Next()
	}
}

// GinRequest adapts a gin context for the resolver.
func GinRequest(c *gin.Context) currenturl.Request {
	return currenturl.HTTPRequest(c.Request)
}

// GinURL resolves the current URL of a gin request.
func GinURL(c *gin.Context) (*url.URL, error) {
	return currenturl.Resolve(GinRequest(c))
}
