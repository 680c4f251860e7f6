package routing

import (
	"net/http"
	"net/url"

	"github.com/dpup/currenturl"
	"github.com/labstack/echo"
)

type echoRouter struct {
	router      *echo.Echo
	interceptor currenturl.Interceptor
}

func (e echoRouter) Handler() http.Handler {
	return e.router
}

func (e echoRouter) Handle(method, route string, handler HandlerFunc) {
	e.router.Add(method, route, func(c echo.Context) error {
		c.SetRequest(e.interceptor.Forward(c.Request()))
		names := c.ParamNames()
		values := c.ParamValues()
		params := make(map[string]string, len(names))
		for i, name := range names {
			if i < len(values) {
				params[name] = values[i]
			}
		}
		handler(c.Response(), c.Request(), params)
		return nil
	})
}

// Echo wraps an echo router.
func Echo(e *echo.Echo) Routeable {
	return &echoRouter{router: e, interceptor: currenturl.NewInterceptor()}
}

// EchoMiddleware stamps `x-url` on requests handled by an echo router.
//
//	e := echo.New()
//	e.Use(routing.EchoMiddleware())
func EchoMiddleware() echo.MiddlewareFunc {
	i := currenturl.NewInterceptor()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(i.Forward(c.Request()))
			return next(c)
		}
	}
}

// EchoRequest adapts an echo context for the resolver.
func EchoRequest(c echo.Context) currenturl.Request {
	return currenturl.HTTPRequest(c.Request())
}

// EchoURL resolves the current URL of an echo request.
func EchoURL(c echo.Context) (*url.URL, error) {
	return currenturl.Resolve(EchoRequest(c))
}
