// Package server provides a hybrid web server, which can handle GRPC, JSON RPC
// via the GRPC Gateway, and regular HTTP handlers, with the current URL
// forwarded to all of them.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/dpup/currenturl"
	"github.com/dpup/currenturl/logging"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Server wraps a HTTP server, a GRPC server, and a GRPC Gateway.
//
// Usage:
//
//	s := server.New(
//		server.WithJSONHandler("/api/url", server.CurrentURLHandler),
//	)
//	s.Start()
type Server struct {
	// Hostname or IP to bind to.
	host string

	// Port to listen on.
	port int

	// Location of certificate file, if TLS to be used.
	certFile string

	// Location of key file, if TLS to be used.
	keyFile string

	// Context that is propagated to handlers.
	baseContext context.Context

	// Handles original request and multiplexes to grpcServer or httpMux.
	httpServer *http.Server

	// Handles regular HTTP requests.
	httpMux *http.ServeMux

	// Wraps httpMux with compression, URL forwarding and request logging.
	httpHandler http.Handler

	// Handles GRPC requests of content-type application/grpc.
	grpcServer *grpc.Server

	// Bound to httpMux and exposes GRPC services as JSON/REST.
	grpcGateway *runtime.ServeMux

	// DialOptions passed when registering GRPC Gateway handlers.
	gatewayOpts []grpc.DialOption

	// Reports serving status of the server and registered services.
	health *health.Server
}

// ServiceRegistrar returns the GRPC Service Registrar for use with service
// implementations.
func (s *Server) ServiceRegistrar() grpc.ServiceRegistrar {
	return s.grpcServer
}

// GatewayArgs is used when registering a gateway handler.
func (s *Server) GatewayArgs() (ctx context.Context, mux *runtime.ServeMux, endpoint string, opts []grpc.DialOption) {
	ctx = s.baseContext
	mux = s.grpcGateway
	opts = s.gatewayOpts
	if s.host == "0.0.0.0" {
		// Special case of 0.0.0.0 is a listen-only IP, and must be changed into
		// localhost in a containerized environment.
		endpoint = net.JoinHostPort("localhost", fmt.Sprint(s.port))
	} else {
		endpoint = net.JoinHostPort(s.host, fmt.Sprint(s.port))
	}
	return
}

// Health returns the server's health service, which can be used to report
// the serving status of individual services.
func (s *Server) Health() *health.Server {
	return s.health
}

// Handler returns the root handler, which sends GRPC traffic to the GRPC
// server and everything else to the HTTP handlers.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ProtoMajor == 2 && strings.Contains(r.Header.Get("Content-Type"), "application/grpc") {
			s.grpcServer.ServeHTTP(w, r)
		} else {
			s.httpHandler.ServeHTTP(w, r)
		}
	})
}

// Start serving requests. Blocks until Shutdown is called.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))
	s.httpServer = &http.Server{
		Addr: addr,
		BaseContext: func(listener net.Listener) context.Context {
			return s.baseContext
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	var done = make(chan struct{})
	var err error

	go func() {
		var gracefulStop = make(chan os.Signal, 1)
		signal.Notify(gracefulStop, syscall.SIGTERM)
		signal.Notify(gracefulStop, syscall.SIGINT)
		sig := <-gracefulStop
		logging.Infof(s.baseContext, "👋 Graceful shutdown triggered... (sig %+v)", sig)
		_ = s.Shutdown()
		close(done)
	}()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer ln.Close()

	s.health.Resume()

	handler := s.Handler()
	if s.certFile != "" {
		s.httpServer.Handler = handler
		s.httpServer.TLSConfig = safeTLSConfig()
		logging.Infof(s.baseContext, "🚀  Listening for traffic on https://%s", addr)
		err = s.httpServer.ServeTLS(ln, s.certFile, s.keyFile)
	} else {
		s.httpServer.Handler = h2c.NewHandler(handler, &http2.Server{})
		logging.Infof(s.baseContext, "🚀  Listening for traffic on http://%s", addr)
		err = s.httpServer.Serve(ln)
	}

	if !errors.Is(err, http.ErrServerClosed) {
		return err // The server wasn't shutdown gracefully.
	}

	<-done
	return nil
}

// Shutdown gracefully shuts down the server with a 2s timeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(s.baseContext, time.Second*2)
	defer cancel()

	s.health.Shutdown()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logging.Errorw(ctx, "❌ Shutdown error", "error", err)
	} else {
		logging.Info(ctx, "👍 Connections drained")
	}
	s.grpcServer.GracefulStop()
	return err
}

// Requests are logged, then stamped with `x-url` before reaching the mux.
func newHTTPHandler(mux http.Handler, interceptor currenturl.Interceptor) http.Handler {
	return logging.Middleware(interceptor.Wrap(gziphandler.GzipHandler(mux)))
}
