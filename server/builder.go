package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"

	"github.com/dpup/currenturl"
	"github.com/dpup/currenturl/logging"
	"github.com/dpup/currenturl/serverutil"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// JSONMarshalOptions are used for proto messages returned from JSON handlers
// and the gateway, so 0, false and "" are emitted rather than omitted.
var JSONMarshalOptions = protojson.MarshalOptions{
	Multiline:       true,
	Indent:          "  ",
	EmitUnpopulated: true,
	UseProtoNames:   false,
}

// ServerOption customizes the configuration and operation of the server.
type ServerOption func(*builder)

type handler struct {
	prefix      string
	httpHandler http.Handler
	jsonHandler JSONHandler
}

// New returns a new server. Options override values read from
// currenturl.Config.
func New(opts ...ServerOption) *Server {
	b := &builder{
		host:            currenturl.Config.String("server.host"),
		port:            currenturl.Config.Int("server.port"),
		gatewayPrefix:   currenturl.Config.String("server.gatewayPrefix"),
		incomingHeaders: currenturl.Config.Strings("server.incomingHeaders"),
		certFile:        currenturl.Config.String("server.tls.certFile"),
		keyFile:         currenturl.Config.String("server.tls.keyFile"),
		maxMsgSizeBytes: currenturl.Config.Int("server.maxMsgSizeBytes"),
		interceptor:     currenturl.NewInterceptor(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b.build()
}

type builder struct {
	host            string
	port            int
	incomingHeaders []string
	gatewayPrefix   string
	certFile        string
	keyFile         string
	maxMsgSizeBytes int
	logger          logging.Logger
	interceptor     currenturl.Interceptor
	httpHandlers    []handler
	interceptors    []grpc.UnaryServerInterceptor
	serverBuilders  []func(s *Server)
}

func (b *builder) build() *Server {
	gatewayOpts := append([]runtime.ServeMuxOption{
		runtime.WithMarshalerOption(runtime.MIMEWildcard, &runtime.JSONPb{
			MarshalOptions: JSONMarshalOptions,
		}),

		// Patch error responses to include a codeName for easier client handling.
		runtime.WithErrorHandler(gatewayErrorHandler),

		// By default standard headers and metadata prefixed with Grpc-Metadata-
		// will be propagated over HTTP.
		runtime.WithOutgoingHeaderMatcher(runtime.DefaultHeaderMatcher),
	}, serverutil.GatewayOptions(b.incomingHeaders...)...)

	ctx := context.Background()
	if b.logger != nil {
		ctx = logging.With(ctx, b.logger)
	} else {
		ctx = logging.With(ctx, logging.NewLogger(currenturl.Config.Bool("logging.production")))
	}

	s := &Server{
		baseContext: ctx,
		host:        b.host,
		port:        b.port,
		certFile:    b.certFile,
		keyFile:     b.keyFile,
		httpMux:     http.NewServeMux(),
		grpcServer:  grpc.NewServer(b.buildGRPCOpts()...),
		gatewayOpts: b.buildDialOpts(),
		grpcGateway: runtime.NewServeMux(gatewayOpts...),
		health:      health.NewServer(),
	}
	s.httpHandler = newHTTPHandler(s.httpMux, b.interceptor)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)

	for _, fn := range b.serverBuilders {
		fn(s)
	}

	prefix := b.gatewayPrefix
	if prefix == "" {
		prefix = defaultGatewayPrefix
	}
	s.httpMux.Handle(prefix, s.grpcGateway)
	s.httpMux.Handle("/healthz", wrapJSONHandler(healthHandler(s.health)))
	for _, h := range b.httpHandlers {
		if h.jsonHandler != nil {
			s.httpMux.Handle(h.prefix, wrapJSONHandler(h.jsonHandler))
		} else {
			s.httpMux.Handle(h.prefix, h.httpHandler)
		}
	}

	return s
}

func (b *builder) buildGRPCOpts() []grpc.ServerOption {
	interceptors := append([]grpc.UnaryServerInterceptor{
		logging.Interceptor(),
		serverutil.UnaryServerInterceptor(),
	}, b.interceptors...)
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(interceptors...)),
		grpc.StreamInterceptor(serverutil.StreamServerInterceptor()),
	}
	if b.isSecure() {
		opts = append(opts, grpc.Creds(serverTLSFromFile(b.certFile, b.keyFile)))
	}
	if b.maxMsgSizeBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(b.maxMsgSizeBytes))
	}
	return opts
}

func (b *builder) buildDialOpts() []grpc.DialOption {
	if b.isSecure() {
		return []grpc.DialOption{grpc.WithTransportCredentials(clientTLSFromFile(b.certFile))}
	}
	return []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
}

func (b *builder) isSecure() bool {
	return b.certFile != "" && b.keyFile != ""
}

// WithHost configures the hostname or IP the server will listen on. Overrides
// value set in config.
func WithHost(host string) ServerOption {
	return func(b *builder) {
		b.host = host
	}
}

// WithPort configures the port the server will listen on. Overrides value set
// in config.
func WithPort(port int) ServerOption {
	return func(b *builder) {
		b.port = port
	}
}

// WithIncomingHeaders specifies a safe-list of headers that are made available
// to GRPC handlers as metadata. `x-url` is always included.
func WithIncomingHeaders(headers ...string) ServerOption {
	return func(b *builder) {
		b.incomingHeaders = append(b.incomingHeaders, headers...)
	}
}

// WithTLS configures the server to allow traffic via TLS using the provided
// cert. If not called server will use HTTP/H2C.
func WithTLS(certFile, keyFile string) ServerOption {
	return func(b *builder) {
		b.certFile = certFile
		b.keyFile = keyFile
	}
}

// WithMaxRecvMsgSize sets the maximum GRPC message size. Default is 4Mb.
func WithMaxRecvMsgSize(maxMsgSizeBytes int) ServerOption {
	return func(b *builder) {
		b.maxMsgSizeBytes = maxMsgSizeBytes
	}
}

// WithGatewayPrefix sets the path prefix that the GRPC Gateway will be bound
// to. Default is `/v1/`.
func WithGatewayPrefix(prefix string) ServerOption {
	return func(b *builder) {
		b.gatewayPrefix = prefix
	}
}

// WithTrustForwardedHeaders controls whether X-Forwarded-Proto and
// X-Forwarded-Host are used when stamping `x-url`.
func WithTrustForwardedHeaders(trust bool) ServerOption {
	return func(b *builder) {
		b.interceptor.TrustForwardedHeaders = trust
	}
}

// WithStaticFiles configures the server to serve static files from disk for
// HTTP requests that match the given prefix.
func WithStaticFiles(prefix, dir string) ServerOption {
	return WithHTTPHandler(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
}

// WithHTTPHandler adds an HTTP handler.
func WithHTTPHandler(prefix string, h http.Handler) ServerOption {
	return func(b *builder) {
		b.httpHandlers = append(b.httpHandlers, handler{
			prefix:      prefix,
			httpHandler: h,
		})
	}
}

// WithHTTPHandlerFunc adds an HTTP handler function.
func WithHTTPHandlerFunc(prefix string, h func(http.ResponseWriter, *http.Request)) ServerOption {
	return WithHTTPHandler(prefix, http.HandlerFunc(h))
}

// WithJSONHandler adds a HTTP handler which returns JSON, serialized in a
// consistent way to GRPC Gateway responses.
func WithJSONHandler(prefix string, h JSONHandler) ServerOption {
	return func(b *builder) {
		b.httpHandlers = append(b.httpHandlers, handler{
			prefix:      prefix,
			jsonHandler: h,
		})
	}
}

// WithGRPCInterceptor configures GRPC Unary Interceptors. They will be executed
// in the order they were added, after logging and URL binding.
func WithGRPCInterceptor(interceptor grpc.UnaryServerInterceptor) ServerOption {
	return func(b *builder) {
		b.interceptors = append(b.interceptors, interceptor)
	}
}

// WithGRPCService registers a GRPC service handler.
func WithGRPCService(desc *grpc.ServiceDesc, impl any) ServerOption {
	return func(b *builder) {
		b.serverBuilders = append(b.serverBuilders, func(s *Server) {
			s.ServiceRegistrar().RegisterService(desc, impl)
		})
	}
}

// WithGRPCGateway registers a GRPC gateway handler.
//
// Example:
//
//	WithGRPCGateway(debugservice.RegisterDebugServiceHandlerFromEndpoint)
func WithGRPCGateway(fn func(ctx context.Context, mux *runtime.ServeMux, endpoint string, opts []grpc.DialOption) error) ServerOption {
	return func(b *builder) {
		b.serverBuilders = append(b.serverBuilders, func(s *Server) {
			err := fn(s.GatewayArgs())
			if err != nil {
				panic(err)
			}
		})
	}
}

// WithLogger overrides the logger used by the server.
func WithLogger(logger logging.Logger) ServerOption {
	return func(b *builder) {
		b.logger = logger
	}
}

// Creates credentials from a cert and key file.
// Based on credentials.NewServerTLSFromFile
func serverTLSFromFile(cert, key string) credentials.TransportCredentials {
	c, err := tls.LoadX509KeyPair(cert, key)
	if err != nil {
		panic(err)
	}
	tlsConfig := safeTLSConfig()
	tlsConfig.Certificates = []tls.Certificate{c}
	return credentials.NewTLS(tlsConfig)
}

// Based on credentials.NewClientTLSFromFile
func clientTLSFromFile(cert string) credentials.TransportCredentials {
	b, err := os.ReadFile(cert)
	if err != nil {
		panic(err)
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(b) {
		panic("Failed to append credentials")
	}
	tlsConfig := safeTLSConfig()
	tlsConfig.RootCAs = cp
	return credentials.NewTLS(tlsConfig)
}

// TLS1.2 min and support for HTTP2.
func safeTLSConfig() *tls.Config {
	return &tls.Config{
		NextProtos: []string{"h2"},
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
	}
}
