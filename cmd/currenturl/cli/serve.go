package cli

import (
	"net/http"
	"path"
	"strings"

	"github.com/dpup/currenturl/server"
	"github.com/dpup/currenturl/templates"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	host           string
	port           int
	trustForwarded bool
	templateDirs   []string
	staticDir      string
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an HTTP and gRPC server that reports the current URL",
		Long: `Start a server with the following routes:

  /api/url   JSON description of the URL the request was made to
  /healthz   health status
  /static/   files from --static-dir
  /          pages rendered from *.tmpl files in --templates`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newServer(cmd, opts)
			if err != nil {
				return err
			}
			return s.Start()
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.host, "host", "", "host to listen on, overrides server.host")
	fs.IntVar(&opts.port, "port", 0, "port to listen on, overrides server.port")
	fs.BoolVar(&opts.trustForwarded, "trust-forwarded-headers", false, "use X-Forwarded-Proto and X-Forwarded-Host")
	fs.StringArrayVar(&opts.templateDirs, "templates", nil, "template directory, may be repeated")
	fs.StringVar(&opts.staticDir, "static-dir", "", "directory served under /static/")
	return cmd
}

func newServer(cmd *cobra.Command, opts serveOptions) (*server.Server, error) {
	serverOpts := []server.ServerOption{
		server.WithJSONHandler("/api/url", server.CurrentURLHandler),
	}
	if cmd.Flags().Changed("host") {
		serverOpts = append(serverOpts, server.WithHost(opts.host))
	}
	if cmd.Flags().Changed("port") {
		serverOpts = append(serverOpts, server.WithPort(opts.port))
	}
	if cmd.Flags().Changed("trust-forwarded-headers") {
		serverOpts = append(serverOpts, server.WithTrustForwardedHeaders(opts.trustForwarded))
	}
	if opts.staticDir != "" {
		serverOpts = append(serverOpts, server.WithStaticFiles("/static/", opts.staticDir))
	}

	renderer := templates.New()
	if len(opts.templateDirs) > 0 || renderer.HasDirs() {
		if err := renderer.Load(opts.templateDirs...); err != nil {
			return nil, err
		}
		serverOpts = append(serverOpts, server.WithHTTPHandler("/", pages(renderer)))
	}

	return server.New(serverOpts...), nil
}

// pages renders /about with about.tmpl and / with index.tmpl. Templates are
// named by file, so /docs/about also renders about.tmpl.
func pages(r *templates.Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name := strings.Trim(path.Clean(req.URL.Path), "/")
		if name == "" {
			name = "index"
		}
		name = path.Base(name) + ".tmpl"
		if !r.Has(name) {
			http.NotFound(w, req)
			return
		}
		r.Handler(name, nil).ServeHTTP(w, req)
	})
}
