package cli

import (
	"fmt"
	"strings"

	"github.com/dpup/currenturl"
	"github.com/spf13/cobra"
)

type resolveOptions struct {
	url          string
	headers      []string
	deployment   string
	platformHost string
	browserURL   string
}

func newResolveCmd() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the URL of a described request",
		Example: `  currenturl resolve --url /docs --header host=example.com
  currenturl resolve --url /docs --header x-url=https://example.com/docs
  currenturl resolve --url /docs --platform-host myapp.example --deployment production`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.url, "url", "", "URL the request was received on, relative or absolute")
	fs.StringArrayVarP(&opts.headers, "header", "H", nil, "request header as name=value, may be repeated")
	fs.StringVar(&opts.deployment, "deployment", "", "deployment name, overrides currentURL.deploymentEnv")
	fs.StringVar(&opts.platformHost, "platform-host", "", "platform hostname, overrides currentURL.platformHost")
	fs.StringVar(&opts.browserURL, "browser-url", "", "simulate a browser whose location is this URL")
	return cmd
}

func runResolve(cmd *cobra.Command, opts resolveOptions) error {
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	env := currenturl.EnvironmentFromConfig()
	if cmd.Flags().Changed("deployment") {
		env.Deployment = opts.deployment
	}
	if cmd.Flags().Changed("platform-host") {
		env.PlatformHost = opts.platformHost
	}

	probe := currenturl.NoBrowser
	if opts.browserURL != "" {
		probe = currenturl.StaticProbe(opts.browserURL)
	}

	u, err := currenturl.New(
		currenturl.WithProbe(probe),
		currenturl.WithEnvironment(env),
	).Resolve(currenturl.NewIncomingMessage(opts.url, headers))
	if err != nil {
		return err
	}

	if u == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "<nil>")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), u.String())
	return nil
}

func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected name=value", v)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
