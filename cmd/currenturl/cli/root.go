// Package cli implements the currenturl command.
package cli

import (
	"fmt"

	"github.com/dpup/currenturl"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Run(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

type rootOptions struct {
	envFiles []string
	cfgPath  string
}

func newRootCmd() *cobra.Command {
	opts := rootOptions{}
	cmd := &cobra.Command{
		Use:           "currenturl",
		Short:         "Resolve and serve the current request URL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(opts)
		},
	}
	fs := cmd.PersistentFlags()
	fs.StringArrayVar(&opts.envFiles, "env-file", nil, "dotenv file to load, may be repeated")
	fs.StringVarP(&opts.cfgPath, "config", "c", "", "additional config yaml path")

	cmd.AddCommand(
		newResolveCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
	return cmd
}

// loadConfig applies --config then the environment, so that env vars keep
// precedence over files.
func loadConfig(opts rootOptions) error {
	if len(opts.envFiles) > 0 {
		if err := godotenv.Overload(opts.envFiles...); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if opts.cfgPath != "" {
		if err := currenturl.LoadConfigFile(opts.cfgPath); err != nil {
			return fmt.Errorf("load config %s: %w", opts.cfgPath, err)
		}
	}
	return currenturl.LoadConfigEnv()
}
