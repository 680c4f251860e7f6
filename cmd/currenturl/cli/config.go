package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dpup/currenturl"
	"github.com/spf13/cobra"
)

var errUnknownConfigKeys = errors.New("config has unknown keys")

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(newConfigCheckCmd(), newConfigKeysCmd())
	return cmd
}

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report unknown configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if warnings := currenturl.ConfigWarnings(); warnings != "" {
				fmt.Fprint(cmd.OutOrStdout(), warnings)
				return errUnknownConfigKeys
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config check: OK")
			return nil
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List known configuration keys and their current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tTYPE\tVALUE\tDESCRIPTION")
			for _, info := range currenturl.RegisteredConfigKeys() {
				value := ""
				if currenturl.Config.Exists(info.Key) {
					value = fmt.Sprint(currenturl.Config.Get(info.Key))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Key, info.Type, value, info.Description)
			}
			return w.Flush()
		},
	}
}
