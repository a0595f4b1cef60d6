package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML (API keys omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and report missing API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			if missing := a.cfg.MissingAPIKeys(); len(missing) > 0 {
				return fmt.Errorf("missing required API keys: %s", strings.Join(missing, ", "))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "configuration ok (model: %s, search: %s)\n",
				a.cfg.ModelProvider, a.cfg.SearchProvider)
			return nil
		},
	})

	return cmd
}
