package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/learnchat/internal/config"
)

// NewConfigCmd creates the config command
func NewConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Open configuration menu",
		Long: `Interactive menu to configure learnchat settings.

Settings are saved to ~/.learnchat/config.json as they change. Environment
variables (LEARNCHAT_SERVER_URL, OPENAI_API_KEY, ...) override the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			return a.deps.TUI.RunConfig(a.config(), path, a.deps.SaveConfig)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(a.deps.Stdout, a.config())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.deps.Stdout, path)
			return nil
		},
	})

	return cmd
}
