package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/regkit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create regkit configuration",
	Long: `Inspect and create regkit configuration.

Settings are read, in increasing priority, from built-in defaults, the first
config file found (--config, ./.regkit.yaml, ~/.config/regkit/config.yaml),
REGKIT_* environment variables and command-line flags.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			if cfgPaths == nil {
				return errors.New("cannot determine config directory")
			}
			path = cfgPaths.Config
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]string{"path": path})
		}
		newPrinter(cmd.OutOrStdout()).Success("Wrote " + path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]any{
				"source": cfgUsed,
				"config": c,
			})
		}

		data, err := config.Marshal(c)
		if err != nil {
			return err
		}
		source := cfgUsed
		if source == "" {
			source = "defaults"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", source, data)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
