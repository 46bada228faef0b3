package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/danieljhkim/regkit/internal/config"
)

var (
	// Global flags
	jsonOutput bool
	cfgFile    string
	logLevel   string
	logFormat  string

	// Loaded by initConfig before any command runs
	cfg        config.Config
	cfgUsed    string
	cfgPaths   *config.Paths
	cfgLoadErr error

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for regkit.
var rootCmd = &cobra.Command{
	Use:     "regkit",
	Version: "dev",
	Short:   "Sequential pairwise image registration toolkit",
	Long: `regkit registers an ordered image sequence to one fixed reference image.

Each image is registered to its already-aligned neighbour, walking outward
from the reference in both directions, so transforms accumulate along the
sequence instead of spanning large distances in one step.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// customHelpFunc returns a custom help function that colors group titles
func customHelpFunc(cmd *cobra.Command, args []string) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	} else if cmd.Short != "" {
		help.WriteString(cmd.Short)
		help.WriteString("\n\n")
	}

	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s\n\n", cmd.UseLine())

	if cmd.Example != "" {
		help.WriteString(sectionTitleColor.Sprint("Examples:"))
		help.WriteString("\n")
		help.WriteString(cmd.Example)
		help.WriteString("\n\n")
	}

	for _, group := range cmd.Groups() {
		help.WriteString(groupTitleColor.Sprint(group.Title))
		help.WriteString("\n")

		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && !c.Hidden {
				fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}

	// Ungrouped subcommands, e.g. config init/show
	hasUngrouped := false
	for _, c := range cmd.Commands() {
		if c.GroupID == "" && !c.Hidden {
			if !hasUngrouped {
				help.WriteString(sectionTitleColor.Sprint("Commands:"))
				help.WriteString("\n")
				hasUngrouped = true
			}
			fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
		}
	}
	if hasUngrouped {
		help.WriteString("\n")
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailablePersistentFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	}

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

// initConfig loads configuration once flags are parsed. Errors are kept in
// cfgLoadErr and reported by the commands that need configuration, so that
// help and version keep working with a broken config file.
func initConfig() {
	cfgPaths, cfgLoadErr = config.DefaultPaths()
	if cfgLoadErr != nil {
		return
	}

	v := viper.New()
	bindFlags(v)
	cfg, cfgUsed, cfgLoadErr = config.Load(v, cfgFile, cfgPaths)
}

// bindFlags makes explicitly set flags override file and environment values.
func bindFlags(v *viper.Viper) {
	bindings := []struct {
		key  string
		flag *pflag.Flag
	}{
		{"log.level", rootCmd.PersistentFlags().Lookup("log-level")},
		{"log.format", rootCmd.PersistentFlags().Lookup("log-format")},
		{"register.parallel", registerCmd.Flags().Lookup("parallel")},
		{"elastix.binary", registerCmd.Flags().Lookup("elastix")},
	}
	for _, b := range bindings {
		if b.flag != nil {
			_ = v.BindPFlag(b.key, b.flag)
		}
	}
}

// loadedConfig returns the configuration read by initConfig.
func loadedConfig() (config.Config, error) {
	if cfgLoadErr != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", cfgLoadErr)
	}
	return cfg, nil
}

func init() {
	cobra.OnInitialize(initConfig)

	// Set custom help function to color group titles
	rootCmd.SetHelpFunc(customHelpFunc)

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./.regkit.yaml, then ~/.config/regkit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "registration",
		Title: "Registration:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "imaging",
		Title: "Image Utilities:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the regkit CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetHelpCommandGroupID("cli-tooling")
	rootCmd.SetCompletionCommandGroupID("cli-tooling")

	// Registration commands
	registerCmd.GroupID = "registration"
	rootCmd.AddCommand(registerCmd)

	// Image utilities
	diffCmd.GroupID = "imaging"
	grayCmd.GroupID = "imaging"
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(grayCmd)

	configCmd.GroupID = "cli-tooling"
	rootCmd.AddCommand(configCmd)
}

// ExecuteContext executes the root command with ctx, so that cancelling ctx
// stops a running registration between jobs.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
