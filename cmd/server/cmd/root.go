// Package cmd holds the modkit-server commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information, set with -ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates the modkit-server command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modkit-server",
		Short: "modkit server - a modular HTTP API built on a DI container",
		Long: `modkit-server wires the application modules into a dependency injection
container, binds their controllers to a chi router and serves them.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringSliceP("config", "c", nil, "configuration file (yaml, toml, json or .env); repeat to layer files")

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewRoutesCommand())
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

// NewVersionCommand prints build information.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	}
}

// PrintVersion formats the version information.
func PrintVersion() string {
	return fmt.Sprintf("modkit-server v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

func configPaths(cmd *cobra.Command) ([]string, error) {
	return cmd.Flags().GetStringSlice("config")
}
