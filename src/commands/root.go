// Package commands holds the fintrack command line: the API server, schema
// migrations and offline calculators.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance tracking and planning server",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newCalcCommand())

	return rootCmd
}

// Execute runs the CLI. With no arguments it starts the server.
func Execute() {
	root := NewRootCommand()
	if len(os.Args) == 1 {
		root.SetArgs([]string{"serve"})
	}
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
