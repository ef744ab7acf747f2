// Package cli provides the command-line interface for ozmeta.
package cli

import (
	"fmt"
	"os"

	"github.com/ozmeta-labs/ozmeta/internal/cli/commands"
	"github.com/ozmeta-labs/ozmeta/internal/cli/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ozmeta",
		Short: "OZMeta - Metadata-Driven Platform Compiler",
		Long: `OZMeta compiles a canonical metadata snapshot into deterministic,
platform-specific database artifacts.

A snapshot describes tables, relations, metrics, jobs, and deployment
targets once; ozmeta projects it onto each enabled platform, emits DDL
and supporting files, and writes a SHA-256 manifest so identical input
always produces byte-identical output.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			log := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), log))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Metadata-driven platform compiler
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ozmeta.yaml)")
	rootCmd.PersistentFlags().StringP("snapshot", "s", "", "Path to the snapshot document")
	rootCmd.PersistentFlags().String("profiles", "", "Path to a platform profile set (default: built-in profiles)")
	rootCmd.PersistentFlags().String("out", "", "Output directory for generated artifacts")
	rootCmd.PersistentFlags().String("state", "", "Path to the deployment state database")
	rootCmd.PersistentFlags().Int("workers", 0, "Max parallel target compilations (0 = number of CPUs)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewDriftCommand())
	rootCmd.AddCommand(commands.NewMetricsCommand())
	rootCmd.AddCommand(commands.NewJobsCommand())
	rootCmd.AddCommand(commands.NewLineageCommand())
	rootCmd.AddCommand(commands.NewDeployCommand())

	return rootCmd
}

// Execute runs the root command and returns the error for exit-code mapping.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
