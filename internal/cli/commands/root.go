package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cdfgraph",
		Short: "Hierarchical scientific metadata tooling",
		Long: color.CyanString(`cdfgraph - Self-Describing Array Metadata

cdfgraph manages the metadata graph of hierarchical scientific datasets:
groups, dimensions, typed variables, attributes, and user-defined types.

Features:
  • Named groups with lexically scoped dimensions and types
  • Compound, enum, variable-length, and opaque user types
  • Define/data mode lifecycle with all-or-nothing validation
  • Pluggable JSON and SQLite metadata stores`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewConvertCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the cdfgraph version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Print("cdfgraph version: ")
			valueColor.Println(Version)

			titleColor.Print("Git commit: ")
			valueColor.Println(GitCommit)

			titleColor.Print("Build date: ")
			valueColor.Println(BuildDate)

			titleColor.Print("Go version: ")
			valueColor.Println(goVer)
		},
	}
}
