// Package cli implements the classwatch command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/classwatch/internal/log"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity  int
	logFormat  string
	configFile string
	languages  string
}

// rootCmd watches a source tree; subcommands run the same cleanup once.
var rootCmd = &cobra.Command{
	Use:   "classwatch [flags] <dir>",
	Short: "Delete stale compiled classes when JVM sources change",
	Long: `classwatch watches a JVM source tree and, whenever a source file is
modified or deleted, removes the build artifacts derived from it: compiled
classes (including inner and anonymous variants) and annotation-processor
generated sources. Directories left empty are pruned.

A source under src/main/<lang>/ maps to target/classes/ and
target/generated-sources/annotations/; a source under src/test/<lang>/
maps to target/test-classes/ and
target/generated-test-sources/test-annotations/.

Example output:

  $ classwatch ~/work/app

  classwatch: watching 84 directories in /home/me/work/app (tree)
  classwatch: rules: java/main, java/test
  classwatch: ready

  [14:32:15] - /home/me/work/app/target/classes/com/x/Foo.class
  [14:32:15] - /home/me/work/app/target/classes/com/x/Foo$1.class

Press Ctrl+C to stop watching.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "classwatch %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Global flags (persistent across all commands)
	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "",
		"Read configuration from this file instead of the layered search")
	rootCmd.PersistentFlags().StringVar(&globalFlags.languages, "languages", "",
		"Generate rules for these languages (comma-separated: java,kotlin,scala,groovy)")

	rootCmd.PersistentPreRunE = initLogging
}

// initLogging applies the logging flags before any command runs.
func initLogging(*cobra.Command, []string) error {
	format, err := log.ParseFormat(globalFlags.logFormat)
	if err != nil {
		return err
	}
	log.Init(globalFlags.verbosity, format)
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
