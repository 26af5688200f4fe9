// Command vordr is a thin CLI over the core engine packages: it parses
// flags, loads a run-spec, calls into pkg/gatekeeper and pkg/lifecycle, and
// prints the result. All engineering substance lives in pkg/; nothing here
// does more than wire a subcommand to a handful of method calls.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/vordr/pkg/log"
)

const version = "0.1.0"

var (
	logLevel               string
	logJSON                bool
	dataDir                string
	runtimeBinary          string
	insecureStubGatekeeper bool
)

var rootCmd = &cobra.Command{
	Use:     "vordr",
	Short:   "vordr is a daemonless OCI container engine",
	Version: version,
	Long: `vordr runs OCI containers directly from a CLI invocation, with no
background daemon: each command opens the state store, does its work, and
exits.`,
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs instead of console output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "/var/lib/vordr", "directory holding vordr's state database and container bundles")
	rootCmd.PersistentFlags().StringVar(&runtimeBinary, "runtime", "runc", "low-level OCI runtime binary (name on PATH, or absolute path)")
	rootCmd.PersistentFlags().BoolVar(&insecureStubGatekeeper, "insecure-stub-gatekeeper", false, "DEVELOPMENT ONLY: accept every configuration without validation")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(unpauseCmd)
	rootCmd.AddCommand(systemCmd)
}

func initLogging() {
	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
