package main

import (
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cuemby/vordr/pkg/log"
	"github.com/cuemby/vordr/pkg/metrics"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "System-level utilities",
}

var metricsListen string

// systemMetricsCmd is the one deliberately long-running vordr command: it
// holds the state store open, refreshes the store-derived gauges on a
// timer, and serves the Prometheus and health endpoints until interrupted.
// Container operations still happen in their own short-lived invocations;
// this process only observes.
var systemMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve Prometheus metrics and health endpoints over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		metrics.SetVersion(version)
		metrics.RegisterComponent("storage", true, "")
		registerRuntimeHealth()

		collector := metrics.NewCollector(a.store)
		collector.Start()
		defer collector.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())

		systemLogger := log.WithComponent("system")
		systemLogger.Info().Str("listen", metricsListen).Msg("serving metrics and health endpoints")
		return http.ListenAndServe(metricsListen, mux)
	},
}

func init() {
	systemMetricsCmd.Flags().StringVar(&metricsListen, "listen", "127.0.0.1:9090", "address to serve metrics and health endpoints on")
	systemCmd.AddCommand(systemMetricsCmd)
}

// registerRuntimeHealth reports whether the configured runtime binary is
// resolvable, the same lookup pkg/runtimeshim performs per invocation.
func registerRuntimeHealth() {
	if filepath.IsAbs(runtimeBinary) {
		if _, err := os.Stat(runtimeBinary); err != nil {
			metrics.RegisterComponent("runtimeshim", false, err.Error())
			return
		}
	} else if _, err := exec.LookPath(runtimeBinary); err != nil {
		metrics.RegisterComponent("runtimeshim", false, err.Error())
		return
	}
	metrics.RegisterComponent("runtimeshim", true, "")
}
