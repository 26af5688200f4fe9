/*
Package metrics exposes Prometheus metrics and health/readiness/liveness
endpoints for vordr.

Counters and histograms (ContainerOperationsTotal, ContainerOperationDuration,
GatekeeperRejectionsTotal, RuntimeShimInvocationsTotal, lock metrics) are
updated directly by the packages that perform those operations, whatever
process they run in. Gauges that reflect store contents (ContainersTotal,
ImagesTotal, NetworksTotal, VolumesTotal) are refreshed by Collector — on a
timer via Start in the long-running `vordr system metrics` process, which
is also what mounts Handler, HealthHandler, ReadyHandler, and
LivenessHandler over HTTP; or one-shot via Collect.

# Usage

	collector := metrics.NewCollector(store)
	collector.Start()
	defer collector.Stop()

	metrics.SetVersion(version)
	metrics.RegisterComponent("storage", true, "")
	metrics.RegisterComponent("runtimeshim", true, "")

	http.Handle("/metrics", metrics.Handler())
	http.Handle("/health", metrics.HealthHandler())
	http.Handle("/ready", metrics.ReadyHandler())
	http.Handle("/live", metrics.LivenessHandler())

Readiness considers "storage" and "runtimeshim" critical: until both are
registered healthy, /ready reports not_ready while /live still reports 200.
*/
package metrics
