package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Resource inventory metrics, refreshed by Collector.
	ContainersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vordr_containers_total",
			Help: "Total number of containers by state",
		},
		[]string{"state"},
	)

	ImagesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vordr_images_total",
			Help: "Total number of images in the local store",
		},
	)

	NetworksTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vordr_networks_total",
			Help: "Total number of networks in the local store",
		},
	)

	VolumesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vordr_volumes_total",
			Help: "Total number of volumes in the local store",
		},
	)

	// Lifecycle operation metrics.
	ContainerOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vordr_container_operation_duration_seconds",
			Help:    "Time taken to complete a lifecycle operation, by operation name",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ContainerOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vordr_container_operations_total",
			Help: "Total lifecycle operations by operation name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	GatekeeperRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vordr_gatekeeper_rejections_total",
			Help: "Total configurations rejected by the gatekeeper, by rejection kind",
		},
		[]string{"kind"},
	)

	RuntimeShimInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vordr_runtimeshim_invocations_total",
			Help: "Total external runtime binary invocations by subcommand and outcome",
		},
		[]string{"command", "outcome"},
	)

	LocksReapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vordr_locks_reaped_total",
			Help: "Total stale advisory locks reaped from dead owners",
		},
	)

	LockContentionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vordr_lock_contention_total",
			Help: "Total lock acquisitions that failed because the resource was already held",
		},
	)
)

func init() {
	prometheus.MustRegister(ContainersTotal)
	prometheus.MustRegister(ImagesTotal)
	prometheus.MustRegister(NetworksTotal)
	prometheus.MustRegister(VolumesTotal)
	prometheus.MustRegister(ContainerOperationDuration)
	prometheus.MustRegister(ContainerOperationsTotal)
	prometheus.MustRegister(GatekeeperRejectionsTotal)
	prometheus.MustRegister(RuntimeShimInvocationsTotal)
	prometheus.MustRegister(LocksReapedTotal)
	prometheus.MustRegister(LockContentionTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
