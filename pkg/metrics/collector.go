package metrics

import (
	"context"
	"time"

	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/types"
)

// Collector periodically refreshes the gauge metrics from the store, since
// nothing else in the engine updates them on a fixed schedule.
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(store storage.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.Collect()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

// Collect refreshes every store-derived gauge once. Start calls this on a
// timer for long-lived processes; a short-lived CLI invocation can call it
// directly before scraping instead.
func (c *Collector) Collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectContainerMetrics(ctx)
	c.collectImageMetrics(ctx)
	c.collectNetworkMetrics(ctx)
	c.collectVolumeMetrics(ctx)
}

func (c *Collector) collectContainerMetrics(ctx context.Context) {
	containers, err := c.store.ListContainers(ctx, nil)
	if err != nil {
		return
	}

	counts := map[types.ContainerState]int{
		types.StateCreated: 0,
		types.StateRunning: 0,
		types.StatePaused:  0,
		types.StateStopped: 0,
	}
	for _, ctr := range containers {
		counts[ctr.State]++
	}
	for state, count := range counts {
		ContainersTotal.WithLabelValues(string(state)).Set(float64(count))
	}
}

func (c *Collector) collectImageMetrics(ctx context.Context) {
	images, err := c.store.ListImages(ctx)
	if err != nil {
		return
	}
	ImagesTotal.Set(float64(len(images)))
}

func (c *Collector) collectNetworkMetrics(ctx context.Context) {
	networks, err := c.store.ListNetworks(ctx)
	if err != nil {
		return
	}
	NetworksTotal.Set(float64(len(networks)))
}

func (c *Collector) collectVolumeMetrics(ctx context.Context) {
	volumes, err := c.store.ListVolumes(ctx)
	if err != nil {
		return
	}
	VolumesTotal.Set(float64(len(volumes)))
}
