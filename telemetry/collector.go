package telemetry

import (
	"sync"
	"time"
)

// StatsProvider interface for components that provide stats
type StatsProvider interface {
	OpenBlobCount() int
	CachedStatementCount() int
}

// MetricsCollector periodically collects stats and updates telemetry gauges
type MetricsCollector struct {
	providers []StatsProvider
	interval  time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(interval time.Duration, providers ...StatsProvider) *MetricsCollector {
	return &MetricsCollector{
		providers: providers,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic collection
func (mc *MetricsCollector) Start() {
	mc.wg.Add(1)
	go mc.collectLoop()
}

// Stop stops the collector
func (mc *MetricsCollector) Stop() {
	close(mc.stopCh)
	mc.wg.Wait()
}

func (mc *MetricsCollector) collectLoop() {
	defer mc.wg.Done()

	ticker := time.NewTicker(mc.interval)
	defer ticker.Stop()

	mc.collect()

	for {
		select {
		case <-ticker.C:
			mc.collect()
		case <-mc.stopCh:
			return
		}
	}
}

func (mc *MetricsCollector) collect() {
	var blobs, statements int

	for _, provider := range mc.providers {
		if provider == nil {
			continue
		}
		blobs += provider.OpenBlobCount()
		statements += provider.CachedStatementCount()
	}

	OpenBlobs.Set(float64(blobs))
	CachedStatements.Set(float64(statements))
}
