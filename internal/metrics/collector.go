package metrics

import (
	"time"

	"camwatch/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current session statistics
type Stats struct {
	Cameras       int
	LedgerEntries int
	AlertActive   bool
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CamerasKnown.Set(float64(stats.Cameras))
	LedgerSize.Set(float64(stats.LedgerEntries))
	if stats.AlertActive {
		AlertActive.Set(1)
	} else {
		AlertActive.Set(0)
	}

	logging.Debug("Metrics collected: cameras=%d, ledger=%d, alert=%v",
		stats.Cameras, stats.LedgerEntries, stats.AlertActive)
}
