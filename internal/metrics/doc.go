// Package metrics defines the Prometheus metrics exported by camwatch
// and a small collector that periodically mirrors store statistics into
// gauges.
//
// Metrics are registered at package load via promauto. Call
// InitializeMetrics once at startup so every label combination is
// present from the first scrape.
package metrics
