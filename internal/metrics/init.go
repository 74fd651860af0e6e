package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Stream messages (per topic × status) ---
	topics := []string{"frames.tracker", "frames.raw", "frames.matches", "frames.color", "frames.alert"}
	for _, topic := range topics {
		StreamMessagesTotal.WithLabelValues(topic, "ok")
		StreamMessagesTotal.WithLabelValues(topic, "malformed")
	}

	// --- Connection phases ---
	for _, phase := range []string{"connecting", "connected", "reconnecting"} {
		StreamConnectionPhase.WithLabelValues(phase)
	}

	// --- Session persistence (per blob) ---
	for _, blob := range []string{"cameras", "ledger"} {
		SessionPersistErrors.WithLabelValues(blob)
		SessionPersistDuration.WithLabelValues(blob)
	}
}
