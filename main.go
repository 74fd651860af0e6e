package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"camwatch/internal/compositor"
	"camwatch/internal/event"
	"camwatch/internal/handlers"
	"camwatch/internal/logging"
	"camwatch/internal/metrics"
	"camwatch/internal/middleware"
	"camwatch/internal/session"
	"camwatch/internal/startup"
	"camwatch/internal/state"
	"camwatch/internal/stream"
	"camwatch/internal/transport"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()

	// Session persistence opens first so the stores can rehydrate
	// before any live events arrive.
	store, err := session.New(context.Background(), config.StatePath, config.PersistThumbnails)
	if err != nil {
		startup.LogFatal("Failed to initialize session store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("failed to close session store: %v", err)
		}
	}()

	stores := buildStores(config, store)
	comp := compositor.New(stores.Tags)

	tcfg := transport.Config{
		URL:  config.NATSURL,
		Name: "camwatch",
	}
	dial := func(ctx context.Context) (stream.Connection, error) {
		conn, err := transport.Connect(ctx, tcfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	client := stream.New(dial, stores, comp, stream.Config{
		InitialBackoff: config.ReconnectInitial,
		MaxBackoff:     config.ReconnectMax,
	})

	runCtx, cancelRun := context.WithCancel(context.Background())
	go client.Run(runCtx)

	collector := metrics.NewCollector(&statsProvider{stores: stores}, 15*time.Second)
	collector.Start()

	if config.MetricsEnabled {
		go serveMetrics(config.MetricsPort)
	}

	h := handlers.New(client, stores, comp)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(
		middleware.Metrics(middleware.DefaultMetricsConfig())(h.Router()))

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, cancelRun, collector, stores, store)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// buildStores creates the session stores, wires their persistence
// callbacks, and rehydrates them from the session store. Persistence
// failures are logged and skipped: in-memory state stays authoritative.
func buildStores(config *startup.Config, store *session.Store) stream.Stores {
	registry := state.NewCameraRegistry(func(cameras []string) {
		if err := store.SaveCameras(cameras); err != nil {
			logging.Warn("Skipping camera persist: %v", err)
		}
	})
	ledger := state.NewLedger(config.LedgerCapacity, func(records []event.MatchRecord) {
		if err := store.SaveLedger(records); err != nil {
			logging.Warn("Skipping ledger persist: %v", err)
		}
	})

	if cameras, err := store.LoadCameras(); err != nil {
		logging.Warn("Failed to load persisted cameras: %v", err)
	} else if len(cameras) > 0 {
		registry.Rehydrate(cameras)
		logging.Info("Restored %d cameras from previous session", len(cameras))
	}

	if records, err := store.LoadLedger(); err != nil {
		logging.Warn("Failed to load persisted ledger: %v", err)
	} else if len(records) > 0 {
		ledger.Rehydrate(records)
		logging.Info("Restored %d ledger records from previous session", ledger.Len())
	}

	return stream.Stores{
		Registry: registry,
		Ledger:   ledger,
		Tags:     state.NewTagStore(config.TagTTL),
		Alert:    state.NewAlertReducer(config.AlertTTL),
	}
}

// statsProvider adapts the stores to the metrics collector.
type statsProvider struct {
	stores stream.Stores
}

func (p *statsProvider) GetStats() metrics.Stats {
	return metrics.Stats{
		Cameras:       p.stores.Registry.Len(),
		LedgerEntries: p.stores.Ledger.Len(),
		AlertActive:   p.stores.Alert.Level() == event.AlertActive,
	}
}

func serveMetrics(port string) {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+port, m); err != nil {
		logging.Error("Metrics server error: %v", err)
	}
}

func handleShutdown(srv *http.Server, cancelRun context.CancelFunc, collector *metrics.Collector, stores stream.Stores, store *session.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	startup.LogShutdownStep("Stopping stream client")
	cancelRun()

	startup.LogShutdownStep("Cancelling decay timers")
	stores.Tags.Stop()
	stores.Alert.Stop()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()

	// Final ledger flush so a restart within the session loses nothing.
	startup.LogShutdownStep("Flushing ledger")
	if err := store.SaveLedger(stores.Ledger.List()); err != nil {
		logging.Warn("Final ledger flush failed: %v", err)
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	startup.LogShutdownComplete()
}
