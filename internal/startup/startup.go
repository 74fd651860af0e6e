package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"camwatch/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Config holds all application configuration
type Config struct {
	NATSURL     string
	StateDir    string
	Port        string
	MetricsPort string

	TagTTL         time.Duration
	AlertTTL       time.Duration
	LedgerCapacity int

	ReconnectInitial time.Duration
	ReconnectMax     time.Duration

	PersistThumbnails bool
	LogHealthChecks   bool
	MetricsEnabled    bool

	// Derived paths
	StatePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	natsURL := getEnv("NATS_URL", "nats://localhost:4222")
	stateDir := getEnv("STATE_DIR", "/state")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	tagTTL := getEnvDuration("TAG_TTL", 10*time.Second)
	alertTTL := getEnvDuration("ALERT_TTL", 5*time.Second)
	ledgerCapacity := getEnvInt("LEDGER_CAPACITY", 50)
	reconnectInitial := getEnvDuration("RECONNECT_INITIAL", 1*time.Second)
	reconnectMax := getEnvDuration("RECONNECT_MAX", 30*time.Second)
	persistThumbnails := getEnvBool("PERSIST_THUMBNAILS", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  NATS_URL:            %s", natsURL)
	logging.Info("  STATE_DIR:           %s", stateDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  TAG_TTL:             %v", tagTTL)
	logging.Info("  ALERT_TTL:           %v", alertTTL)
	logging.Info("  LEDGER_CAPACITY:     %d", ledgerCapacity)
	logging.Info("  RECONNECT_INITIAL:   %v", reconnectInitial)
	logging.Info("  RECONNECT_MAX:       %v", reconnectMax)
	logging.Info("  PERSIST_THUMBNAILS:  %v", persistThumbnails)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	stateDir, err := filepath.Abs(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory path: %w", err)
	}

	if err := ensureDirectory(stateDir); err != nil {
		return nil, fmt.Errorf("state directory error: %w", err)
	}

	if err := testWriteAccess(stateDir); err != nil {
		return nil, fmt.Errorf("state directory is not writable (required for session persistence): %w", err)
	}
	logging.Info("  [OK] State directory is writable: %s", stateDir)

	return &Config{
		NATSURL:           natsURL,
		StateDir:          stateDir,
		Port:              port,
		MetricsPort:       metricsPort,
		TagTTL:            tagTTL,
		AlertTTL:          alertTTL,
		LedgerCapacity:    ledgerCapacity,
		ReconnectInitial:  reconnectInitial,
		ReconnectMax:      reconnectMax,
		PersistThumbnails: persistThumbnails,
		LogHealthChecks:   logHealthChecks,
		MetricsEnabled:    metricsEnabled,
		StatePath:         filepath.Join(stateDir, "session.db"),
	}, nil
}

func printBanner() {
	logging.Info("============================================================")
	logging.Info("  camwatch %s (%s)", Version, Commit)
	logging.Info("  built %s with %s, %s/%s", BuildTime, GoVersion, runtime.GOOS, runtime.GOARCH)
	logging.Info("============================================================")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		logging.Warn("  Invalid %s value %q, using default %v", key, v, fallback)
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logging.Warn("  Invalid %s value %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logging.Warn("  Invalid %s value %q, using default %v", key, v, fallback)
		return fallback
	}
	return d
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove test file %s: %v", testFile, err)
	}
	return nil
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("VIEWER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs the start of a graceful shutdown
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN (%s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs one shutdown step
func LogShutdownStep(step string) {
	logging.Info("  %s...", step)
}

// LogShutdownComplete logs the end of a graceful shutdown
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}
