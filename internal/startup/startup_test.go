package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"NATS_URL", "STATE_DIR", "PORT", "METRICS_PORT", "TAG_TTL", "ALERT_TTL",
		"LEDGER_CAPACITY", "RECONNECT_INITIAL", "RECONNECT_MAX",
		"PERSIST_THUMBNAILS", "LOG_HEALTH_CHECKS", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("STATE_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.Port != "8080" || cfg.MetricsPort != "9090" {
		t.Errorf("ports = %q/%q, want 8080/9090", cfg.Port, cfg.MetricsPort)
	}
	if cfg.TagTTL != 10*time.Second {
		t.Errorf("TagTTL = %v, want 10s", cfg.TagTTL)
	}
	if cfg.AlertTTL != 5*time.Second {
		t.Errorf("AlertTTL = %v, want 5s", cfg.AlertTTL)
	}
	if cfg.LedgerCapacity != 50 {
		t.Errorf("LedgerCapacity = %d, want 50", cfg.LedgerCapacity)
	}
	if cfg.ReconnectInitial != time.Second || cfg.ReconnectMax != 30*time.Second {
		t.Errorf("reconnect = %v/%v, want 1s/30s", cfg.ReconnectInitial, cfg.ReconnectMax)
	}
	if !cfg.PersistThumbnails || cfg.LogHealthChecks || !cfg.MetricsEnabled {
		t.Errorf("bool defaults = %v/%v/%v", cfg.PersistThumbnails, cfg.LogHealthChecks, cfg.MetricsEnabled)
	}
	if cfg.StatePath != filepath.Join(cfg.StateDir, "session.db") {
		t.Errorf("StatePath = %q", cfg.StatePath)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STATE_DIR", t.TempDir())
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("PORT", "9000")
	t.Setenv("TAG_TTL", "30s")
	t.Setenv("LEDGER_CAPACITY", "100")
	t.Setenv("PERSIST_THUMBNAILS", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.NATSURL != "nats://broker:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.TagTTL != 30*time.Second {
		t.Errorf("TagTTL = %v", cfg.TagTTL)
	}
	if cfg.LedgerCapacity != 100 {
		t.Errorf("LedgerCapacity = %d", cfg.LedgerCapacity)
	}
	if cfg.PersistThumbnails {
		t.Error("PersistThumbnails should be false")
	}
}

func TestLoadConfigStateDirNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STATE_DIR", file)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-directory STATE_DIR")
	}
}

func TestLoadConfigCreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	t.Setenv("STATE_DIR", dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	info, err := os.Stat(cfg.StateDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("state dir not created: %v", err)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"ON", false, true},
		{"false", true, false},
		{"0", true, false},
		{"off", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if tt.value == "" {
				os.Unsetenv("TEST_BOOL")
			} else {
				t.Setenv("TEST_BOOL", tt.value)
			}
			if got := getEnvBool("TEST_BOOL", tt.fallback); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestGetEnvIntRejectsNonPositive(t *testing.T) {
	t.Setenv("TEST_INT", "-5")
	if got := getEnvInt("TEST_INT", 50); got != 50 {
		t.Errorf("negative value: got %d, want fallback 50", got)
	}
	t.Setenv("TEST_INT", "abc")
	if got := getEnvInt("TEST_INT", 50); got != 50 {
		t.Errorf("garbage value: got %d, want fallback 50", got)
	}
	t.Setenv("TEST_INT", "25")
	if got := getEnvInt("TEST_INT", 50); got != 25 {
		t.Errorf("valid value: got %d, want 25", got)
	}
}

func TestGetEnvDurationRejectsNonPositive(t *testing.T) {
	t.Setenv("TEST_DUR", "-10s")
	if got := getEnvDuration("TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("negative duration: got %v, want fallback 1m", got)
	}
	t.Setenv("TEST_DUR", "soon")
	if got := getEnvDuration("TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("garbage duration: got %v, want fallback 1m", got)
	}
	t.Setenv("TEST_DUR", "90s")
	if got := getEnvDuration("TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("valid duration: got %v, want 90s", got)
	}
}
