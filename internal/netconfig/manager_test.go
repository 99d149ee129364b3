package netconfig

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vimo-ai/corenetworkkit/internal/netmetrics"
)

func TestManagerStatus(t *testing.T) {
	path := writeConfigFile(t, `
retry:
  kind: fixed
  max_attempts: 3
  delay: 100ms
`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr, err := NewManager(path, logger)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	status := mgr.Status()
	if status.Path != path {
		t.Fatalf("Status().Path = %q, want %q", status.Path, path)
	}
	if status.Checksum == "" {
		t.Fatal("Status().Checksum is empty")
	}
	if status.LoadedAt.IsZero() {
		t.Fatal("Status().LoadedAt is zero")
	}
	if status.ReloadCount == 0 {
		t.Fatal("Status().ReloadCount should be > 0")
	}
}

func TestManagerReloadUpdatesChecksum(t *testing.T) {
	path := writeConfigFile(t, `
retry:
  kind: fixed
  max_attempts: 3
  delay: 100ms
`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr, err := NewManager(path, logger)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	before := mgr.Status()

	if err := os.WriteFile(path, []byte(`
retry:
  kind: exponential
  max_attempts: 5
  initial_delay: 50ms
  multiplier: 2.0
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	after := mgr.Status()
	if after.Checksum == before.Checksum {
		t.Fatal("expected checksum to change after reload")
	}
	if after.ReloadCount != before.ReloadCount+1 {
		t.Fatalf("expected reload count %d, got %d", before.ReloadCount+1, after.ReloadCount)
	}
	if mgr.Get().Retry.Kind != "exponential" {
		t.Fatalf("expected retry kind exponential, got %s", mgr.Get().Retry.Kind)
	}
}

func TestManagerOnChange(t *testing.T) {
	path := writeConfigFile(t, `
retry:
  kind: none
`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr, err := NewManager(path, logger)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var notified *Config
	mgr.OnChange(func(cfg *Config) { notified = cfg })

	if err := os.WriteFile(path, []byte(`
retry:
  kind: fixed
  max_attempts: 2
  delay: 10ms
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if notified == nil {
		t.Fatal("expected OnChange callback to fire")
	}
	if notified.Retry.Kind != "fixed" {
		t.Fatalf("expected notified config to have retry kind fixed, got %s", notified.Retry.Kind)
	}
}

func TestManagerReloadSurfacesWarningsAsMetrics(t *testing.T) {
	path := writeConfigFile(t, `
control:
  throttle: 100ms
`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	before := testutil.ToFloat64(netmetrics.ConfigWarnings.WithLabelValues(string(WarningThrottleWithoutDebounce)))

	mgr, err := NewManager(path, logger)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if err := os.WriteFile(path, []byte(`
control:
  throttle: 200ms
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	after := testutil.ToFloat64(netmetrics.ConfigWarnings.WithLabelValues(string(WarningThrottleWithoutDebounce)))
	if after != before+2 {
		t.Fatalf("expected config_warnings_total{code=%q} to increase by 2 (initial load + reload), got %v -> %v", WarningThrottleWithoutDebounce, before, after)
	}
}

func TestManagerReloadCountsMetricByResult(t *testing.T) {
	path := writeConfigFile(t, `
retry:
  kind: none
`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr, err := NewManager(path, logger)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	successBefore := testutil.ToFloat64(netmetrics.ConfigReloads.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(netmetrics.ConfigReloads.WithLabelValues("failure"))

	if err := os.WriteFile(path, []byte(`retry: [not valid yaml`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := mgr.Reload(); err == nil {
		t.Fatal("expected Reload() to fail on invalid YAML")
	}

	if got := testutil.ToFloat64(netmetrics.ConfigReloads.WithLabelValues("failure")); got != failureBefore+1 {
		t.Fatalf("expected config_reloads_total{result=failure} to increase by 1, got %v -> %v", failureBefore, got)
	}

	if err := os.WriteFile(path, []byte(`
retry:
  kind: fixed
  max_attempts: 2
  delay: 10ms
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if got := testutil.ToFloat64(netmetrics.ConfigReloads.WithLabelValues("success")); got != successBefore+1 {
		t.Fatalf("expected config_reloads_total{result=success} to increase by 1, got %v -> %v", successBefore, got)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
