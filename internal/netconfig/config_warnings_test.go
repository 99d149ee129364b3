package netconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWarnings_StaleWhileRevalidateWithoutMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Kind = "stale_while_revalidate"
	cfg.Metrics.Enabled = false

	warnings := cfg.Warnings()
	require.NotEmpty(t, warnings)

	var found bool
	for _, w := range warnings {
		if w.Code == WarningStaleWhileRevalidateWithoutCache {
			found = true
			break
		}
	}
	require.True(t, found, "expected %q warning", WarningStaleWhileRevalidateWithoutCache)
}

func TestWarnings_NoConcernsByDefault(t *testing.T) {
	cfg := DefaultConfig()
	require.Empty(t, cfg.Warnings())
}

func TestWarnings_ThrottleWithoutDebounce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Control.Throttle = 100_000_000 // 100ms, in time.Duration nanoseconds
	cfg.Control.Debounce = 0

	warnings := cfg.Warnings()
	require.NotEmpty(t, warnings)

	var found bool
	for _, w := range warnings {
		if w.Code == WarningThrottleWithoutDebounce {
			found = true
			break
		}
	}
	require.True(t, found, "expected %q warning", WarningThrottleWithoutDebounce)
}
