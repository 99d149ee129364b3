// Package tokenrefresh implements the TokenRefreshCoordinator from
// spec.md §4.4: coalesce concurrent refresh attempts into one. It is a
// ControlGate specialized to a single constant key, so it reuses the same
// singleflight.Group idiom.
package tokenrefresh

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/vimo-ai/corenetworkkit/internal/netmetrics"
	"github.com/vimo-ai/corenetworkkit/pkg/engine"
)

const refreshKey = "refresh"

// Coordinator ensures at most one refresh is in progress at a time, per
// spec.md §4.4's invariant.
type Coordinator struct {
	sf singleflight.Group
}

// New constructs an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// Refresh awaits an ongoing refresh if one exists, else starts one via
// refresher and shares its result with any other concurrent callers. If
// the refresh fails, all awaiters observe the same error, per spec.md §4.4.
func (c *Coordinator) Refresh(ctx context.Context, refresher engine.TokenRefresher) (string, error) {
	v, err, _ := c.sf.Do(refreshKey, func() (interface{}, error) {
		return refresher.Refresh(ctx)
	})
	if err != nil {
		netmetrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", err
	}
	netmetrics.TokenRefreshes.WithLabelValues("success").Inc()
	return v.(string), nil
}
