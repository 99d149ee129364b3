// Package gate implements the ControlGate from spec.md §4.3: per-key
// throttle, debounce, and single-flight dedup ahead of the retry/cache
// pipeline. Dedup is built on golang.org/x/sync/singleflight: the caller
// whose Group.Do call runs the work proceeds (Proceed), every other caller
// for the same key waits for and shares that result (Attach), and Do's own
// locking satisfies the "no suspension point between dedup check and
// placeholder insertion" ordering guarantee.
package gate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vimo-ai/corenetworkkit/internal/netmetrics"
	"github.com/vimo-ai/corenetworkkit/pkg/nkerrors"
	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

// Gate serializes access to a keyed resource per spec.md §4.3.
type Gate struct {
	sf singleflight.Group

	mu               sync.Mutex
	throttleLastFire map[string]time.Time
	debounceCancel   map[string]chan struct{}
}

// New constructs an empty Gate.
func New() *Gate {
	return &Gate{
		throttleLastFire: make(map[string]time.Time),
		debounceCancel:   make(map[string]chan struct{}),
	}
}

// Pass runs work under the gate's throttle/debounce/dedup policy for key,
// per spec.md §4.3's pass(task) operation. shared reports whether this
// call attached to another caller's execution (Attach) rather than
// running work itself (Proceed).
func (g *Gate) Pass(ctx context.Context, key string, policy request.ControlPolicy, work func(ctx context.Context) ([]byte, error)) (result []byte, shared bool, err error) {
	gated := func() (interface{}, error) {
		if policy.Throttle != nil {
			if err := g.waitThrottle(ctx, key, *policy.Throttle); err != nil {
				return nil, err
			}
		}
		if policy.Debounce != nil {
			if err := g.waitDebounce(ctx, key, *policy.Debounce); err != nil {
				return nil, err
			}
		}
		return work(ctx)
	}

	if !policy.Deduplicate {
		v, err := gated()
		if err != nil {
			return nil, false, err
		}
		return v.([]byte), false, nil
	}

	// Group.Do also reports shared=true to the caller that ran fn whenever
	// others joined it, so the leader is identified by having run fn.
	ran := false
	v, err, _ := g.sf.Do(key, func() (interface{}, error) {
		ran = true
		return gated()
	})
	shared = !ran
	if shared {
		netmetrics.GateDedup.WithLabelValues("attach").Inc()
	} else {
		netmetrics.GateDedup.WithLabelValues("proceed").Inc()
	}
	if err != nil {
		return nil, shared, err
	}
	return v.([]byte), shared, nil
}

// waitThrottle enforces at most one pass per `interval` per key, per
// spec.md §4.3 step 2.
func (g *Gate) waitThrottle(ctx context.Context, key string, interval time.Duration) error {
	g.mu.Lock()
	last, ok := g.throttleLastFire[key]
	g.mu.Unlock()

	var wait time.Duration
	if ok {
		if remaining := interval - time.Since(last); remaining > 0 {
			wait = remaining
		}
	}

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nkerrors.Wrap(nkerrors.KindCancelled, "throttle wait", ctx.Err())
		}
	}

	g.mu.Lock()
	g.throttleLastFire[key] = time.Now()
	g.mu.Unlock()
	return nil
}

// waitDebounce implements spec.md §4.3 step 3: cancel any prior waiter
// for key, install a fresh timer, and await it. A later arrival before
// completion supersedes (cancels) the current wait.
func (g *Gate) waitDebounce(ctx context.Context, key string, d time.Duration) error {
	g.mu.Lock()
	if prev, ok := g.debounceCancel[key]; ok {
		close(prev)
	}
	mine := make(chan struct{})
	g.debounceCancel[key] = mine
	g.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		g.mu.Lock()
		if g.debounceCancel[key] == mine {
			delete(g.debounceCancel, key)
		}
		g.mu.Unlock()
		return nil
	case <-mine:
		return nkerrors.New(nkerrors.KindCancelled, "debounce superseded by a later arrival")
	case <-ctx.Done():
		g.mu.Lock()
		if g.debounceCancel[key] == mine {
			delete(g.debounceCancel, key)
		}
		g.mu.Unlock()
		return nkerrors.Wrap(nkerrors.KindCancelled, "debounce wait", ctx.Err())
	}
}
