package request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedRetry_SingleAttemptNeverRetries(t *testing.T) {
	p := FixedRetry(1, 0)
	assert.False(t, p.AllowsRetry())
	assert.False(t, p.CanRetry(0))
}

func TestFixedRetry_MaxAttemptsNormalizedBelowOne(t *testing.T) {
	assert.Equal(t, 1, FixedRetry(0, time.Second).MaxAttempts)
	assert.Equal(t, 1, FixedRetry(-3, time.Second).MaxAttempts)
}

func TestFixedRetry_DelayZeroOnLastAttempt(t *testing.T) {
	p := FixedRetry(3, 500*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, p.DelayFor(0))
	assert.Equal(t, 500*time.Millisecond, p.DelayFor(1))
	assert.Equal(t, time.Duration(0), p.DelayFor(2))
}

func TestExponentialRetry_DelayFormula(t *testing.T) {
	p := ExponentialRetry(4, time.Second, 2, 30*time.Second)
	assert.Equal(t, time.Second, p.DelayFor(0))
	assert.Equal(t, 2*time.Second, p.DelayFor(1))
	assert.Equal(t, 4*time.Second, p.DelayFor(2))
	// n=3 is the last attempt index (maxAttempts-1), so delay is 0
	// regardless of the formula's unclamped value.
	assert.Equal(t, time.Duration(0), p.DelayFor(3))
}

func TestExponentialRetry_ClampsToMaxDelay(t *testing.T) {
	p := ExponentialRetry(10, time.Second, 2, 5*time.Second)
	assert.Equal(t, 5*time.Second, p.DelayFor(4))
}

func TestNoRetry_NeverRetries(t *testing.T) {
	p := NoRetry()
	assert.False(t, p.AllowsRetry())
	assert.False(t, p.CanRetry(0))
	assert.Equal(t, time.Duration(0), p.DelayFor(0))
}

func TestLifecycle_Manual_DetachPropagatesParentCancellation(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	detached, cancel := ManualLifecycle().Detach(parent)
	defer cancel()

	cancelParent()

	select {
	case <-detached.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Manual lifecycle to observe parent cancellation")
	}
	assert.ErrorIs(t, detached.Err(), context.Canceled)
}

func TestLifecycle_Persistent_DetachIgnoresParentCancellation(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	detached, cancel := PersistentLifecycle().Detach(parent)
	defer cancel()

	cancelParent()

	select {
	case <-detached.Done():
		t.Fatal("expected Persistent lifecycle to ignore parent cancellation")
	case <-time.After(20 * time.Millisecond):
	}
	assert.NoError(t, detached.Err())
}

func TestLifecycle_BoundToOwner_DetachIgnoresParentButObservesOwnerCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()

	lifecycle, ownerCancel := BoundToOwner()
	detached, cancel := lifecycle.Detach(parent)
	defer cancel()

	cancelParent()
	select {
	case <-detached.Done():
		t.Fatal("expected BoundToOwner lifecycle to ignore parent cancellation")
	case <-time.After(20 * time.Millisecond):
	}

	ownerCancel()
	select {
	case <-detached.Done():
	case <-time.After(time.Second):
		t.Fatal("expected BoundToOwner lifecycle to end when the owner cancel fires")
	}
	require.ErrorIs(t, detached.Err(), context.Canceled)
}

func TestLifecycle_IsPersistent(t *testing.T) {
	assert.False(t, ManualLifecycle().IsPersistent())
	assert.True(t, PersistentLifecycle().IsPersistent())
	lifecycle, cancel := BoundToOwner()
	defer cancel()
	assert.False(t, lifecycle.IsPersistent())
}

func TestConfigure_ChainsOptions(t *testing.T) {
	cfg := Configure(
		WithDebounce(100*time.Millisecond),
		WithCacheFirst(time.Minute),
		WithFixedRetry(3, 0),
		WithPriority(PriorityHigh),
	)

	assert.NotNil(t, cfg.Control.Debounce)
	assert.Equal(t, 100*time.Millisecond, *cfg.Control.Debounce)
	assert.Equal(t, CacheFirst, cfg.Cache.Kind)
	assert.Equal(t, time.Minute, cfg.Cache.MaxAge)
	assert.True(t, cfg.Retry.AllowsRetry())
	assert.Equal(t, PriorityHigh, cfg.Control.Priority)
}
