package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vimo-ai/corenetworkkit/internal/cachestore"
	"github.com/vimo-ai/corenetworkkit/internal/executor"
	"github.com/vimo-ai/corenetworkkit/internal/gate"
	"github.com/vimo-ai/corenetworkkit/internal/tokenrefresh"
	"github.com/vimo-ai/corenetworkkit/pkg/engine"
	"github.com/vimo-ai/corenetworkkit/pkg/nkerrors"
	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

type noopTokenStore struct{}

func (noopTokenStore) Get(context.Context) (string, bool) { return "", false }

// dagStubEngine serves deterministic per-node behavior keyed by the
// request path: "C" always fails immediately, "B" blocks until cancelled
// or a short delay elapses, everything else succeeds immediately.
type dagStubEngine struct {
	mu        sync.Mutex
	started   map[string]bool
	cancelled map[string]bool
}

func newDagStubEngine() *dagStubEngine {
	return &dagStubEngine{started: map[string]bool{}, cancelled: map[string]bool{}}
}

func (e *dagStubEngine) SendOnce(ctx context.Context, req engine.RawRequest) (engine.RawResponse, error) {
	e.mu.Lock()
	e.started[req.URL] = true
	e.mu.Unlock()

	switch {
	case strings.Contains(req.URL, "/C"):
		return engine.RawResponse{StatusCode: 500}, nil
	case strings.Contains(req.URL, "/B"):
		select {
		case <-time.After(200 * time.Millisecond):
			return engine.RawResponse{StatusCode: 200, Body: []byte("B")}, nil
		case <-ctx.Done():
			e.mu.Lock()
			e.cancelled["B"] = true
			e.mu.Unlock()
			return engine.RawResponse{}, ctx.Err()
		}
	default:
		return engine.RawResponse{StatusCode: 200, Body: []byte(req.URL)}, nil
	}
}

func (e *dagStubEngine) wasStarted(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started["https://example.test/"+id]
}

func (e *dagStubEngine) wasCancelled(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled[id]
}

func newTestExecutor(eng engine.Engine) *executor.Executor {
	return executor.New(&executor.Executor{
		Gate:        gate.New(),
		Cache:       cachestore.NewMemoryStore(cachestore.DefaultMemoryConfig()),
		Coordinator: tokenrefresh.New(),
		Engine:      eng,
		TokenStore:  noopTokenStore{},
	})
}

func node(id string, deps ...string) NodeSpec {
	return NodeSpec{
		ID:        id,
		Request:   request.Spec{Method: "GET", BaseURL: "https://example.test", Path: "/" + id},
		Config:    request.NewTaskConfig(),
		DependsOn: deps,
	}
}

// TestOrchestrate_FailFastCancelsInFlightSiblingAndSkipsDownstream is
// scenario S6.
func TestOrchestrate_FailFastCancelsInFlightSiblingAndSkipsDownstream(t *testing.T) {
	eng := newDagStubEngine()
	exec := newTestExecutor(eng)

	plan := Plan[[]string]{
		Nodes: []NodeSpec{
			node("A"),
			node("B", "A"),
			node("C", "A"),
			node("D", "B", "C"),
		},
		Transform: func(results map[string]Result) ([]string, error) {
			ids := make([]string, 0, len(results))
			for id := range results {
				ids = append(ids, id)
			}
			return ids, nil
		},
	}

	_, err := Orchestrate(context.Background(), exec, plan, FailFast, Cascading)

	require.Error(t, err)
	var ne *nkerrors.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "C", ne.NodeID)

	assert.True(t, eng.wasStarted("A"))
	assert.True(t, eng.wasStarted("B"))
	assert.True(t, eng.wasStarted("C"))
	assert.False(t, eng.wasStarted("D"), "D must never start: its dependency C failed")
	assert.True(t, eng.wasCancelled("B"), "B must be cancelled once C fails under Cascading")
}

// TestOrchestrate_FailFastIsolateRunsUnrelatedLaterLayerNodes verifies that
// under Isolate, CancellationStrategy governs propagation to downstream
// dependents across layers, not same-layer siblings: B is still cancelled
// because it shares a layer with the failing node C, D is skipped because
// it depends on C, but E -- downstream of the unrelated F -- keeps running
// even though the overall orchestration still reports an error.
func TestOrchestrate_FailFastIsolateRunsUnrelatedLaterLayerNodes(t *testing.T) {
	eng := newDagStubEngine()
	exec := newTestExecutor(eng)

	plan := Plan[[]string]{
		Nodes: []NodeSpec{
			node("A"),
			node("B", "A"),
			node("C", "A"),
			node("F", "A"),
			node("D", "C"),
			node("E", "F"),
		},
		Transform: func(results map[string]Result) ([]string, error) {
			ids := make([]string, 0, len(results))
			for id := range results {
				ids = append(ids, id)
			}
			return ids, nil
		},
	}

	_, err := Orchestrate(context.Background(), exec, plan, FailFast, Isolate)

	require.Error(t, err)
	var ne *nkerrors.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "C", ne.NodeID)

	assert.True(t, eng.wasStarted("A"))
	assert.True(t, eng.wasStarted("B"))
	assert.True(t, eng.wasStarted("C"))
	assert.True(t, eng.wasStarted("F"))
	assert.True(t, eng.wasCancelled("B"), "B must be cancelled: it shares a layer with the failing node C")
	assert.False(t, eng.wasStarted("D"), "D must never start: its dependency C failed")
	assert.True(t, eng.wasStarted("E"), "E must still run under Isolate: it depends on F, not on the failed C")
}

// TestOrchestrate_ContinueOnErrorSkipsDownstreamButRunsUnrelatedNodes
// verifies the ContinueOnError branch of spec.md §4.7: C's failure skips
// D, but an unrelated sibling E still runs and contributes to Transform.
func TestOrchestrate_ContinueOnErrorSkipsDownstreamButRunsUnrelatedNodes(t *testing.T) {
	eng := newDagStubEngine()
	exec := newTestExecutor(eng)

	plan := Plan[map[string]bool]{
		Nodes: []NodeSpec{
			node("A"),
			node("C", "A"),
			node("E", "A"),
			node("D", "C"),
		},
		Transform: func(results map[string]Result) (map[string]bool, error) {
			out := make(map[string]bool, len(results))
			for id, r := range results {
				out[id] = r.Err == nil
			}
			return out, nil
		},
	}

	out, err := Orchestrate(context.Background(), exec, plan, ContinueOnError, Isolate)

	require.NoError(t, err)
	assert.True(t, out["A"])
	assert.False(t, out["C"])
	assert.True(t, out["E"])
	assert.False(t, out["D"], "D is skipped because its dependency C failed")
}

func TestOrchestrate_RejectsDuplicateNodeID(t *testing.T) {
	exec := newTestExecutor(newDagStubEngine())
	plan := Plan[struct{}]{
		Nodes: []NodeSpec{node("A"), node("A")},
		Transform: func(map[string]Result) (struct{}, error) {
			return struct{}{}, nil
		},
	}
	_, err := Orchestrate(context.Background(), exec, plan, FailFast, Cascading)
	require.Error(t, err)
	var dup *ErrDuplicateNode
	require.ErrorAs(t, err, &dup)
}

func TestOrchestrate_RejectsUnknownDependency(t *testing.T) {
	exec := newTestExecutor(newDagStubEngine())
	plan := Plan[struct{}]{
		Nodes: []NodeSpec{node("A", "ghost")},
		Transform: func(map[string]Result) (struct{}, error) {
			return struct{}{}, nil
		},
	}
	_, err := Orchestrate(context.Background(), exec, plan, FailFast, Cascading)
	require.Error(t, err)
	var unknown *ErrUnknownDependency
	require.ErrorAs(t, err, &unknown)
}

func TestOrchestrate_RejectsCycle(t *testing.T) {
	exec := newTestExecutor(newDagStubEngine())
	plan := Plan[struct{}]{
		Nodes: []NodeSpec{node("A", "B"), node("B", "A")},
		Transform: func(map[string]Result) (struct{}, error) {
			return struct{}{}, nil
		},
	}
	_, err := Orchestrate(context.Background(), exec, plan, FailFast, Cascading)
	require.Error(t, err)
	var cyc *ErrCyclicDependency
	require.ErrorAs(t, err, &cyc)
}
