// Package orchestrator implements the DAG Orchestrator from spec.md §4.7:
// validation, Kahn-style layering, and layered concurrent execution under
// FailFast/ContinueOnError, grounded on the depth-staged dispatch pattern
// in script-weaver's internal/dag executor (sorted-name tie-break within a
// stage, a barrier between stages, worker cancellation on abort).
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/vimo-ai/corenetworkkit/internal/executor"
	"github.com/vimo-ai/corenetworkkit/internal/netmetrics"
	"github.com/vimo-ai/corenetworkkit/pkg/nkerrors"
)

// ErrLayerFailed is raised under ContinueOnError when every runnable node
// in a layer fails and the layer produced no successes, per spec.md §4.7.
type ErrLayerFailed struct {
	Failures map[string]error
}

func (e *ErrLayerFailed) Error() string {
	return fmt.Sprintf("orchestrator: layer failed entirely (%d node(s) failed)", len(e.Failures))
}

// Orchestrate runs plan's DAG to completion and applies its Transform, per
// spec.md §4.7's orchestrate(plan, failureStrategy) → T.
func Orchestrate[T any](ctx context.Context, exec *executor.Executor, plan Plan[T], failureStrategy FailureStrategy, cancellationStrategy CancellationStrategy) (T, error) {
	var zero T

	if err := validate(plan.Nodes); err != nil {
		return zero, err
	}
	layers, err := layer(plan.Nodes)
	if err != nil {
		return zero, err
	}

	results := make(map[string]Result, len(plan.Nodes))
	failedOrSkipped := make(map[string]bool)
	var firstFailFastErr error

	for _, nodes := range layers {
		if err := ctx.Err(); err != nil {
			return zero, nkerrors.Wrap(nkerrors.KindCancelled, "orchestrator layer join", err)
		}

		switch failureStrategy {
		case FailFast:
			err := runLayerFailFast(ctx, exec, nodes, results, failedOrSkipped)
			if err != nil {
				// Cascading means a failure anywhere aborts the whole
				// orchestration, not just the nodes that actually depend on
				// it; Isolate lets later layers keep going and relies on
				// the dependency-skip below to cut off true descendants,
				// per spec.md §5.
				if cancellationStrategy == Cascading {
					return zero, err
				}
				if firstFailFastErr == nil {
					firstFailFastErr = err
				}
			}
		default:
			if err := runLayerContinueOnError(ctx, exec, nodes, results, failedOrSkipped); err != nil {
				return zero, err
			}
		}
	}

	if firstFailFastErr != nil {
		return zero, firstFailFastErr
	}

	return plan.Transform(results)
}

func runNode(ctx context.Context, exec *executor.Executor, n NodeSpec) ([]byte, error) {
	body, err := exec.Execute(ctx, n.Request, n.Config)
	if err != nil {
		netmetrics.OrchestratorNodes.WithLabelValues("failure").Inc()
		return nil, nkerrors.WithNode(n.ID, err)
	}
	netmetrics.OrchestratorNodes.WithLabelValues("success").Inc()
	return body, nil
}

// partitionByDeps splits nodes into the ones still runnable and the ones
// blocked by an already-failed or already-skipped dependency. Nodes in the
// same layer never depend on one another, so this only looks at
// cross-layer dependencies recorded in failedOrSkipped.
func partitionByDeps(nodes []NodeSpec, failedOrSkipped map[string]bool) (runnable, skipped []NodeSpec) {
	for _, n := range nodes {
		blocked := false
		for _, dep := range n.DependsOn {
			if failedOrSkipped[dep] {
				blocked = true
				break
			}
		}
		if blocked {
			skipped = append(skipped, n)
		} else {
			runnable = append(runnable, n)
		}
	}
	return runnable, skipped
}

func markSkipped(skipped []NodeSpec, results map[string]Result, failedOrSkipped map[string]bool) {
	for _, n := range skipped {
		err := nkerrors.WithNode(n.ID, nkerrors.New(nkerrors.KindCancelled, "skipped: dependency failed or skipped"))
		results[n.ID] = Result{ID: n.ID, Err: err}
		failedOrSkipped[n.ID] = true
		netmetrics.OrchestratorNodes.WithLabelValues("skipped").Inc()
	}
}

// runLayerFailFast runs the layer's still-runnable nodes concurrently. The
// first error unconditionally cancels the layer's shared context, aborting
// every other in-flight node in the same layer: spec.md §4.7 does not gate
// this on CancellationStrategy, and nodes sharing a layer never depend on
// each other, so there is no Cascading/Isolate choice to make here. What
// CancellationStrategy governs is handled by the caller, one layer up, for
// nodes in later layers that depend on the ones that failed here.
func runLayerFailFast(ctx context.Context, exec *executor.Executor, nodes []NodeSpec, results map[string]Result, failedOrSkipped map[string]bool) error {
	runnable, skipped := partitionByDeps(nodes, failedOrSkipped)
	markSkipped(skipped, results, failedOrSkipped)
	if len(runnable) == 0 {
		return nil
	}

	layerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for _, n := range runnable {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := runNode(layerCtx, exec, n)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[n.ID] = Result{ID: n.ID, Err: err}
				failedOrSkipped[n.ID] = true
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			results[n.ID] = Result{ID: n.ID, Value: body}
		}()
	}
	wg.Wait()

	return firstErr
}

// runLayerContinueOnError runs nodes whose dependencies are all successful
// and marks the rest skipped, per spec.md §4.7.
func runLayerContinueOnError(ctx context.Context, exec *executor.Executor, nodes []NodeSpec, results map[string]Result, failedOrSkipped map[string]bool) error {
	runnable, skipped := partitionByDeps(nodes, failedOrSkipped)
	markSkipped(skipped, results, failedOrSkipped)

	if len(runnable) == 0 {
		return nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	successCount := 0
	failures := make(map[string]error)

	for _, n := range runnable {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := runNode(ctx, exec, n)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[n.ID] = Result{ID: n.ID, Err: err}
				failures[n.ID] = err
				return
			}
			successCount++
			results[n.ID] = Result{ID: n.ID, Value: body}
		}()
	}
	wg.Wait()

	for id := range failures {
		failedOrSkipped[id] = true
	}

	if successCount == 0 && len(failures) > 0 {
		return &ErrLayerFailed{Failures: failures}
	}
	return nil
}
