package orchestrator

import "fmt"

// FailureStrategy governs how a layer responds to a node error, per
// spec.md §4.7.
type FailureStrategy int

const (
	// FailFast stops at the first node error, cancelling other in-flight
	// nodes in the same layer. Under Cascading no later layer runs; under
	// Isolate later layers still run the nodes that do not depend on a
	// failed or skipped node, and the first error is returned at the end.
	FailFast FailureStrategy = iota
	// ContinueOnError skips downstream nodes of a failed node but lets
	// unrelated nodes in the same and later layers keep running.
	ContinueOnError
)

// CancellationStrategy governs how a cancelled node affects its
// descendants, per spec.md §5.
type CancellationStrategy int

const (
	// Cascading cancels descendants of a cancelled node before or during
	// their execution.
	Cascading CancellationStrategy = iota
	// Isolate lets descendants continue; the cancellation reaches them
	// only via the normal dependency-failure path.
	Isolate
)

// Result is the per-node outcome collected after a layer completes.
type Result struct {
	ID    string
	Value []byte
	Err   error
}

// ErrResultExtraction is raised by a Plan's Transform when a result is
// missing or cannot be interpreted as the type the caller expected, per
// spec.md §9's "typed extraction error on missing/mistyped key" note.
type ErrResultExtraction struct {
	NodeID string
	Reason string
}

func (e *ErrResultExtraction) Error() string {
	return fmt.Sprintf("orchestrator: result extraction failed for node %q: %s", e.NodeID, e.Reason)
}

// Plan is the typed OrchestrationPlan from spec.md §4.7/§9: a node list
// plus a Transform that reconstructs a typed T from the id-keyed result
// map. Transform is the only place the core performs a downcast from the
// heterogeneous result map, per spec.md §9's re-architecture note.
type Plan[T any] struct {
	Nodes     []NodeSpec
	Transform func(results map[string]Result) (T, error)
}

// RequireBytes looks up id in results and returns its bytes, or an
// *ErrResultExtraction if the node is missing or failed. Transform
// functions use this as their one extraction primitive.
func RequireBytes(results map[string]Result, id string) ([]byte, error) {
	r, ok := results[id]
	if !ok {
		return nil, &ErrResultExtraction{NodeID: id, Reason: "no result recorded"}
	}
	if r.Err != nil {
		return nil, &ErrResultExtraction{NodeID: id, Reason: "node failed: " + r.Err.Error()}
	}
	return r.Value, nil
}
