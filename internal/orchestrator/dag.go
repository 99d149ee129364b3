package orchestrator

import (
	"fmt"
	"sort"

	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

// NodeSpec is one node of an orchestration DAG, per spec.md §4.7/§9:
// `{ id, request, config, deps }`.
type NodeSpec struct {
	ID        string
	Request   request.Spec
	Config    request.TaskConfig
	DependsOn []string
}

// ErrDuplicateNode is returned when two nodes share an id.
type ErrDuplicateNode struct{ ID string }

func (e *ErrDuplicateNode) Error() string { return fmt.Sprintf("orchestrator: duplicate node id %q", e.ID) }

// ErrUnknownDependency is returned when a node depends on an id not present
// in the node set.
type ErrUnknownDependency struct {
	NodeID string
	DepID  string
}

func (e *ErrUnknownDependency) Error() string {
	return fmt.Sprintf("orchestrator: node %q depends on unknown node %q", e.NodeID, e.DepID)
}

// ErrCyclicDependency is returned when the dependency graph contains a cycle.
type ErrCyclicDependency struct{ Remaining []string }

func (e *ErrCyclicDependency) Error() string {
	return fmt.Sprintf("orchestrator: cyclic dependency among nodes %v", e.Remaining)
}

// validate implements spec.md §4.7's pre-execution checks: no duplicate
// ids, no dangling dependency ids.
func validate(nodes []NodeSpec) error {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			return &ErrDuplicateNode{ID: n.ID}
		}
		seen[n.ID] = true
	}
	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			if !seen[dep] {
				return &ErrUnknownDependency{NodeID: n.ID, DepID: dep}
			}
		}
	}
	return nil
}

// layer computes the Kahn-style topological layering from spec.md §4.7:
// each layer is every remaining node whose dependencies are already
// placed in an earlier layer, sorted by id for deterministic ordering.
// Returns ErrCyclicDependency if nodes remain with no satisfiable layer.
func layer(nodes []NodeSpec) ([][]NodeSpec, error) {
	byID := make(map[string]NodeSpec, len(nodes))
	remaining := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		remaining[n.ID] = true
	}
	placed := make(map[string]bool, len(nodes))

	var layers [][]NodeSpec
	for len(remaining) > 0 {
		var ready []string
		for id := range remaining {
			n := byID[id]
			ok := true
			for _, dep := range n.DependsOn {
				if !placed[dep] {
					ok = false
					break
				}
			}
			if ok {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			left := make([]string, 0, len(remaining))
			for id := range remaining {
				left = append(left, id)
			}
			sort.Strings(left)
			return nil, &ErrCyclicDependency{Remaining: left}
		}
		sort.Strings(ready)

		thisLayer := make([]NodeSpec, 0, len(ready))
		for _, id := range ready {
			thisLayer = append(thisLayer, byID[id])
			delete(remaining, id)
		}
		for _, id := range ready {
			placed[id] = true
		}
		layers = append(layers, thisLayer)
	}
	return layers, nil
}
