package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayer_DiamondDependencyProducesThreeLayers(t *testing.T) {
	nodes := []NodeSpec{
		node("A"),
		node("B", "A"),
		node("C", "A"),
		node("D", "B", "C"),
	}
	layers, err := layer(nodes)
	require.NoError(t, err)
	require.Len(t, layers, 3)

	assert.Equal(t, "A", layers[0][0].ID)
	assert.ElementsMatch(t, []string{"B", "C"}, ids(layers[1]))
	assert.Equal(t, "D", layers[2][0].ID)
}

func TestLayer_IndependentNodesShareOneLayer(t *testing.T) {
	nodes := []NodeSpec{node("A"), node("B"), node("C")}
	layers, err := layer(nodes)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, ids(layers[0]))
}

func TestLayer_DetectsCycle(t *testing.T) {
	nodes := []NodeSpec{node("A", "B"), node("B", "A")}
	_, err := layer(nodes)
	require.Error(t, err)
	var cyc *ErrCyclicDependency
	require.ErrorAs(t, err, &cyc)
}

func TestValidate_RejectsDuplicateID(t *testing.T) {
	err := validate([]NodeSpec{node("A"), node("A")})
	require.Error(t, err)
	var dup *ErrDuplicateNode
	require.ErrorAs(t, err, &dup)
}

func TestValidate_RejectsUnknownDependency(t *testing.T) {
	err := validate([]NodeSpec{node("A", "missing")})
	require.Error(t, err)
	var unknown *ErrUnknownDependency
	require.ErrorAs(t, err, &unknown)
}

func ids(nodes []NodeSpec) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
