package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinCostMaxFlowPrefersCheapPath(t *testing.T) {
	g := NewNetwork(4)
	expensive := g.AddEdge(0, 1, 2, 5)
	g.AddEdge(1, 3, 2, 5)
	cheap := g.AddEdge(0, 2, 1, 1)
	g.AddEdge(2, 3, 1, 1)

	flow, cost := g.MinCostMaxFlow(0, 3)
	assert.Equal(t, int64(3), flow)
	assert.Equal(t, int64(2+2*10), cost)
	assert.Equal(t, int64(1), g.Flow(cheap))
	assert.Equal(t, int64(2), g.Flow(expensive))
}

func TestMinCostMaxFlowUsesResidualEdges(t *testing.T) {
	// The first shortest path 0-1-2-3 blocks both unit edges into 3; the
	// second augmentation has to cancel flow on 1-2.
	g := NewNetwork(4)
	g.AddEdge(0, 1, 1, 1)
	g.AddEdge(0, 2, 1, 5)
	mid := g.AddEdge(1, 2, 1, 1)
	g.AddEdge(1, 3, 1, 5)
	g.AddEdge(2, 3, 1, 1)

	flow, cost := g.MinCostMaxFlow(0, 3)
	assert.Equal(t, int64(2), flow)
	assert.Equal(t, int64(12), cost)
	assert.Equal(t, int64(0), g.Flow(mid))
}

func TestMinCostMaxFlowDisconnected(t *testing.T) {
	g := NewNetwork(2)
	n := g.AddNode()
	g.AddEdge(0, n, 3, 1)
	flow, cost := g.MinCostMaxFlow(0, 1)
	assert.Zero(t, flow)
	assert.Zero(t, cost)
	assert.Equal(t, 3, g.Nodes())
}
