// Package flow provides an index-based directed graph with a min-cost
// max-flow solver and the time-expanded bay network built on top of it.
package flow

import "math"

type edge struct {
	to   int
	cap  int64
	cost int64
	flow int64
}

// Network is a directed graph addressed by integer node and edge ids. Every
// edge is stored next to its residual twin: edge e and e^1 form a pair.
type Network struct {
	adj   [][]int
	edges []edge
}

// NewNetwork returns a graph with n nodes and no edges.
func NewNetwork(n int) *Network {
	return &Network{adj: make([][]int, n)}
}

// AddNode appends a node and returns its id.
func (g *Network) AddNode() int {
	g.adj = append(g.adj, nil)
	return len(g.adj) - 1
}

// Nodes returns the number of nodes.
func (g *Network) Nodes() int { return len(g.adj) }

// AddEdge adds an edge from u to v and returns its id.
func (g *Network) AddEdge(u, v int, capacity, cost int64) int {
	id := len(g.edges)
	g.edges = append(g.edges, edge{to: v, cap: capacity, cost: cost})
	g.edges = append(g.edges, edge{to: u, cap: 0, cost: -cost})
	g.adj[u] = append(g.adj[u], id)
	g.adj[v] = append(g.adj[v], id+1)
	return id
}

// Flow returns the flow currently routed over edge id.
func (g *Network) Flow(id int) int64 { return g.edges[id].flow }

func (g *Network) residual(id int) int64 {
	e := g.edges[id]
	return e.cap - e.flow
}

// MinCostMaxFlow routes the maximum flow from s to t and, among all maximum
// flows, one of minimum cost. It uses successive shortest paths with a
// queue-based Bellman-Ford search, so negative residual costs are handled.
// Ties are broken by edge insertion order, which makes the result
// deterministic.
func (g *Network) MinCostMaxFlow(s, t int) (flow, cost int64) {
	n := len(g.adj)
	dist := make([]int64, n)
	prev := make([]int, n)
	inQueue := make([]bool, n)
	queue := make([]int, 0, n)
	for {
		for i := range dist {
			dist[i] = math.MaxInt64
			prev[i] = -1
		}
		dist[s] = 0
		queue = append(queue[:0], s)
		inQueue[s] = true
		for head := 0; head < len(queue); head++ {
			u := queue[head]
			inQueue[u] = false
			for _, id := range g.adj[u] {
				if g.residual(id) <= 0 {
					continue
				}
				e := g.edges[id]
				if d := dist[u] + e.cost; d < dist[e.to] {
					dist[e.to] = d
					prev[e.to] = id
					if !inQueue[e.to] {
						inQueue[e.to] = true
						queue = append(queue, e.to)
					}
				}
			}
		}
		if dist[t] == math.MaxInt64 {
			return flow, cost
		}
		push := int64(math.MaxInt64)
		for v := t; v != s; v = g.edges[prev[v]^1].to {
			push = min(push, g.residual(prev[v]))
		}
		for v := t; v != s; v = g.edges[prev[v]^1].to {
			id := prev[v]
			g.edges[id].flow += push
			g.edges[id^1].flow -= push
		}
		flow += push
		cost += push * dist[t]
	}
}
