package pregel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testGraph is a deterministic in-memory Graph: vertices enumerate in
// first-appearance order of the edge pairs, then any isolated extras.
type testGraph struct {
	order []RawID
	adj   map[RawID][]RawID
}

func graphFromEdges(pairs [][2]RawID, isolated ...RawID) *testGraph {
	g := &testGraph{adj: make(map[RawID][]RawID)}
	seen := make(map[RawID]bool)
	add := func(raw RawID) {
		if !seen[raw] {
			seen[raw] = true
			g.order = append(g.order, raw)
		}
	}
	for _, p := range pairs {
		add(p[0])
		add(p[1])
		g.adj[p[0]] = append(g.adj[p[0]], p[1])
	}
	for _, raw := range isolated {
		add(raw)
	}
	return g
}

// ringGraph is 0 -> 1 -> ... -> n-1 -> 0.
func ringGraph(n int) *testGraph {
	var pairs [][2]RawID
	for i := 0; i < n; i++ {
		pairs = append(pairs, [2]RawID{RawID(i), RawID((i + 1) % n)})
	}
	return graphFromEdges(pairs)
}

func (g *testGraph) VertexCount() int { return len(g.order) }

func (g *testGraph) ForEachVertex(visit func(raw RawID)) {
	for _, raw := range g.order {
		visit(raw)
	}
}

func (g *testGraph) Degree(raw RawID) int { return len(g.adj[raw]) }

func (g *testGraph) ForEachNeighbor(raw RawID, visit func(neighbor RawID)) {
	for _, nb := range g.adj[raw] {
		visit(nb)
	}
}

// recorder captures compute invocations across workers.
type recorder struct {
	mu     sync.Mutex
	events []computeEvent
}

type computeEvent struct {
	superstep int
	id        uint32
	inbox     []float64
}

func (r *recorder) record(cc *ComputeContext[float64]) []float64 {
	var msgs []float64
	in := cc.Inbox()
	for in.Next() {
		msgs = append(msgs, in.Value())
	}
	r.mu.Lock()
	r.events = append(r.events, computeEvent{superstep: cc.Superstep(), id: cc.Id(), inbox: msgs})
	r.mu.Unlock()
	return msgs
}

func (r *recorder) forVertex(id uint32) []computeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []computeEvent
	for _, ev := range r.events {
		if ev.id == id {
			out = append(out, ev)
		}
	}
	return out
}

func mustSchema(t *testing.T, elements ...Element) *Schema {
	t.Helper()
	s, err := NewSchema(elements...)
	require.NoError(t, err)
	return s
}

func runProgram[M Number](t *testing.T, g Graph, s *Schema, prog Program[M], opts Options) *Result {
	t.Helper()
	ex, err := New(g, s, prog, opts)
	require.NoError(t, err)
	res, err := ex.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Completed, ex.State())
	return res
}
