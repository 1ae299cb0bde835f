package graphs

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/graphbolt/pregolin/pregel"
)

// Random generates a simple directed graph with the given vertex and edge
// counts, no self loops, no parallel edges. The same seed reproduces the
// same graph. Useful for benchmarks and cross-checking against gonum's own
// algorithms.
func Random(vertices, edges int, seed int64) *CSR {
	rng := rand.New(rand.NewSource(seed))
	g := simple.NewDirectedGraph()
	for i := 0; i < vertices; i++ {
		g.AddNode(simple.Node(i))
	}
	for placed := 0; placed < edges; {
		src := rng.Intn(vertices)
		dst := rng.Intn(vertices)
		if src == dst || g.HasEdgeFromTo(int64(src), int64(dst)) {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(src), T: simple.Node(dst)})
		placed++
	}

	var list []Edge
	for i := 0; i < vertices; i++ {
		// gonum iterates map-backed node sets in arbitrary order; sort so the
		// seed fully determines the output.
		var targets []int64
		to := g.From(int64(i))
		for to.Next() {
			targets = append(targets, to.Node().ID())
		}
		sort.Slice(targets, func(a, b int) bool { return targets[a] < targets[b] })
		for _, t := range targets {
			list = append(list, Edge{Src: pregel.RawID(i), Dst: pregel.RawID(t)})
		}
	}
	c := FromEdges(list, false)
	// Isolated vertices never appear in the edge list; append them so the
	// vertex count holds.
	for i := 0; i < vertices; i++ {
		if _, ok := c.index[pregel.RawID(i)]; !ok {
			c.index[pregel.RawID(i)] = uint32(len(c.ids))
			c.ids = append(c.ids, pregel.RawID(i))
			c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1])
		}
	}
	return c
}
