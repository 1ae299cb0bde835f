// Package graphs provides in-memory graph collaborators for the engine:
// a compressed sparse row structure, an edge list loader, and a random
// graph generator for benchmarks and tests.
package graphs

import (
	"github.com/graphbolt/pregolin/pregel"
)

// Edge is one directed raw edge. Weights in input files are accepted and
// ignored; the engine works on topology only.
type Edge struct {
	Src pregel.RawID
	Dst pregel.RawID
}

// CSR is a compressed sparse row adjacency structure implementing
// pregel.Graph. Vertices are enumerated in first-appearance order of the
// edge list, which fixes the engine's internal id assignment and makes runs
// over the same input reproducible.
type CSR struct {
	ids     []pregel.RawID
	index   map[pregel.RawID]uint32
	offsets []uint32
	targets []pregel.RawID
}

// FromEdges builds a CSR from a directed edge list. With undirected set,
// every edge is mirrored. Self loops and parallel edges are kept as given.
func FromEdges(edges []Edge, undirected bool) *CSR {
	c := &CSR{index: make(map[pregel.RawID]uint32)}
	intern := func(raw pregel.RawID) uint32 {
		if dense, ok := c.index[raw]; ok {
			return dense
		}
		dense := uint32(len(c.ids))
		c.index[raw] = dense
		c.ids = append(c.ids, raw)
		return dense
	}

	type denseEdge struct{ src, dst uint32 }
	dense := make([]denseEdge, 0, len(edges)*(1+boolToInt(undirected)))
	for _, e := range edges {
		s, d := intern(e.Src), intern(e.Dst)
		dense = append(dense, denseEdge{s, d})
		if undirected {
			dense = append(dense, denseEdge{d, s})
		}
	}

	n := uint32(len(c.ids))
	c.offsets = make([]uint32, n+1)
	for _, e := range dense {
		c.offsets[e.src+1]++
	}
	for i := uint32(0); i < n; i++ {
		c.offsets[i+1] += c.offsets[i]
	}
	c.targets = make([]pregel.RawID, len(dense))
	fill := make([]uint32, n)
	for _, e := range dense {
		c.targets[c.offsets[e.src]+fill[e.src]] = c.ids[e.dst]
		fill[e.src]++
	}
	return c
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c *CSR) VertexCount() int {
	return len(c.ids)
}

func (c *CSR) EdgeCount() int {
	return len(c.targets)
}

func (c *CSR) ForEachVertex(visit func(raw pregel.RawID)) {
	for _, raw := range c.ids {
		visit(raw)
	}
}

func (c *CSR) Degree(raw pregel.RawID) int {
	dense, ok := c.index[raw]
	if !ok {
		return 0
	}
	return int(c.offsets[dense+1] - c.offsets[dense])
}

func (c *CSR) ForEachNeighbor(raw pregel.RawID, visit func(neighbor pregel.RawID)) {
	dense, ok := c.index[raw]
	if !ok {
		return
	}
	for _, t := range c.targets[c.offsets[dense]:c.offsets[dense+1]] {
		visit(t)
	}
}
