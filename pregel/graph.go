package pregel

// RawID is the external vertex identifier used by the graph collaborator.
// Internal ids (dense [0, N)) are the engine's own; the two are bridged by
// the translation tables built once per run.
type RawID uint64

func (r RawID) Integer() uint64 {
	return uint64(r)
}

// Graph supplies the topology. It is consumed once to build the id
// translation tables and the internal adjacency cache, and must be safe for
// concurrent reads (the cache is filled by all partitions in parallel).
// The engine never mutates the graph.
type Graph interface {
	VertexCount() int
	ForEachVertex(visit func(raw RawID))
	Degree(raw RawID) int
	ForEachNeighbor(raw RawID, visit func(neighbor RawID))
}

// PropertySource seeds initial node values before init runs. Columns are
// indexed by the graph's enumeration order (which equals internal id order);
// a missing name means the element keeps its schema default.
type PropertySource interface {
	LongColumn(name string) ([]int64, bool)
	DoubleColumn(name string) ([]float64, bool)
}
