package pregel

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Partition is one contiguous slice of the internal id space, assigned to
// exactly one worker for the whole run.
type Partition struct {
	Tidx  uint32
	Start uint32 // inclusive
	End   uint32 // exclusive
}

func (p Partition) Len() int {
	return int(p.End - p.Start)
}

const (
	// Below this many vertices the Auto scheme never bothers with degree
	// balancing; the prefix sum costs more than the skew.
	autoMinVertices = 1 << 12
	// Degree coefficient-of-variation beyond which Auto considers the
	// distribution skewed.
	autoSkewThreshold = 1.0
)

// makePartitions covers [0, n) with disjoint contiguous ranges, one per
// worker. Degree balancing walks a prefix sum of (degree + 1) so that empty
// vertices still distribute.
func makePartitions(scheme PartitionScheme, n uint32, workers int, degrees []uint32) ([]Partition, error) {
	if workers <= 0 {
		return nil, &ConfigError{Option: "concurrency", Reason: "worker count is zero"}
	}
	if n == 0 {
		return nil, &ConfigError{Option: "graph", Reason: "vertex count is zero"}
	}
	if uint32(workers) > n {
		workers = int(n)
	}

	if scheme == Auto {
		scheme = Range
		if n >= autoMinVertices && degreeSkew(degrees) > autoSkewThreshold {
			scheme = Degree
		}
	}

	parts := make([]Partition, workers)
	switch scheme {
	case Range:
		per := n / uint32(workers)
		extra := n % uint32(workers)
		start := uint32(0)
		for t := range parts {
			end := start + per
			if uint32(t) < extra {
				end++
			}
			parts[t] = Partition{Tidx: uint32(t), Start: start, End: end}
			start = end
		}
	case Degree:
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = float64(degrees[i]) + 1
		}
		floats.CumSum(weights, weights)
		total := weights[n-1]
		start := uint32(0)
		for t := range parts {
			end := n
			if t != workers-1 {
				target := total * float64(t+1) / float64(workers)
				idx := sort.Search(int(n), func(i int) bool { return weights[i] >= target })
				end = uint32(idx) + 1
				if end < start {
					end = start
				}
				if end > n {
					end = n
				}
			}
			parts[t] = Partition{Tidx: uint32(t), Start: start, End: end}
			start = end
		}
	}
	return parts, nil
}

// degreeSkew is the coefficient of variation of the degree distribution.
func degreeSkew(degrees []uint32) float64 {
	if len(degrees) == 0 {
		return 0
	}
	x := make([]float64, len(degrees))
	for i, d := range degrees {
		x[i] = float64(d)
	}
	mean := stat.Mean(x, nil)
	if mean == 0 {
		return 0
	}
	return stat.StdDev(x, nil) / mean
}

// partitionTable maps every internal id to its owning partition index.
func partitionTable(parts []Partition, n uint32) []uint32 {
	table := make([]uint32, n)
	for _, p := range parts {
		for i := p.Start; i < p.End; i++ {
			table[i] = p.Tidx
		}
	}
	return table
}
