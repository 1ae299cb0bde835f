package graphs

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/graphbolt/pregolin/pregel"
	"github.com/graphbolt/pregolin/utils"
)

// LoadEdgeList reads a whitespace-separated edge list file into a CSR. Lines
// starting with '#' or '%' are comments; each remaining line is "src dst"
// with an optional third weight field, which is ignored. Chunks of the file
// are parsed in parallel but appended in file order, so internal id
// assignment stays deterministic for a given input.
func LoadEdgeList(path string, undirected bool) (*CSR, error) {
	watch := utils.Watch{}
	watch.Start()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	workers := runtime.NumCPU()
	if workers > len(data)/(1<<16)+1 {
		workers = len(data)/(1<<16) + 1
	}
	bounds := chunkBounds(data, workers)

	parsed := make([][]Edge, len(bounds)-1)
	eg := new(errgroup.Group)
	for w := 0; w < len(bounds)-1; w++ {
		w := w
		eg.Go(func() error {
			edges, perr := parseChunk(data[bounds[w]:bounds[w+1]])
			if perr != nil {
				return perr
			}
			parsed[w] = edges
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parsed {
		total += len(p)
	}
	edges := make([]Edge, 0, total)
	for _, p := range parsed {
		edges = append(edges, p...)
	}

	c := FromEdges(edges, undirected)
	log.Info().Msg("Loaded " + path + ", vertices " + utils.V(c.VertexCount()) +
		" edges " + utils.V(c.EdgeCount()) + " in " + watch.Elapsed().String())
	return c, nil
}

// chunkBounds splits data into at most workers ranges, each ending on a
// newline so no line straddles two chunks.
func chunkBounds(data []byte, workers int) []int {
	bounds := []int{0}
	for w := 1; w < workers; w++ {
		at := len(data) * w / workers
		if at <= bounds[len(bounds)-1] {
			continue
		}
		for at < len(data) && data[at-1] != '\n' {
			at++
		}
		if at >= len(data) {
			break
		}
		bounds = append(bounds, at)
	}
	bounds = append(bounds, len(data))
	return bounds
}

func parseChunk(chunk []byte) ([]Edge, error) {
	var edges []Edge
	rest := string(chunk)
	for len(rest) > 0 {
		line := rest
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			line, rest = rest[:nl], rest[nl+1:]
		} else {
			rest = ""
		}
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == '%' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 && len(fields) != 3 {
			return nil, &pregel.ConfigError{Option: "graph", Reason: "malformed edge line: " + line}
		}
		src, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, &pregel.ConfigError{Option: "graph", Reason: "bad source id: " + fields[0]}
		}
		dst, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, &pregel.ConfigError{Option: "graph", Reason: "bad target id: " + fields[1]}
		}
		edges = append(edges, Edge{Src: pregel.RawID(src), Dst: pregel.RawID(dst)})
	}
	return edges, nil
}
