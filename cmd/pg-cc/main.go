package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/graphbolt/pregolin/graphs"
	"github.com/graphbolt/pregolin/pregel"
	"github.com/graphbolt/pregolin/utils"
)

// Launch point. Parses command line arguments and labels connected
// components. Treats the input as undirected regardless of -u; component
// labels only make sense that way.
func main() {
	opts := pregel.FlagsToOptions()
	opts.Policy = pregel.Reducing
	opts.Undirected = true

	g, err := graphs.LoadEdgeList(opts.Name, opts.Undirected)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load the graph.")
	}

	schema, prog := ConnectedComponents()
	ex, err := pregel.New(g, schema, prog, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad configuration.")
	}
	res, err := ex.Run(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Run failed.")
	}

	labels, err := res.LongColumn("label")
	if err != nil {
		log.Fatal().Err(err).Msg("No label column.")
	}
	components := make(map[int64]int)
	for _, l := range labels {
		components[l]++
	}
	largest := 0
	for _, size := range components {
		largest = utils.Max(largest, size)
	}
	log.Info().Msg("Components: " + utils.V(len(components)) + ", largest: " + utils.V(largest))
}
