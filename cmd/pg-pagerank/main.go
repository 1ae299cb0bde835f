package main

import (
	"context"
	"flag"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/graphbolt/pregolin/colstore"
	"github.com/graphbolt/pregolin/graphs"
	"github.com/graphbolt/pregolin/pregel"
	"github.com/graphbolt/pregolin/utils"
)

// Launch point. Parses command line arguments and runs PageRank to the
// iteration bound (or the tolerance, with -tol).
func main() {
	outPtr := flag.String("o", "", "Write the resulting columns to this snapshot file.")
	topPtr := flag.Int("top", 10, "Print this many of the highest ranked vertices.")
	opts := pregel.FlagsToOptions()
	opts.Policy = pregel.Reducing

	g, err := graphs.LoadEdgeList(opts.Name, opts.Undirected)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load the graph.")
	}

	schema, prog := PageRank()
	ex, err := pregel.New(g, schema, prog, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad configuration.")
	}
	res, err := ex.Run(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Run failed.")
	}

	ranks, err := res.DoubleColumn("rank")
	if err != nil {
		log.Fatal().Err(err).Msg("No rank column.")
	}
	order := make([]uint32, len(ranks))
	for i := range order {
		order[i] = uint32(i)
	}
	sort.Slice(order, func(a, b int) bool { return ranks[order[a]] > ranks[order[b]] })
	for i := 0; i < *topPtr && i < len(order); i++ {
		raw, _ := res.Translator().ToExternal(order[i])
		log.Info().Msg("Rank " + utils.V(i+1) + ": vertex " + utils.V(raw) + " = " + utils.F("%.6g", ranks[order[i]]))
	}

	if *outPtr != "" {
		cols, err := colstore.FromResult(res)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not export columns.")
		}
		if err := cols.Save(*outPtr); err != nil {
			log.Fatal().Err(err).Msg("Could not save the snapshot.")
		}
	}
}
