// A starting point for writing a new vertex program. Copy the directory,
// rename, and fill in the hooks.
package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/graphbolt/pregolin/enforce"
	"github.com/graphbolt/pregolin/graphs"
	"github.com/graphbolt/pregolin/pregel"
	"github.com/graphbolt/pregolin/utils"
)

// Template declares the per-vertex state and the three hooks. The message
// type parameter (int64 here) is what Send and the inbox carry; pick float64
// for weighted or fractional algorithms.
func Template() (*pregel.Schema, pregel.Program[int64]) {
	// Declare one element per per-vertex property. Public elements end up in
	// the result; Private ones are scratch space.
	schema, err := pregel.NewSchema(
		pregel.LongElement("value", pregel.Public, 0),
	)
	enforce.ENFORCE(err)

	prog := pregel.Program[int64]{
		// Optional. With the Reducing policy, arriving messages fold into one
		// accumulator per vertex (pregel.SumReducer, MinReducer, MaxReducer,
		// or your own).
		Reducer: nil,

		// Optional. Runs once per vertex before superstep 0. A vertex that
		// should wait for a message rather than start active can vote to
		// halt here.
		Init: func(ic *pregel.InitContext) error {
			ic.SetLong("value", int64(ic.RawId().Integer()))
			return nil
		},

		// Required. Runs once per active vertex per superstep. Read the
		// inbox, update own state, send to neighbors, and vote to halt when
		// there is nothing left to do; a later message wakes the vertex.
		Compute: func(cc *pregel.ComputeContext[int64]) error {
			for in := cc.Inbox(); in.Next(); {
				_ = in.Value()
			}
			// cc.Broadcast(cc.GetLong("value"))
			cc.VoteToHalt()
			return nil
		},

		// Optional. Runs once per superstep after the barrier, on a single
		// thread. Good for convergence checks (mc.Halt) and aggregators.
		Master: nil,
	}
	return schema, prog
}

// Launch point. Declare algorithm-specific flags before FlagsToOptions.
func main() {
	opts := pregel.FlagsToOptions()

	g, err := graphs.LoadEdgeList(opts.Name, opts.Undirected)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load the graph.")
	}

	schema, prog := Template()
	ex, err := pregel.New(g, schema, prog, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad configuration.")
	}
	res, err := ex.Run(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Run failed.")
	}
	log.Info().Msg("Done after " + utils.V(res.Supersteps()) + " supersteps.")
}
