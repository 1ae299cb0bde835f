package main

import (
	"math"

	"github.com/graphbolt/pregolin/enforce"
	"github.com/graphbolt/pregolin/pregel"
)

const damping = 0.85

// PageRank with the standard damping model. Every vertex starts at 1/N and
// scatters rank/degree to its out-neighbors; contributions fold at send time
// with a sum reducer, so inboxes stay a single scalar. With a non-zero
// tolerance a vertex votes to halt once its rank moves less than that; with
// tolerance zero the run goes to the iteration bound.
func PageRank() (*pregel.Schema, pregel.Program[float64]) {
	schema, err := pregel.NewSchema(pregel.DoubleElement("rank", pregel.Public, 0))
	enforce.ENFORCE(err)

	prog := pregel.Program[float64]{
		Reducer: pregel.SumReducer[float64]{},
		Init: func(ic *pregel.InitContext) error {
			ic.SetDouble("rank", 1/float64(ic.VertexCount()))
			return nil
		},
		Compute: func(cc *pregel.ComputeContext[float64]) error {
			rank := cc.GetDouble("rank")
			if cc.Superstep() > 0 {
				sum := 0.0
				for in := cc.Inbox(); in.Next(); {
					sum += in.Value()
				}
				next := (1-damping)/float64(cc.VertexCount()) + damping*sum
				cc.SetDouble("rank", next)
				if tol := cc.Tolerance(); tol > 0 && math.Abs(next-rank) < tol {
					cc.VoteToHalt()
					return nil
				}
				rank = next
			}
			if deg := cc.Degree(); deg > 0 {
				cc.Broadcast(rank / float64(deg))
			}
			return nil
		},
	}
	return schema, prog
}
