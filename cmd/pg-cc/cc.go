package main

import (
	"github.com/graphbolt/pregolin/enforce"
	"github.com/graphbolt/pregolin/pregel"
)

// Connected components by minimum label propagation. Every vertex starts
// labelled with its own raw id; labels flow along (undirected) edges and fold
// with a min reducer, so each inbox is the best candidate seen this
// superstep. A vertex only speaks up again when its label improves, which
// drives the run quiet within the diameter of the widest component.
func ConnectedComponents() (*pregel.Schema, pregel.Program[int64]) {
	schema, err := pregel.NewSchema(pregel.LongElement("label", pregel.Public, 0))
	enforce.ENFORCE(err)

	prog := pregel.Program[int64]{
		Reducer: pregel.MinReducer[int64]{},
		Init: func(ic *pregel.InitContext) error {
			ic.SetLong("label", int64(ic.RawId().Integer()))
			return nil
		},
		Compute: func(cc *pregel.ComputeContext[int64]) error {
			label := cc.GetLong("label")
			if cc.Superstep() == 0 {
				cc.Broadcast(label)
				cc.VoteToHalt()
				return nil
			}
			improved := false
			for in := cc.Inbox(); in.Next(); {
				if in.Value() < label {
					label = in.Value()
					improved = true
				}
			}
			if improved {
				cc.SetLong("label", label)
				cc.Broadcast(label)
			}
			cc.VoteToHalt()
			return nil
		},
	}
	return schema, prog
}
