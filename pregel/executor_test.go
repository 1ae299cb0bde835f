package pregel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSingleSuperstepBound(t *testing.T) {
	s := mustSchema(t, LongElement("count", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			cc.SetLong("count", cc.GetLong("count")+1)
			cc.Broadcast(1.0)
			return nil
		},
	}
	res := runProgram(t, ringGraph(4), s, prog, Options{MaxIterations: 1, Concurrency: 2})
	require.Equal(t, 1, res.Supersteps())
	col, err := res.LongColumn("count")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 1, 1, 1}, col)
}

func TestIterationBound(t *testing.T) {
	s := mustSchema(t, LongElement("count", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			cc.SetLong("count", cc.GetLong("count")+1)
			cc.Broadcast(1.0)
			return nil
		},
	}
	res := runProgram(t, ringGraph(4), s, prog, Options{MaxIterations: 5, Concurrency: 2})
	require.Equal(t, 5, res.Supersteps())
	col, err := res.LongColumn("count")
	require.NoError(t, err)
	require.Equal(t, []int64{5, 5, 5, 5}, col)
}

func TestVoteToHaltIdempotent(t *testing.T) {
	g := graphFromEdges([][2]RawID{{0, 1}}, 2)
	s := mustSchema(t, DoubleElement("val", Public, 0))
	rec := &recorder{}
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			rec.record(cc)
			switch {
			case cc.RawId() == 2:
				cc.VoteToHalt()
			case cc.Superstep() < 2:
				cc.Broadcast(1.0)
			default:
				cc.VoteToHalt()
			}
			return nil
		},
	}
	runProgram(t, g, s, prog, Options{MaxIterations: 50, Concurrency: 2})

	// The silent vertex computed exactly once and was never revisited.
	events := rec.forVertex(2)
	require.Len(t, events, 1)
	require.Equal(t, 0, events[0].superstep)
}

func TestWakeOnMessage(t *testing.T) {
	g := graphFromEdges([][2]RawID{{0, 1}})
	s := mustSchema(t, DoubleElement("val", Public, 0))
	rec := &recorder{}
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			rec.record(cc)
			if cc.Id() == 0 && cc.Superstep() == 0 {
				cc.Broadcast(1.0)
			}
			cc.VoteToHalt()
			return nil
		},
	}
	res := runProgram(t, g, s, prog, Options{MaxIterations: 50, Concurrency: 2})
	require.Equal(t, 2, res.Supersteps())

	events := rec.forVertex(1)
	require.Len(t, events, 2)
	require.Equal(t, 0, events[0].superstep)
	require.Empty(t, events[0].inbox)
	require.Equal(t, 1, events[1].superstep)
	require.Equal(t, []float64{1.0}, events[1].inbox)
}

func TestReducingSum(t *testing.T) {
	g := graphFromEdges([][2]RawID{{0, 3}, {1, 3}, {2, 3}})
	s := mustSchema(t, DoubleElement("w", Private, 0), DoubleElement("out", Public, 0))
	weights := map[RawID]float64{0: 2, 1: 3, 2: 5}
	prog := Program[float64]{
		Reducer: SumReducer[float64]{},
		Init: func(ic *InitContext) error {
			if w, ok := weights[ic.RawId()]; ok {
				ic.SetDouble("w", w)
			}
			return nil
		},
		Compute: func(cc *ComputeContext[float64]) error {
			if cc.Degree() > 0 {
				cc.Broadcast(cc.GetDouble("w"))
			} else if in := cc.Inbox(); in.Len() > 0 {
				require.Equal(t, 1, in.Len())
				require.True(t, in.Next())
				cc.SetDouble("out", in.Value())
			}
			cc.VoteToHalt()
			return nil
		},
	}
	res := runProgram(t, g, s, prog, Options{MaxIterations: 50, Concurrency: 2, Policy: Reducing})
	require.Equal(t, 2, res.Supersteps())
	out, err := res.DoubleByRaw("out", 3)
	require.NoError(t, err)
	require.Equal(t, 10.0, out)
}

func TestIsolatedVertexHaltsAtInit(t *testing.T) {
	g := graphFromEdges(nil, 7)
	s := mustSchema(t, DoubleElement("val", Public, 0))
	computed := false
	prog := Program[float64]{
		Init: func(ic *InitContext) error {
			ic.VoteToHalt()
			return nil
		},
		Compute: func(cc *ComputeContext[float64]) error {
			computed = true
			return nil
		},
	}
	res := runProgram(t, g, s, prog, Options{MaxIterations: 50, Concurrency: 1})
	require.Equal(t, 0, res.Supersteps())
	require.False(t, computed)
}

func TestRingConvergence(t *testing.T) {
	s := mustSchema(t, DoubleElement("val", Public, 1.0))
	rec := &recorder{}
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			sum := 0.0
			for _, m := range rec.record(cc) {
				sum += m
			}
			val := cc.GetDouble("val") + sum
			cc.SetDouble("val", val)
			if val >= 4.0 {
				cc.VoteToHalt()
			} else {
				cc.Broadcast(val)
			}
			return nil
		},
	}
	res := runProgram(t, ringGraph(4), s, prog, Options{MaxIterations: 50, Concurrency: 2})
	require.Equal(t, 3, res.Supersteps())
	col, err := res.DoubleColumn("val")
	require.NoError(t, err)
	require.Equal(t, []float64{4, 4, 4, 4}, col)
}

func TestRingWithSumReducerAndBound(t *testing.T) {
	// Same cycle, driven purely by the iteration bound: values double each
	// superstep after the first, landing on 4.0 when the bound stops the run.
	s := mustSchema(t, DoubleElement("val", Public, 1.0))
	prog := Program[float64]{
		Reducer: SumReducer[float64]{},
		Compute: func(cc *ComputeContext[float64]) error {
			val := cc.GetDouble("val")
			if in := cc.Inbox(); in.Next() {
				val += in.Value()
				cc.SetDouble("val", val)
			}
			cc.Broadcast(val)
			return nil
		},
	}
	res := runProgram(t, ringGraph(4), s, prog, Options{MaxIterations: 3, Concurrency: 2, Policy: Reducing})
	require.Equal(t, 3, res.Supersteps())
	col, err := res.DoubleColumn("val")
	require.NoError(t, err)
	require.Equal(t, []float64{4, 4, 4, 4}, col)
}

func TestStarTwoSupersteps(t *testing.T) {
	pairs := [][2]RawID{{0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}}
	g := graphFromEdges(pairs)
	s := mustSchema(t, DoubleElement("val", Public, 0))
	rec := &recorder{}
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			msgs := rec.record(cc)
			if cc.Degree() > 0 && cc.Superstep() == 0 {
				cc.Broadcast(1.0)
			}
			for _, m := range msgs {
				cc.SetDouble("val", m)
			}
			cc.VoteToHalt()
			return nil
		},
	}
	res := runProgram(t, g, s, prog, Options{MaxIterations: 50, Concurrency: 3})
	require.Equal(t, 2, res.Supersteps())
	for leaf := RawID(1); leaf <= 5; leaf++ {
		v, err := res.DoubleByRaw("val", leaf)
		require.NoError(t, err)
		require.Equal(t, 1.0, v)
	}
}

func TestIdRoundTrip(t *testing.T) {
	g := graphFromEdges([][2]RawID{{100, 200}, {200, 300}}, 999)
	s := mustSchema(t, LongElement("x", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			cc.VoteToHalt()
			return nil
		},
	}
	res := runProgram(t, g, s, prog, Options{MaxIterations: 1, Concurrency: 2})

	tr := res.Translator()
	require.Equal(t, uint32(4), tr.Count())
	for i := uint32(0); i < tr.Count(); i++ {
		raw, err := tr.ToExternal(i)
		require.NoError(t, err)
		back, err := tr.ToInternal(raw)
		require.NoError(t, err)
		require.Equal(t, i, back)
	}
	// First-appearance order fixes internal ids.
	for want, raw := range []RawID{100, 200, 300, 999} {
		internal, err := tr.ToInternal(raw)
		require.NoError(t, err)
		require.Equal(t, uint32(want), internal)
	}
	_, err := tr.ToInternal(12345)
	var gae *GraphAccessError
	require.ErrorAs(t, err, &gae)
	_, err = tr.ToExternal(4)
	require.ErrorAs(t, err, &gae)
}

func TestAsyncSameSuperstepVisibility(t *testing.T) {
	// One worker processes internal ids in ascending order, which makes the
	// asynchronous visibility rule deterministic: 0's message reaches 1 in
	// the same superstep, 1's reply reaches 0 in the next.
	g := graphFromEdges([][2]RawID{{0, 1}, {1, 0}})
	s := mustSchema(t, DoubleElement("val", Public, 0))
	rec := &recorder{}
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			rec.record(cc)
			if cc.Superstep() == 0 {
				cc.Broadcast(float64(cc.Id() + 1))
			}
			cc.VoteToHalt()
			return nil
		},
	}
	res := runProgram(t, g, s, prog, Options{MaxIterations: 50, Concurrency: 1, Policy: Asynchronous})
	require.Equal(t, 2, res.Supersteps())

	v1 := rec.forVertex(1)
	require.Len(t, v1, 1)
	require.Equal(t, []float64{1.0}, v1[0].inbox)

	v0 := rec.forVertex(0)
	require.Len(t, v0, 2)
	require.Empty(t, v0[0].inbox)
	require.Equal(t, []float64{2.0}, v0[1].inbox)
}

func TestMasterHaltAndAggregators(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]float64)
	missing := make(map[int]bool)
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			mu.Lock()
			if v, ok := cc.Aggregator("epoch"); ok {
				seen[cc.Superstep()] = v
			} else {
				missing[cc.Superstep()] = true
			}
			mu.Unlock()
			cc.Broadcast(1.0)
			return nil
		},
		Master: func(mc *MasterContext) error {
			require.Equal(t, 3, mc.ActiveCount())
			require.Equal(t, uint64(3), mc.SentCount())
			mc.SetAggregator("epoch", float64(mc.Superstep()))
			if mc.Superstep() == 2 {
				mc.Halt()
			}
			return nil
		},
	}
	s := mustSchema(t, DoubleElement("val", Public, 0))
	res := runProgram(t, ringGraph(3), s, prog, Options{MaxIterations: 50, Concurrency: 2})
	require.Equal(t, 3, res.Supersteps())
	require.True(t, missing[0])
	require.Equal(t, map[int]float64{1: 0, 2: 1}, seen)
}

func TestComputeErrorFromUserError(t *testing.T) {
	s := mustSchema(t, DoubleElement("val", Public, 0))
	boom := errors.New("boom")
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			if cc.Superstep() == 1 && cc.Id() == 1 {
				return boom
			}
			cc.Broadcast(1.0)
			return nil
		},
	}
	ex, err := New[float64](ringGraph(3), s, prog, Options{MaxIterations: 50, Concurrency: 1})
	require.NoError(t, err)
	_, err = ex.Run(context.Background())
	var ce *ComputeError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, 1, ce.Superstep)
	require.Equal(t, uint32(1), ce.Vertex)
	require.ErrorIs(t, err, boom)
	require.Equal(t, Failed, ex.State())

	// A failed executor does not run again.
	_, err = ex.Run(context.Background())
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
}

func TestComputeErrorFromUnknownKey(t *testing.T) {
	s := mustSchema(t, DoubleElement("val", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			cc.SetDouble("nope", 1)
			return nil
		},
	}
	ex, err := New[float64](ringGraph(3), s, prog, Options{MaxIterations: 1, Concurrency: 1})
	require.NoError(t, err)
	_, err = ex.Run(context.Background())
	var ce *ComputeError
	require.ErrorAs(t, err, &ce)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "nope", se.Key)
}

func TestComputeErrorFromBadSendTarget(t *testing.T) {
	s := mustSchema(t, DoubleElement("val", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			cc.Send(99, 1.0)
			return nil
		},
	}
	ex, err := New[float64](ringGraph(3), s, prog, Options{MaxIterations: 1, Concurrency: 1})
	require.NoError(t, err)
	_, err = ex.Run(context.Background())
	var gae *GraphAccessError
	require.ErrorAs(t, err, &gae)
	require.True(t, gae.Internal)
	require.Equal(t, uint64(99), gae.Id)
}

func TestSenderTracking(t *testing.T) {
	g := graphFromEdges([][2]RawID{{0, 1}})
	s := mustSchema(t, LongElement("from", Public, -1))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			in := cc.Inbox()
			for in.Next() {
				sender, ok := in.Sender()
				require.True(t, ok)
				cc.SetLong("from", int64(sender))
			}
			if cc.Superstep() == 0 {
				cc.Broadcast(1.0)
			}
			cc.VoteToHalt()
			return nil
		},
	}
	res := runProgram(t, g, s, prog, Options{MaxIterations: 50, Concurrency: 2, TrackSender: true})
	from, err := res.LongByRaw("from", 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), from)
}

type mapSource struct {
	longs map[string][]int64
	dbls  map[string][]float64
}

func (m mapSource) LongColumn(name string) ([]int64, bool) {
	col, ok := m.longs[name]
	return col, ok
}

func (m mapSource) DoubleColumn(name string) ([]float64, bool) {
	col, ok := m.dbls[name]
	return col, ok
}

func TestSeedAndResultAccess(t *testing.T) {
	g := graphFromEdges([][2]RawID{{5, 6}, {6, 7}})
	s := mustSchema(t,
		DoubleElement("rank", Public, 0),
		LongElement("label", Public, 0),
		LongElement("scratch", Private, 0),
	)
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			cc.VoteToHalt()
			return nil
		},
	}
	ex, err := New(g, s, prog, Options{MaxIterations: 1, Concurrency: 2})
	require.NoError(t, err)
	ex.Seed(mapSource{
		longs: map[string][]int64{"label": {10, 20, 30}},
		dbls:  map[string][]float64{"rank": {0.5, 0.25, 0.125}},
	})
	res, err := ex.Run(context.Background())
	require.NoError(t, err)

	v, err := res.DoubleByRaw("rank", 6)
	require.NoError(t, err)
	require.Equal(t, 0.25, v)
	l, err := res.LongByRaw("label", 7)
	require.NoError(t, err)
	require.Equal(t, int64(30), l)

	pub := res.PublicElements()
	require.Len(t, pub, 2)
	require.Equal(t, "rank", pub[0].Key)
	require.Equal(t, "label", pub[1].Key)

	_, err = res.Double("label", 0)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	_, err = res.Long("label", 3)
	var gae *GraphAccessError
	require.ErrorAs(t, err, &gae)
}

func TestSeedLengthMismatch(t *testing.T) {
	s := mustSchema(t, LongElement("label", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error { return nil },
	}
	ex, err := New[float64](ringGraph(3), s, prog, Options{MaxIterations: 1, Concurrency: 1})
	require.NoError(t, err)
	ex.Seed(mapSource{longs: map[string][]int64{"label": {1, 2}}})
	_, err = ex.Run(context.Background())
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	require.Equal(t, "seed", cfg.Option)
}

func TestConfigValidation(t *testing.T) {
	s := mustSchema(t, DoubleElement("val", Public, 0))
	compute := func(cc *ComputeContext[float64]) error { return nil }
	g := ringGraph(3)

	_, err := New(g, s, Program[float64]{Compute: compute}, Options{})
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	require.Equal(t, "max_iterations", cfg.Option)

	_, err = New(g, s, Program[float64]{Compute: compute}, Options{MaxIterations: 1, Concurrency: -1})
	require.ErrorAs(t, err, &cfg)

	_, err = New(g, s, Program[float64]{}, Options{MaxIterations: 1})
	require.ErrorAs(t, err, &cfg)
	require.Equal(t, "program", cfg.Option)

	_, err = New(g, s, Program[float64]{Compute: compute}, Options{MaxIterations: 1, Policy: Reducing})
	require.ErrorAs(t, err, &cfg)

	_, err = New(g, s, Program[float64]{Compute: compute}, Options{MaxIterations: 1, AsyncReducing: true})
	require.ErrorAs(t, err, &cfg)

	_, err = New[float64](nil, s, Program[float64]{Compute: compute}, Options{MaxIterations: 1})
	require.ErrorAs(t, err, &cfg)

	empty := &Schema{index: map[string]int{}}
	_, err = New(g, empty, Program[float64]{Compute: compute}, Options{MaxIterations: 1})
	require.ErrorAs(t, err, &cfg)
}

func TestEmptyGraphFailsRun(t *testing.T) {
	s := mustSchema(t, DoubleElement("val", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error { return nil },
	}
	ex, err := New(graphFromEdges(nil), s, prog, Options{MaxIterations: 1, Concurrency: 1})
	require.NoError(t, err)
	_, err = ex.Run(context.Background())
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	require.Equal(t, "graph", cfg.Option)
}

func TestContextCancellation(t *testing.T) {
	s := mustSchema(t, DoubleElement("val", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error {
			cc.Broadcast(1.0)
			return nil
		},
	}
	ex, err := New[float64](ringGraph(3), s, prog, Options{MaxIterations: 50, Concurrency: 1})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ex.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Failed, ex.State())
}

func TestDuplicateRawIdsRejected(t *testing.T) {
	g := &dupGraph{}
	s := mustSchema(t, DoubleElement("val", Public, 0))
	prog := Program[float64]{
		Compute: func(cc *ComputeContext[float64]) error { return nil },
	}
	ex, err := New[float64](g, s, prog, Options{MaxIterations: 1, Concurrency: 1})
	require.NoError(t, err)
	_, err = ex.Run(context.Background())
	var gae *GraphAccessError
	require.ErrorAs(t, err, &gae)
}

// dupGraph enumerates the same raw id twice.
type dupGraph struct{}

func (dupGraph) VertexCount() int { return 2 }
func (dupGraph) ForEachVertex(visit func(raw RawID)) {
	visit(1)
	visit(1)
}
func (dupGraph) Degree(RawID) int                   { return 0 }
func (dupGraph) ForEachNeighbor(RawID, func(RawID)) {}
