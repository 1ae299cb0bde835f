package pregel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/graphbolt/pregolin/utils"
)

// State is the executor lifecycle stage. An executor moves strictly forward:
// Created -> Initializing -> Running -> Finalizing -> Completed, or to Failed
// from any stage. Run may be called once.
type State uint8

const (
	Created State = iota
	Initializing
	Running
	Finalizing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Finalizing:
		return "finalizing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "invalid"
}

// Program is the user algorithm. Compute is required; Init and Master are
// optional. Reducer is required with the Reducing policy and ignored
// otherwise.
type Program[M Number] struct {
	Init    func(ctx *InitContext) error
	Compute func(ctx *ComputeContext[M]) error
	Master  func(ctx *MasterContext) error
	Reducer Reducer[M]
}

// Executor drives a Program over a Graph in supersteps until every vertex has
// halted with no pending messages, the master stops the run, or the iteration
// bound is hit.
type Executor[M Number] struct {
	opts   Options
	schema *Schema
	graph  Graph
	prog   Program[M]
	seed   PropertySource
	state  State
}

func New[M Number](g Graph, schema *Schema, prog Program[M], opts Options) (*Executor[M], error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, &ConfigError{Option: "graph", Reason: "nil graph collaborator"}
	}
	if schema == nil || schema.Len() == 0 {
		return nil, &ConfigError{Option: "schema", Reason: "must declare at least one element"}
	}
	if prog.Compute == nil {
		return nil, &ConfigError{Option: "program", Reason: "Compute is required"}
	}
	if opts.Policy == Reducing && prog.Reducer == nil {
		return nil, &ConfigError{Option: "messenger_policy", Reason: "the Reducing policy requires a Program.Reducer"}
	}
	if opts.Policy != Reducing && opts.AsyncReducing {
		return nil, &ConfigError{Option: "async_reducing", Reason: "only meaningful with the Reducing policy"}
	}
	return &Executor[M]{opts: opts, schema: schema, graph: g, prog: prog}, nil
}

// Seed installs a property source consulted once, before init, to fill node
// value columns by element key. Must be called before Run.
func (e *Executor[M]) Seed(src PropertySource) {
	e.seed = src
}

// State reports the lifecycle stage. Not synchronized against a concurrent
// Run; meant for inspection before and after.
func (e *Executor[M]) State() State {
	return e.state
}

// Run executes the program to completion. The context is checked between
// supersteps only; a compute phase in flight finishes its current vertices.
func (e *Executor[M]) Run(ctx context.Context) (*Result, error) {
	if e.state != Created {
		return nil, &ConfigError{Option: "state", Reason: "executor already ran (" + e.state.String() + ")"}
	}
	res, err := e.run(ctx)
	if err != nil {
		e.state = Failed
		return nil, err
	}
	e.state = Completed
	return res, nil
}

func (e *Executor[M]) run(ctx context.Context) (*Result, error) {
	watch := utils.Watch{}
	watch.Start()
	e.state = Initializing

	tr, err := buildTranslator(e.graph)
	if err != nil {
		return nil, err
	}
	n := tr.Count()
	if n == 0 {
		return nil, &ConfigError{Option: "graph", Reason: "vertex count is zero"}
	}

	degrees := make([]uint32, n)
	offsets := make([]uint32, n+1)
	for i := uint32(0); i < n; i++ {
		degrees[i] = uint32(e.graph.Degree(tr.toExternal[i]))
		offsets[i+1] = offsets[i] + degrees[i]
	}
	targets := make([]uint32, offsets[n])

	parts, err := makePartitions(e.opts.Partitioning, n, e.opts.Concurrency, degrees)
	if err != nil {
		return nil, err
	}
	workers := len(parts)
	partOf := partitionTable(parts, n)

	// Fill the adjacency cache, every partition writing its own rows.
	eg := new(errgroup.Group)
	for _, p := range parts {
		p := p
		eg.Go(func() error {
			for i := p.Start; i < p.End; i++ {
				raw := tr.toExternal[i]
				pos := offsets[i]
				var fail error
				e.graph.ForEachNeighbor(raw, func(nb RawID) {
					if fail != nil {
						return
					}
					didx, terr := tr.ToInternal(nb)
					if terr != nil {
						fail = terr
						return
					}
					if pos >= offsets[i+1] {
						fail = &ConfigError{Option: "graph", Reason: "degree and neighbor enumeration disagree at vertex " + utils.V(raw)}
						return
					}
					targets[pos] = didx
					pos++
				})
				if fail != nil {
					return fail
				}
				if pos != offsets[i+1] {
					return &ConfigError{Option: "graph", Reason: "degree and neighbor enumeration disagree at vertex " + utils.V(raw)}
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	values := newNodeValues(e.schema, n)
	if err := e.applySeed(values, n); err != nil {
		return nil, err
	}

	c := &core{
		values:    values,
		tr:        tr,
		offsets:   offsets,
		targets:   targets,
		n:         n,
		tolerance: e.opts.Tolerance,
		agg:       newAggregators(),
	}
	activity := make([]int32, n)
	halted := make([]bool, n)

	var msgr messenger[M]
	switch e.opts.Policy {
	case Synchronous:
		msgr = newSyncMessenger[M](n, workers, partOf, activity, e.opts.TrackSender)
	case Asynchronous:
		msgr = newAsyncMessenger[M](n, activity, e.opts.TrackSender)
	case Reducing:
		msgr = newReducingMessenger[M](n, e.prog.Reducer, activity, e.opts.AsyncReducing)
	}

	log.Debug().Msg("Graph ready, vertices " + utils.V(n) + " edges " + utils.V(offsets[n]) +
		" partitions " + utils.V(workers) + " policy " + e.opts.Policy.String() + " in " + watch.Elapsed().String())

	var aborted atomic.Bool

	if e.prog.Init != nil {
		err := e.parallel(parts, func(p Partition) error {
			ic := &InitContext{c: c}
			for i := p.Start; i < p.End; i++ {
				if aborted.Load() {
					return nil
				}
				ic.id, ic.halt = i, false
				if ierr := e.safeInit(ic, int(p.Tidx)); ierr != nil {
					aborted.Store(true)
					return ierr
				}
				halted[i] = ic.halt
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	frontiers := make([]*roaring.Bitmap, workers)
	counts := make([]int, workers)
	e.parallel(parts, func(p Partition) error {
		fr := roaring.New()
		for i := p.Start; i < p.End; i++ {
			if !halted[i] {
				fr.Add(i)
			}
		}
		frontiers[p.Tidx] = fr
		counts[p.Tidx] = int(fr.GetCardinality())
		return nil
	})
	active := utils.Sum(counts)

	e.state = Running
	ctxs := make([]*ComputeContext[M], workers)
	for t := range ctxs {
		ctxs[t] = &ComputeContext[M]{c: c, msgr: msgr, tidx: uint32(t)}
	}

	supersteps := 0
	for k := 0; active > 0; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepStart := time.Now()

		err := e.parallel(parts, func(p Partition) error {
			cc := ctxs[p.Tidx]
			cc.superstep, cc.sent = k, 0
			it := frontiers[p.Tidx].Iterator()
			for it.HasNext() {
				if aborted.Load() {
					return nil
				}
				i := it.Next()
				cc.id, cc.halt = i, false
				msgr.Drain(i, &cc.inbox)
				if cerr := e.safeCompute(cc); cerr != nil {
					aborted.Store(true)
					return cerr
				}
				halted[i] = cc.halt
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		// Deliver staged messages and rebuild the active set. Each partition
		// consumes the wake marks of its own vertices; a mark both clears the
		// halt flag and admits the vertex.
		e.parallel(parts, func(p Partition) error {
			msgr.deliver(p)
			fr := roaring.New()
			for i := p.Start; i < p.End; i++ {
				if atomic.SwapInt32(&activity[i], 0) > 0 {
					halted[i] = false
				}
				if !halted[i] {
					fr.Add(i)
				}
			}
			frontiers[p.Tidx] = fr
			counts[p.Tidx] = int(fr.GetCardinality())
			return nil
		})
		active = utils.Sum(counts)
		var sent uint64
		for _, cc := range ctxs {
			sent += cc.sent
		}
		supersteps = k + 1

		mc := &MasterContext{c: c, superstep: k, active: active, sent: sent}
		if e.prog.Master != nil {
			if merr := e.safeMaster(mc, k); merr != nil {
				return nil, merr
			}
		}
		if e.opts.Reporter != nil {
			e.opts.Reporter.OnSuperstep(SuperstepStats{Superstep: k, Active: active, Sent: sent, Elapsed: time.Since(stepStart)})
		}
		if mc.stop || k+1 == e.opts.MaxIterations {
			break
		}
		msgr.swap()
		c.agg.publish()
	}

	e.state = Finalizing
	log.Info().Msg("Completed " + utils.V(supersteps) + " supersteps in " + watch.Elapsed().String())
	return &Result{schema: e.schema, values: values, tr: tr, supersteps: supersteps}, nil
}

func (e *Executor[M]) applySeed(values *NodeValues, n uint32) error {
	if e.seed == nil {
		return nil
	}
	for _, el := range e.schema.elements {
		switch el.Type {
		case Long:
			if col, ok := e.seed.LongColumn(el.Key); ok {
				if uint32(len(col)) != n {
					return &ConfigError{Option: "seed", Reason: "column " + el.Key + " has " + utils.V(len(col)) + " rows, graph has " + utils.V(n)}
				}
				dst, _ := values.longColumn(el.Key)
				copy(dst, col)
			}
		case Double:
			if col, ok := e.seed.DoubleColumn(el.Key); ok {
				if uint32(len(col)) != n {
					return &ConfigError{Option: "seed", Reason: "column " + el.Key + " has " + utils.V(len(col)) + " rows, graph has " + utils.V(n)}
				}
				dst, _ := values.doubleColumn(el.Key)
				copy(dst, col)
			}
		}
	}
	return nil
}

// parallel runs f once per partition and returns the error of the lowest
// partition index that failed.
func (e *Executor[M]) parallel(parts []Partition, f func(p Partition) error) error {
	errs := make([]error, len(parts))
	var wg sync.WaitGroup
	wg.Add(len(parts))
	for _, p := range parts {
		p := p
		go func() {
			defer wg.Done()
			errs[p.Tidx] = f(p)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor[M]) safeInit(ic *InitContext, partition int) (err error) {
	defer rescue(-1, partition, ic.id, &err)
	if ierr := e.prog.Init(ic); ierr != nil {
		err = &ComputeError{Superstep: -1, Partition: partition, Vertex: ic.id, cause: ierr}
	}
	return
}

func (e *Executor[M]) safeCompute(cc *ComputeContext[M]) (err error) {
	defer rescue(cc.superstep, int(cc.tidx), cc.id, &err)
	if cerr := e.prog.Compute(cc); cerr != nil {
		err = &ComputeError{Superstep: cc.superstep, Partition: int(cc.tidx), Vertex: cc.id, cause: cerr}
	}
	return
}

func (e *Executor[M]) safeMaster(mc *MasterContext, superstep int) (err error) {
	defer rescue(superstep, -1, NoVertex, &err)
	if merr := e.prog.Master(mc); merr != nil {
		err = &ComputeError{Superstep: superstep, Partition: -1, Vertex: NoVertex, cause: merr}
	}
	return
}

// rescue converts a panic out of user code into a ComputeError attributed to
// the vertex being processed.
func rescue(superstep, partition int, vertex uint32, err *error) {
	r := recover()
	if r == nil {
		return
	}
	ce, ok := r.(*ComputeError)
	if !ok {
		ce = &ComputeError{Vertex: NoVertex, cause: fmt.Errorf("panic: %v", r)}
	}
	ce.Superstep, ce.Partition = superstep, partition
	if ce.Vertex == NoVertex {
		ce.Vertex = vertex
	}
	*err = ce
}
