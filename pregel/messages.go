package pregel

import (
	"sync"
	"sync/atomic"
)

// Number constrains message scalars to the schema value domain.
type Number interface {
	int64 | float64
}

// Message is an immutable scalar plus the sender's internal id. The sender
// is only recorded when the configuration opts into tracking.
type Message[M Number] struct {
	Val  M
	Sidx uint32
}

// envelope is a staged message together with its routing target.
type envelope[M Number] struct {
	didx uint32
	msg  Message[M]
}

// Inbox iterates one vertex's received messages for one superstep. Reused
// across vertices by the owning partition; never shared between threads.
type Inbox[M Number] struct {
	list    []Message[M]
	pos     int
	acc     M
	hasAcc  bool
	reduced bool
	track   bool
}

func (in *Inbox[M]) setList(list []Message[M], track bool) {
	in.list, in.pos, in.reduced, in.track = list, -1, false, track
	in.hasAcc = false
}

func (in *Inbox[M]) setReduced(acc M, has bool) {
	in.list, in.pos, in.reduced = nil, -1, true
	in.acc, in.hasAcc = acc, has
}

// Len is the number of values Next will yield. A reduced inbox yields at
// most one accumulated value.
func (in *Inbox[M]) Len() int {
	if in.reduced {
		if in.hasAcc {
			return 1
		}
		return 0
	}
	return len(in.list)
}

func (in *Inbox[M]) Next() bool {
	in.pos++
	if in.reduced {
		return in.pos == 0 && in.hasAcc
	}
	return in.pos < len(in.list)
}

func (in *Inbox[M]) Value() M {
	if in.reduced {
		return in.acc
	}
	return in.list[in.pos].Val
}

// Sender reports the originating vertex of the current message. Only
// available when sender tracking is configured and the messenger does not
// reduce (a folded accumulator has no single sender).
func (in *Inbox[M]) Sender() (uint32, bool) {
	if in.reduced || !in.track {
		return 0, false
	}
	return in.list[in.pos].Sidx, true
}

// messenger governs how and when sent messages become visible to receivers.
//
// Send may be called concurrently from any partition's worker. deliver runs
// once per partition after the compute barrier, owned by that partition.
// Drain is called once per vertex per superstep by the owner. swap advances
// the buffers when the loop continues to the next superstep.
type messenger[M Number] interface {
	Send(tidx, sidx, didx uint32, val M)
	Drain(didx uint32, in *Inbox[M])
	deliver(p Partition)
	swap()
}

const stripeCount = 256

type stripeSet struct {
	locks [stripeCount]sync.Mutex
}

func (s *stripeSet) of(didx uint32) *sync.Mutex {
	return &s.locks[didx%stripeCount]
}

// ---------------- Synchronous ----------------

// syncMessenger double-buffers per-vertex inboxes. Sends append to the
// sending worker's staging bucket for the destination partition (no locks);
// the destination partition merges everything aimed at it during deliver,
// which is the only cross-worker handoff and is single-writer per target.
type syncMessenger[M Number] struct {
	partOf   []uint32
	stage    [][][]envelope[M] // [sender worker][dest partition]
	cur      [][]Message[M]
	next     [][]Message[M]
	activity []int32
	track    bool
}

func newSyncMessenger[M Number](n uint32, workers int, partOf []uint32, activity []int32, track bool) *syncMessenger[M] {
	sm := &syncMessenger[M]{
		partOf:   partOf,
		stage:    make([][][]envelope[M], workers),
		cur:      make([][]Message[M], n),
		next:     make([][]Message[M], n),
		activity: activity,
		track:    track,
	}
	for w := range sm.stage {
		sm.stage[w] = make([][]envelope[M], workers)
	}
	return sm
}

func (sm *syncMessenger[M]) Send(tidx, sidx, didx uint32, val M) {
	bucket := &sm.stage[tidx][sm.partOf[didx]]
	*bucket = append(*bucket, envelope[M]{didx: didx, msg: Message[M]{Val: val, Sidx: sidx}})
}

func (sm *syncMessenger[M]) deliver(p Partition) {
	for w := range sm.stage {
		bucket := sm.stage[w][p.Tidx]
		for _, e := range bucket {
			sm.next[e.didx] = append(sm.next[e.didx], e.msg)
			atomic.AddInt32(&sm.activity[e.didx], 1)
		}
		sm.stage[w][p.Tidx] = bucket[:0]
	}
}

func (sm *syncMessenger[M]) swap() {
	sm.cur, sm.next = sm.next, sm.cur
}

func (sm *syncMessenger[M]) Drain(didx uint32, in *Inbox[M]) {
	in.setList(sm.cur[didx], sm.track)
	sm.cur[didx] = sm.cur[didx][:0]
}

// ---------------- Asynchronous ----------------

// asyncMessenger delivers straight into the current inbox under striped
// locks. A message is visible in the sending superstep iff the target has
// not been drained yet this round; later arrivals sit in the inbox for the
// next superstep. Which case applies depends on partition processing order,
// a documented non-determinism of this policy.
type asyncMessenger[M Number] struct {
	inboxes  [][]Message[M]
	activity []int32
	stripes  stripeSet
	track    bool
}

func newAsyncMessenger[M Number](n uint32, activity []int32, track bool) *asyncMessenger[M] {
	return &asyncMessenger[M]{
		inboxes:  make([][]Message[M], n),
		activity: activity,
		track:    track,
	}
}

func (am *asyncMessenger[M]) Send(tidx, sidx, didx uint32, val M) {
	l := am.stripes.of(didx)
	l.Lock()
	am.inboxes[didx] = append(am.inboxes[didx], Message[M]{Val: val, Sidx: sidx})
	atomic.AddInt32(&am.activity[didx], 1)
	l.Unlock()
}

func (am *asyncMessenger[M]) Drain(didx uint32, in *Inbox[M]) {
	l := am.stripes.of(didx)
	l.Lock()
	list := am.inboxes[didx]
	am.inboxes[didx] = nil
	atomic.StoreInt32(&am.activity[didx], 0)
	l.Unlock()
	in.setList(list, am.track)
}

func (am *asyncMessenger[M]) deliver(Partition) {}

func (am *asyncMessenger[M]) swap() {}

// ---------------- Reducing ----------------

// reducingMessenger folds every arriving message into a per-target
// accumulator at send time, bounding memory to O(vertices) regardless of
// message volume. The reducer must be associative and tolerate any fold
// order. Visibility follows either the synchronous rule (double-buffered
// accumulators) or the asynchronous one (single buffer).
type reducingMessenger[M Number] struct {
	red      Reducer[M]
	curAcc   []M
	nextAcc  []M
	curHas   []bool
	nextHas  []bool
	activity []int32
	stripes  stripeSet
	async    bool
}

func newReducingMessenger[M Number](n uint32, red Reducer[M], activity []int32, async bool) *reducingMessenger[M] {
	rm := &reducingMessenger[M]{
		red:      red,
		curAcc:   make([]M, n),
		curHas:   make([]bool, n),
		activity: activity,
		async:    async,
	}
	if !async {
		rm.nextAcc = make([]M, n)
		rm.nextHas = make([]bool, n)
	}
	return rm
}

func (rm *reducingMessenger[M]) Send(tidx, sidx, didx uint32, val M) {
	acc, has := rm.curAcc, rm.curHas
	if !rm.async {
		acc, has = rm.nextAcc, rm.nextHas
	}
	l := rm.stripes.of(didx)
	l.Lock()
	if has[didx] {
		acc[didx] = rm.red.Reduce(acc[didx], val)
	} else {
		acc[didx] = rm.red.Reduce(rm.red.Identity(), val)
		has[didx] = true
	}
	atomic.AddInt32(&rm.activity[didx], 1)
	l.Unlock()
}

func (rm *reducingMessenger[M]) Drain(didx uint32, in *Inbox[M]) {
	l := rm.stripes.of(didx)
	l.Lock()
	in.setReduced(rm.curAcc[didx], rm.curHas[didx])
	rm.curHas[didx] = false
	if rm.async {
		// Single buffer: everything folded so far is consumed by this drain.
		// With double buffering the pending folds target the next superstep
		// and their wake marks must survive the drain.
		atomic.StoreInt32(&rm.activity[didx], 0)
	}
	l.Unlock()
}

func (rm *reducingMessenger[M]) deliver(Partition) {}

func (rm *reducingMessenger[M]) swap() {
	if rm.async {
		return
	}
	rm.curAcc, rm.nextAcc = rm.nextAcc, rm.curAcc
	rm.curHas, rm.nextHas = rm.nextHas, rm.curHas
}
