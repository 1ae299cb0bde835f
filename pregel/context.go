package pregel

// core is the per-run state shared by every context: the value store, the id
// translation, the internal adjacency cache, and the aggregator table. Built
// once by Run and immutable during a superstep except through the documented
// single-writer paths.
type core struct {
	values    *NodeValues
	tr        *Translator
	offsets   []uint32 // CSR row offsets, len n+1
	targets   []uint32 // CSR neighbor internal ids
	n         uint32
	tolerance float64
	agg       *aggregators
}

func (c *core) degree(id uint32) int {
	return int(c.offsets[id+1] - c.offsets[id])
}

// InitContext is handed to the Program's Init once per vertex, before the
// first superstep. It can read and write the vertex's own row and may already
// vote to halt (an isolated source vertex often does).
type InitContext struct {
	c    *core
	id   uint32
	halt bool
}

func (ic *InitContext) Id() uint32 {
	return ic.id
}

func (ic *InitContext) RawId() RawID {
	return ic.c.tr.toExternal[ic.id]
}

func (ic *InitContext) Degree() int {
	return ic.c.degree(ic.id)
}

func (ic *InitContext) VertexCount() int {
	return int(ic.c.n)
}

func (ic *InitContext) Tolerance() float64 {
	return ic.c.tolerance
}

func (ic *InitContext) GetLong(key string) int64 {
	return ic.c.values.GetLong(key, ic.id)
}

func (ic *InitContext) SetLong(key string, val int64) {
	ic.c.values.SetLong(key, ic.id, val)
}

func (ic *InitContext) GetDouble(key string) float64 {
	return ic.c.values.GetDouble(key, ic.id)
}

func (ic *InitContext) SetDouble(key string, val float64) {
	ic.c.values.SetDouble(key, ic.id, val)
}

func (ic *InitContext) VoteToHalt() {
	ic.halt = true
}

// ComputeContext is handed to the Program's Compute once per active vertex
// per superstep. Value accessors touch only the vertex's own row; outbound
// messages are the only way to influence other vertices.
type ComputeContext[M Number] struct {
	c         *core
	msgr      messenger[M]
	inbox     Inbox[M]
	id        uint32
	tidx      uint32
	superstep int
	sent      uint64
	halt      bool
}

func (cc *ComputeContext[M]) Superstep() int {
	return cc.superstep
}

func (cc *ComputeContext[M]) Id() uint32 {
	return cc.id
}

func (cc *ComputeContext[M]) RawId() RawID {
	return cc.c.tr.toExternal[cc.id]
}

func (cc *ComputeContext[M]) Degree() int {
	return cc.c.degree(cc.id)
}

func (cc *ComputeContext[M]) VertexCount() int {
	return int(cc.c.n)
}

func (cc *ComputeContext[M]) Tolerance() float64 {
	return cc.c.tolerance
}

func (cc *ComputeContext[M]) GetLong(key string) int64 {
	return cc.c.values.GetLong(key, cc.id)
}

func (cc *ComputeContext[M]) SetLong(key string, val int64) {
	cc.c.values.SetLong(key, cc.id, val)
}

func (cc *ComputeContext[M]) GetDouble(key string) float64 {
	return cc.c.values.GetDouble(key, cc.id)
}

func (cc *ComputeContext[M]) SetDouble(key string, val float64) {
	cc.c.values.SetDouble(key, cc.id, val)
}

// Inbox holds the messages delivered to this vertex for this superstep.
func (cc *ComputeContext[M]) Inbox() *Inbox[M] {
	return &cc.inbox
}

// VoteToHalt removes this vertex from the next active set unless a message
// wakes it again. The vote takes effect at the end of this Compute call; it
// does not stop the current invocation.
func (cc *ComputeContext[M]) VoteToHalt() {
	cc.halt = true
}

// Send routes a message to the target internal id. Out-of-range targets are a
// programmer error and abort the run.
func (cc *ComputeContext[M]) Send(target uint32, val M) {
	if target >= cc.c.n {
		computePanic("%w", &GraphAccessError{Internal: true, Id: uint64(target), Count: uint64(cc.c.n)})
	}
	cc.msgr.Send(cc.tidx, cc.id, target, val)
	cc.sent++
}

// Broadcast sends val to every out-neighbor.
func (cc *ComputeContext[M]) Broadcast(val M) {
	for _, t := range cc.c.targets[cc.c.offsets[cc.id]:cc.c.offsets[cc.id+1]] {
		cc.msgr.Send(cc.tidx, cc.id, t, val)
		cc.sent++
	}
}

// ForEachNeighbor visits the out-neighbors as internal ids, in adjacency
// cache order.
func (cc *ComputeContext[M]) ForEachNeighbor(visit func(target uint32)) {
	for _, t := range cc.c.targets[cc.c.offsets[cc.id]:cc.c.offsets[cc.id+1]] {
		visit(t)
	}
}

// Aggregator reads the value published by the most recent master compute.
func (cc *ComputeContext[M]) Aggregator(name string) (float64, bool) {
	return cc.c.agg.get(name)
}

// MasterContext is handed to the Program's Master exactly once per superstep,
// after the barrier, on a single thread. It observes the superstep's totals,
// may update aggregators for the next superstep, and may stop the run.
type MasterContext struct {
	c         *core
	superstep int
	active    int
	sent      uint64
	stop      bool
}

func (mc *MasterContext) Superstep() int {
	return mc.superstep
}

// ActiveCount is the number of vertices entering the next superstep's active
// set, message wakes included.
func (mc *MasterContext) ActiveCount() int {
	return mc.active
}

// SentCount is the number of messages sent during this superstep.
func (mc *MasterContext) SentCount() uint64 {
	return mc.sent
}

func (mc *MasterContext) VertexCount() int {
	return int(mc.c.n)
}

func (mc *MasterContext) Tolerance() float64 {
	return mc.c.tolerance
}

func (mc *MasterContext) Aggregator(name string) (float64, bool) {
	return mc.c.agg.masterGet(name)
}

func (mc *MasterContext) SetAggregator(name string, val float64) {
	mc.c.agg.set(name, val)
}

// Halt terminates the run after this superstep, regardless of remaining
// active vertices.
func (mc *MasterContext) Halt() {
	mc.stop = true
}
