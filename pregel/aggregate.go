package pregel

// aggregators holds the run-scoped named doubles maintained by master compute.
// The master writes between supersteps; the compute phase only ever reads the
// snapshot published before its workers launch, so neither side locks.
type aggregators struct {
	vals map[string]float64
	snap map[string]float64
}

func newAggregators() *aggregators {
	return &aggregators{
		vals: make(map[string]float64),
		snap: make(map[string]float64),
	}
}

// get reads the published snapshot. Compute-phase side.
func (a *aggregators) get(name string) (float64, bool) {
	v, ok := a.snap[name]
	return v, ok
}

// masterGet reads the live values, including ones set earlier in the same
// master invocation.
func (a *aggregators) masterGet(name string) (float64, bool) {
	v, ok := a.vals[name]
	return v, ok
}

func (a *aggregators) set(name string, v float64) {
	a.vals[name] = v
}

// publish makes the current values visible to the next compute phase.
func (a *aggregators) publish() {
	for k := range a.snap {
		delete(a.snap, k)
	}
	for k, v := range a.vals {
		a.snap[k] = v
	}
}
