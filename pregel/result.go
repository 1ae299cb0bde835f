package pregel

// Result exposes the final node values of a completed run. Accessors accept
// either internal ids or the graph's external ids; column accessors copy, so
// callers may mutate freely.
type Result struct {
	schema     *Schema
	values     *NodeValues
	tr         *Translator
	supersteps int
}

// Supersteps is the number of supersteps the run executed.
func (r *Result) Supersteps() int {
	return r.supersteps
}

func (r *Result) VertexCount() uint32 {
	return r.tr.Count()
}

// Translator gives access to the run's external<->internal id mapping.
func (r *Result) Translator() *Translator {
	return r.tr
}

// PublicElements lists the schema elements meant for export, in declaration
// order.
func (r *Result) PublicElements() []Element {
	var out []Element
	for _, el := range r.schema.Elements() {
		if el.Visibility == Public {
			out = append(out, el)
		}
	}
	return out
}

func (r *Result) Long(key string, internal uint32) (int64, error) {
	col, err := r.values.longColumn(key)
	if err != nil {
		return 0, err
	}
	if internal >= uint32(len(col)) {
		return 0, &GraphAccessError{Internal: true, Id: uint64(internal), Count: uint64(len(col))}
	}
	return col[internal], nil
}

func (r *Result) Double(key string, internal uint32) (float64, error) {
	col, err := r.values.doubleColumn(key)
	if err != nil {
		return 0, err
	}
	if internal >= uint32(len(col)) {
		return 0, &GraphAccessError{Internal: true, Id: uint64(internal), Count: uint64(len(col))}
	}
	return col[internal], nil
}

func (r *Result) LongByRaw(key string, raw RawID) (int64, error) {
	internal, err := r.tr.ToInternal(raw)
	if err != nil {
		return 0, err
	}
	return r.Long(key, internal)
}

func (r *Result) DoubleByRaw(key string, raw RawID) (float64, error) {
	internal, err := r.tr.ToInternal(raw)
	if err != nil {
		return 0, err
	}
	return r.Double(key, internal)
}

// LongColumn copies the full column for key, indexed by internal id.
func (r *Result) LongColumn(key string) ([]int64, error) {
	col, err := r.values.longColumn(key)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(col))
	copy(out, col)
	return out, nil
}

// DoubleColumn copies the full column for key, indexed by internal id.
func (r *Result) DoubleColumn(key string) ([]float64, error) {
	col, err := r.values.doubleColumn(key)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, nil
}
